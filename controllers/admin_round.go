package controllers

import (
	"net/http"
	"strconv"
	"time"

	"peer-review-api/config"
	"peer-review-api/services"

	"github.com/gin-gonic/gin"
)

// CreateAssignmentBatch opens the review round for a contest: resolves
// eligibility, balances assignments across reviewers and persists the batch.
func CreateAssignmentBatch(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	contestID, err := strconv.Atoi(c.Param("id"))
	if err != nil || contestID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contest ID"})
		return
	}

	service := services.NewAssignmentService(config.DB, config.LoadReviewSettings())
	result, err := service.CreateBatch(uint(contestID), userID, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Assignment batch created"
	if result.AssignmentsMade == 0 {
		message = "No eligible submissions or reviewers; nothing assigned"
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"batch":   result,
	})
}

// EndRound runs the phase-end orchestration for a contest. On failure the
// response still carries the per-step counts plus the error list so the
// operator can tell which steps completed before retrying.
func EndRound(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	contestID, err := strconv.Atoi(c.Param("id"))
	if err != nil || contestID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contest ID"})
		return
	}

	service := services.NewPhaseService(config.DB, config.LoadReviewSettings())
	result, err := service.EndRound(uint(contestID), userID, c.ClientIP())
	if err != nil {
		status := http.StatusInternalServerError
		switch services.KindOf(err) {
		case services.KindNotFound:
			status = http.StatusNotFound
		case services.KindConflict:
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{
			"success": false,
			"error":   err.Error(),
			"result":  result,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Review round ended",
		"result":  result,
	})
}

// RunDeadlineSweep expires overdue assignments and warns reviewers whose
// deadlines are near. Meant to be hit by a scheduled job.
func RunDeadlineSweep(c *gin.Context) {
	warningHours, err := strconv.Atoi(c.DefaultQuery("warning_hours", "24"))
	if err != nil || warningHours < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid warning_hours"})
		return
	}

	service := services.NewAdminService(config.DB, config.LoadReviewSettings())
	expired, warned, err := service.ExpireOverdue(time.Duration(warningHours) * time.Hour)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"expired": expired,
		"warned":  warned,
	})
}
