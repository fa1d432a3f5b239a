package controllers

import (
	"net/http"
	"strconv"

	"peer-review-api/config"
	"peer-review-api/services"

	"github.com/gin-gonic/gin"
)

// ReassignReview moves a stuck or expired assignment to a different reviewer.
func ReassignReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	assignmentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || assignmentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return
	}

	var req struct {
		NewReviewerID uint   `json:"new_reviewer_id" binding:"required"`
		Justification string `json:"justification" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	service := services.NewAdminService(config.DB, config.LoadReviewSettings())
	assignment, err := service.Reassign(uint(assignmentID), req.NewReviewerID, req.Justification, userID, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Review reassigned",
		"assignment": assignment,
	})
}

// OverrideVerdict replaces a computed verdict with an admin decision.
func OverrideVerdict(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	submissionID, err := strconv.Atoi(c.Param("id"))
	if err != nil || submissionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission ID"})
		return
	}

	var req struct {
		Outcome       string `json:"outcome" binding:"required"`
		Justification string `json:"justification" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	service := services.NewAdminService(config.DB, config.LoadReviewSettings())
	result, err := service.Override(uint(submissionID), req.Outcome, req.Justification, userID, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Verdict overridden",
		"result":  result,
	})
}
