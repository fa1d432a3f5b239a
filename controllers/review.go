package controllers

import (
	"net/http"
	"strconv"

	"peer-review-api/config"
	"peer-review-api/models"
	"peer-review-api/services"

	"github.com/gin-gonic/gin"
)

// GetMyAssignments lists the caller's assignments, newest first. Pending ones
// carry their deadline so the client can show time remaining.
func GetMyAssignments(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	query := config.DB.Preload("Submission").
		Where("reviewer_user_id = ?", userID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var assignments []models.ReviewAssignment
	if err := query.Order("assigned_at DESC, assignment_id DESC").Find(&assignments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch assignments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"assignments": assignments,
		"total":       len(assignments),
	})
}

// ValidateAssignment runs the pre-submit checks so the client can open the
// review form only when a review would actually be accepted.
func ValidateAssignment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	assignmentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || assignmentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return
	}

	service := services.NewReviewService(config.DB, config.LoadReviewSettings())
	assignment, err := service.Validate(uint(assignmentID), uint(userID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"assignment": assignment,
	})
}

// SubmitReview records a review for an assignment owned by the caller.
func SubmitReview(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	assignmentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || assignmentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID"})
		return
	}

	var payload services.ReviewPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	service := services.NewReviewService(config.DB, config.LoadReviewSettings())
	review, err := service.Submit(uint(assignmentID), uint(userID), payload)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Review submitted",
		"review":  review,
	})
}
