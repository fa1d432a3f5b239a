package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"peer-review-api/config"
	"peer-review-api/models"

	"gorm.io/gorm"
)

// MinJustificationLength is the shortest justification accepted on a verdict
// override.
const MinJustificationLength = 20

// AdminService holds the administrative escape hatches: force-reassigning a
// stuck assignment and overriding a computed verdict. Every mutation carries
// a justification and lands in the audit trail.
type AdminService struct {
	db       *gorm.DB
	settings config.ReviewSettings
	notifier *NotificationService
	reviews  *ReviewService
}

func NewAdminService(db *gorm.DB, settings config.ReviewSettings) *AdminService {
	if db == nil {
		db = config.DB
	}
	return &AdminService{
		db:       db,
		settings: settings,
		notifier: NewNotificationService(db),
		reviews:  NewReviewService(db, settings),
	}
}

// Reassign expires the old assignment and creates a fresh PENDING one for the
// new reviewer with a newly computed deadline. The new reviewer is notified
// best-effort.
func (s *AdminService) Reassign(assignmentID, newReviewerID uint, justification string, actorID int, ipAddress string) (*models.ReviewAssignment, error) {
	justification = strings.TrimSpace(justification)
	if justification == "" {
		return nil, invalid("A justification is required to reassign a review")
	}

	var old models.ReviewAssignment
	if err := s.db.Preload("Submission").First(&old, assignmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Assignment not found")
		}
		return nil, internal("Failed to load assignment", err)
	}
	if old.Status == models.AssignmentDone {
		return nil, conflict("Assignment has already been completed")
	}
	if old.Submission != nil && old.Submission.UserID == newReviewerID {
		return nil, forbidden("Cannot assign reviewer to their own submission")
	}

	var active int64
	if err := s.db.Model(&models.ReviewAssignment{}).
		Where("submission_id = ? AND reviewer_user_id = ? AND status <> ?",
			old.SubmissionID, newReviewerID, models.AssignmentExpired).
		Count(&active).Error; err != nil {
		return nil, internal("Failed to check existing assignments", err)
	}
	if active > 0 {
		return nil, conflict("Reviewer already has an active assignment for this submission")
	}

	now := time.Now()
	replacement := models.ReviewAssignment{
		SubmissionID:   old.SubmissionID,
		ReviewerUserID: newReviewerID,
		Status:         models.AssignmentPending,
		BatchID:        old.BatchID,
		AssignedAt:     now,
		Deadline:       now.AddDate(0, 0, s.settings.DeadlineDays),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ReviewAssignment{}).
			Where("assignment_id = ? AND status = ?", assignmentID, models.AssignmentPending).
			Update("status", models.AssignmentExpired).Error; err != nil {
			return err
		}
		if err := tx.Create(&replacement).Error; err != nil {
			return err
		}

		auditValues := map[string]interface{}{
			"old_assignment_id": old.AssignmentID,
			"old_reviewer_id":   old.ReviewerUserID,
			"new_reviewer_id":   newReviewerID,
			"deadline":          replacement.Deadline,
			"justification":     justification,
		}
		serialized, _ := json.Marshal(auditValues)
		entityID := int(old.AssignmentID)
		audit := models.AuditLog{
			UserID:      actorID,
			Action:      "reassign",
			EntityType:  "assignment",
			EntityID:    &entityID,
			NewValues:   strPtr(string(serialized)),
			Description: strPtr(fmt.Sprintf("Reassigned review from user %d to user %d", old.ReviewerUserID, newReviewerID)),
			IPAddress:   ipAddress,
			CreatedAt:   now,
		}
		return tx.Create(&audit).Error
	})
	if err != nil {
		return nil, internal("Failed to reassign review", err)
	}

	go s.notifier.NotifyAssigned(newReviewerID, 1, replacement.Deadline)

	return &replacement, nil
}

var overrideStatuses = map[string]string{
	models.VerdictReinstated:          models.SubmissionReinstated,
	models.VerdictEliminatedConfirmed: models.SubmissionEliminated,
	models.VerdictAIDecisionUpheld:    models.SubmissionEliminated,
}

// Override replaces the computed verdict with an admin-supplied outcome. The
// computed decision stays on the record for audit, the submission status is
// updated to match, and the owner is notified best-effort.
func (s *AdminService) Override(submissionID uint, outcome, justification string, actorID int, ipAddress string) (*models.PeerReviewResult, error) {
	justification = strings.TrimSpace(justification)
	if len(justification) < MinJustificationLength {
		return nil, invalid(fmt.Sprintf("Justification must be at least %d characters", MinJustificationLength))
	}

	outcome = strings.ToUpper(strings.TrimSpace(outcome))
	status, ok := overrideStatuses[outcome]
	if !ok {
		return nil, invalid("Outcome must be one of REINSTATED, ELIMINATED_CONFIRMED, AI_DECISION_UPHELD")
	}

	var submission models.Submission
	if err := s.db.First(&submission, submissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Submission not found")
		}
		return nil, internal("Failed to load submission", err)
	}

	var result models.PeerReviewResult
	if err := s.db.Where("submission_id = ?", submissionID).First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, conflict("Submission has no verdict to override")
		}
		return nil, internal("Failed to load verdict", err)
	}

	now := time.Now()
	original := result.Decision
	err := s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"decision":        outcome,
			"overridden_by":   actorID,
			"override_reason": justification,
			"overridden_at":   now,
			"message":         fmt.Sprintf("Verdict overridden by admin: %s", outcome),
		}
		if result.OriginalDecision == nil {
			updates["original_decision"] = original
		}
		if err := tx.Model(&models.PeerReviewResult{}).
			Where("result_id = ?", result.ResultID).
			Updates(updates).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Submission{}).
			Where("submission_id = ?", submissionID).
			Update("status", status).Error; err != nil {
			return err
		}

		oldStatus := submission.Status
		history := models.SubmissionStatusHistory{
			SubmissionID: submissionID,
			OldStatus:    &oldStatus,
			NewStatus:    status,
			ChangedBy:    actorID,
			Reason:       &justification,
			CreatedAt:    now,
		}
		if err := tx.Create(&history).Error; err != nil {
			return err
		}

		auditValues := map[string]interface{}{
			"outcome":       outcome,
			"justification": justification,
			"status":        status,
		}
		serialized, _ := json.Marshal(auditValues)
		entityID := int(submissionID)
		audit := models.AuditLog{
			UserID:      actorID,
			Action:      "override_verdict",
			EntityType:  "submission",
			EntityID:    &entityID,
			OldValues:   strPtr(fmt.Sprintf(`{"decision":"%s","status":"%s"}`, original, submission.Status)),
			NewValues:   strPtr(string(serialized)),
			Description: strPtr(fmt.Sprintf("Verdict overridden from %s to %s", original, outcome)),
			IPAddress:   ipAddress,
			CreatedAt:   now,
		}
		return tx.Create(&audit).Error
	})
	if err != nil {
		return nil, internal("Failed to override verdict", err)
	}

	go s.notifier.NotifyVerdict(submission.UserID, submissionID, outcome)

	if err := s.db.Where("result_id = ?", result.ResultID).First(&result).Error; err != nil {
		return nil, internal("Failed to reload verdict", err)
	}
	return &result, nil
}

// ExpireOverdue flips overdue PENDING assignments to EXPIRED and warns
// reviewers whose remaining assignments approach their deadline. Invoked by
// an external scheduled caller; the engine does not own the timer.
func (s *AdminService) ExpireOverdue(warningWindow time.Duration) (expired int, warned int, err error) {
	now := time.Now()

	overdue, err := s.reviews.OverdueAssignments(now)
	if err != nil {
		return 0, 0, err
	}
	if len(overdue) > 0 {
		ids := make([]uint, len(overdue))
		for i, assignment := range overdue {
			ids[i] = assignment.AssignmentID
		}
		res := s.db.Model(&models.ReviewAssignment{}).
			Where("assignment_id IN ? AND status = ?", ids, models.AssignmentPending).
			Update("status", models.AssignmentExpired)
		if res.Error != nil {
			return 0, 0, internal("Failed to expire overdue assignments", res.Error)
		}
		expired = int(res.RowsAffected)
	}

	var approaching []models.ReviewAssignment
	if err := s.db.
		Where("status = ? AND deadline >= ? AND deadline < ?", models.AssignmentPending, now, now.Add(warningWindow)).
		Order("assignment_id ASC").
		Find(&approaching).Error; err != nil {
		return expired, 0, internal("Failed to load assignments nearing deadline", err)
	}

	byReviewer := make(map[uint][]uint)
	for _, assignment := range approaching {
		byReviewer[assignment.ReviewerUserID] = append(byReviewer[assignment.ReviewerUserID], assignment.AssignmentID)
	}
	for reviewerID, assignmentIDs := range byReviewer {
		s.notifier.NotifyDeadlineWarning(reviewerID, assignmentIDs)
		warned++
	}

	return expired, warned, nil
}
