package services

import (
	"errors"
	"log"
	"time"

	"peer-review-api/config"
	"peer-review-api/models"

	"gorm.io/gorm"
)

// Integrity deltas. Control items score against the known AI decision,
// contested items against the round's majority.
const (
	deltaControlMatch    = 10
	deltaControlMismatch = -5
	deltaMajorityMatch   = 5
	deltaMinorityPenalty = -3
)

// IntegrityService maintains each reviewer's reputation score and their
// qualified-evaluator status from the reviews they filed in finished rounds.
type IntegrityService struct {
	db       *gorm.DB
	settings config.ReviewSettings
}

func NewIntegrityService(db *gorm.DB, settings config.ReviewSettings) *IntegrityService {
	if db == nil {
		db = config.DB
	}
	return &IntegrityService{db: db, settings: settings}
}

// majorityDecision picks the side integrity scoring treats as the majority.
// Note the deliberate mismatch with the verdict rule: a 60% reinstate vote
// yields AI_DECISION_UPHELD as the verdict yet counts reinstate voters as the
// majority here. Preserved as-is pending a stakeholder policy decision.
func majorityDecision(reinstatePct float64) string {
	if reinstatePct > 50 {
		return models.ReviewDecisionReinstate
	}
	return models.ReviewDecisionEliminate
}

// integrityDelta computes the reputation adjustment for one review.
// aiDecision is the ground truth for control items (nil means no ground
// truth, which scores zero). For contested items the reviewer's own side
// share decides whether dissent is penalized: below the threshold it costs
// points, at or above it is treated as reasonable disagreement.
func integrityDelta(contested bool, aiDecision *string, decision string, reinstatePct, eliminatePct float64, settings config.ReviewSettings) float64 {
	if !contested {
		if aiDecision == nil {
			return 0
		}
		correct := models.ReviewDecisionReinstate
		if *aiDecision == models.AIDecisionFailed {
			correct = models.ReviewDecisionEliminate
		}
		if decision == correct {
			return deltaControlMatch
		}
		return deltaControlMismatch
	}

	if decision == majorityDecision(reinstatePct) {
		return deltaMajorityMatch
	}

	ownShare := eliminatePct
	if decision == models.ReviewDecisionReinstate {
		ownShare = reinstatePct
	}
	if ownShare < settings.MinorityPenaltyBelow {
		return deltaMinorityPenalty
	}
	return 0
}

// ScoreSubmissionRound applies integrity deltas for every not-yet-scored
// review of a finished verification round. Each review contributes exactly
// once; the increment happens at the store so overlapping rounds touching the
// same reviewer cannot lose updates.
func (s *IntegrityService) ScoreSubmissionRound(submissionID uint) (int, error) {
	var result models.PeerReviewResult
	if err := s.db.Where("submission_id = ?", submissionID).First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, conflict("Submission has no verdict to score reviewers against")
		}
		return 0, internal("Failed to load verdict", err)
	}

	var submission models.Submission
	if err := s.db.First(&submission, submissionID).Error; err != nil {
		return 0, internal("Failed to load submission", err)
	}

	var reviews []models.PeerReview
	if err := s.db.Preload("Assignment").
		Joins("JOIN assignments ON assignments.assignment_id = reviews.assignment_id").
		Where("assignments.submission_id = ? AND assignments.status = ?", submissionID, models.AssignmentDone).
		Where("reviews.decision IS NOT NULL AND reviews.integrity_scored_at IS NULL").
		Order("reviews.review_id ASC").
		Find(&reviews).Error; err != nil {
		return 0, internal("Failed to load reviews", err)
	}

	scored := 0
	now := time.Now()
	for _, review := range reviews {
		if review.Assignment == nil || review.Decision == nil {
			continue
		}
		reviewerID := review.Assignment.ReviewerUserID
		delta := integrityDelta(result.Contested, submission.AIDecision, *review.Decision,
			result.ReinstatePercent, result.EliminatePercent, s.settings)

		err := s.db.Transaction(func(tx *gorm.DB) error {
			if delta != 0 {
				if err := tx.Model(&models.User{}).
					Where("user_id = ?", reviewerID).
					UpdateColumn("integrity_score", gorm.Expr("integrity_score + ?", delta)).Error; err != nil {
					return err
				}
			}
			return tx.Model(&models.PeerReview{}).
				Where("review_id = ? AND integrity_scored_at IS NULL", review.ReviewID).
				Update("integrity_scored_at", now).Error
		})
		if err != nil {
			return scored, internal("Failed to apply integrity delta", err)
		}
		scored++

		if err := s.RecalculateQualification(reviewerID); err != nil {
			log.Printf("Integrity: qualification recalc for reviewer %d failed: %v", reviewerID, err)
		}
	}

	return scored, nil
}

// RecalculateQualification re-derives the qualified-evaluator flag and the
// admin-review marker from the reviewer's current standing, persisting only
// on change.
func (s *IntegrityService) RecalculateQualification(reviewerID uint) error {
	var user models.User
	if err := s.db.First(&user, reviewerID).Error; err != nil {
		return internal("Failed to load reviewer", err)
	}

	var completed int64
	if err := s.db.Model(&models.ReviewAssignment{}).
		Where("reviewer_user_id = ? AND status = ?", reviewerID, models.AssignmentDone).
		Count(&completed).Error; err != nil {
		return internal("Failed to count completed assignments", err)
	}

	qualified := completed >= s.settings.QualifiedMinReviews && user.IntegrityScore >= 0
	flagged := user.IntegrityScore < s.settings.IntegrityFlagBelow

	updates := map[string]interface{}{}
	if qualified != user.QualifiedEvaluator {
		updates["qualified_evaluator"] = qualified
		if qualified {
			log.Printf("Integrity: reviewer %d granted qualified evaluator status (score %.1f, %d completed)",
				reviewerID, user.IntegrityScore, completed)
		} else {
			log.Printf("Integrity: reviewer %d lost qualified evaluator status (score %.1f, %d completed)",
				reviewerID, user.IntegrityScore, completed)
		}
	}
	if flagged != user.IntegrityFlagged {
		updates["integrity_flagged"] = flagged
		if flagged {
			// Marker only; banning stays a human decision.
			log.Printf("Integrity: reviewer %d flagged for manual admin review (score %.1f)", reviewerID, user.IntegrityScore)
		}
	}
	if len(updates) == 0 {
		return nil
	}

	if err := s.db.Model(&models.User{}).
		Where("user_id = ?", reviewerID).
		Updates(updates).Error; err != nil {
		return internal("Failed to update reviewer status", err)
	}
	return nil
}
