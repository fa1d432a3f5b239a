package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"peer-review-api/config"
	"peer-review-api/metrics"
	"peer-review-api/models"
	"peer-review-api/utils"

	"gorm.io/gorm"
)

// ReviewService validates and records reviews, one per assignment, and tracks
// submission completion to trigger score aggregation.
type ReviewService struct {
	db       *gorm.DB
	settings config.ReviewSettings
}

func NewReviewService(db *gorm.DB, settings config.ReviewSettings) *ReviewService {
	if db == nil {
		db = config.DB
	}
	return &ReviewService{db: db, settings: settings}
}

// ReviewPayload is the body of a review: either all four criterion scores or
// a binary decision, plus an optional comment.
type ReviewPayload struct {
	Clarity    *int    `json:"clarity"`
	Argument   *int    `json:"argument"`
	Style      *int    `json:"style"`
	MoralDepth *int    `json:"moral_depth"`
	Decision   *string `json:"decision"`
	Comment    string  `json:"comment"`
}

// Validate runs the submission-side checks in order and returns the
// assignment when the reviewer may file a review for it. Each failing branch
// carries a reason string that is surfaced to the end user directly.
func (s *ReviewService) Validate(assignmentID, reviewerID uint) (*models.ReviewAssignment, error) {
	return s.validate(s.db, assignmentID, reviewerID, time.Now())
}

func (s *ReviewService) validate(db *gorm.DB, assignmentID, reviewerID uint, now time.Time) (*models.ReviewAssignment, error) {
	var assignment models.ReviewAssignment
	if err := db.Preload("Submission").First(&assignment, assignmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Assignment not found")
		}
		return nil, internal("Failed to load assignment", err)
	}

	if assignment.ReviewerUserID != reviewerID {
		return nil, forbidden("You do not own this assignment")
	}

	if assignment.Status != models.AssignmentPending {
		return nil, conflict("Assignment has already been completed or expired")
	}

	if assignment.IsOverdue(now) {
		return nil, conflict("Assignment has expired")
	}

	var existing int64
	if err := db.Model(&models.PeerReview{}).
		Where("assignment_id = ?", assignmentID).
		Count(&existing).Error; err != nil {
		return nil, internal("Failed to check existing reviews", err)
	}
	if existing > 0 {
		return nil, conflict("You have already submitted a review for this assignment")
	}

	// Defense in depth: the balancer never pairs an owner with their own
	// submission, but a manual reassignment bug would surface here.
	if assignment.Submission != nil && assignment.Submission.UserID == reviewerID {
		return nil, forbidden("Cannot review your own submission")
	}

	return &assignment, nil
}

func validatePayload(payload ReviewPayload) error {
	if len(payload.Comment) > models.MaxReviewCommentLength {
		return invalid("Comment must be 100 characters or fewer")
	}

	scores := []*int{payload.Clarity, payload.Argument, payload.Style, payload.MoralDepth}
	provided := 0
	for _, score := range scores {
		if score == nil {
			continue
		}
		provided++
		if *score < 1 || *score > 5 {
			return invalid("Criterion scores must be between 1 and 5")
		}
	}

	switch {
	case payload.Decision != nil:
		if provided > 0 {
			return invalid("A review is either criterion scores or a decision, not both")
		}
		decision := strings.ToUpper(strings.TrimSpace(*payload.Decision))
		if decision != models.ReviewDecisionEliminate && decision != models.ReviewDecisionReinstate {
			return invalid("Decision must be either ELIMINATE or REINSTATE")
		}
	case provided == 4:
		// multi-criterion mode
	case provided == 0:
		return invalid("A review requires either criterion scores or a decision")
	default:
		return invalid("All four criterion scores are required")
	}

	return nil
}

// Submit records the review and flips the assignment to DONE in one
// transaction. Validation re-runs inside the transaction, and the unique
// constraint on reviews.assignment_id closes the remaining race between two
// concurrent submitters. On full completion of the submission's assignments,
// score aggregation is dispatched asynchronously; its failure is logged and
// recoverable by re-triggering, never surfaced to the reviewer.
func (s *ReviewService) Submit(assignmentID, reviewerID uint, payload ReviewPayload) (*models.PeerReview, error) {
	if err := validatePayload(payload); err != nil {
		return nil, err
	}

	now := time.Now()
	var review models.PeerReview
	var submissionID uint

	err := s.db.Transaction(func(tx *gorm.DB) error {
		assignment, err := s.validate(tx, assignmentID, reviewerID, now)
		if err != nil {
			return err
		}
		submissionID = assignment.SubmissionID

		review = models.PeerReview{
			AssignmentID: assignmentID,
			Clarity:      payload.Clarity,
			Argument:     payload.Argument,
			Style:        payload.Style,
			MoralDepth:   payload.MoralDepth,
			Comment:      utils.SanitizeInput(payload.Comment),
			CreatedAt:    now,
		}
		if payload.Decision != nil {
			decision := strings.ToUpper(strings.TrimSpace(*payload.Decision))
			review.Decision = &decision
		}
		if err := tx.Create(&review).Error; err != nil {
			if isDuplicateKey(err) {
				return conflict("You have already submitted a review for this assignment")
			}
			return internal("Failed to save review", err)
		}

		if err := tx.Model(&models.ReviewAssignment{}).
			Where("assignment_id = ? AND status = ?", assignmentID, models.AssignmentPending).
			Updates(map[string]interface{}{
				"status":       models.AssignmentDone,
				"completed_at": now,
			}).Error; err != nil {
			return internal("Failed to update assignment", err)
		}
		return nil
	})
	if err != nil {
		var se *ServiceError
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, internal("Failed to record review", err)
	}

	metrics.ReviewsSubmitted.Inc()

	complete, err := s.IsComplete(submissionID)
	if err != nil {
		log.Printf("Completion check for submission %d failed: %v", submissionID, err)
		return &review, nil
	}
	if complete {
		scoring := NewScoringService(s.db, s.settings)
		go func() {
			if _, err := scoring.Aggregate(submissionID); err != nil {
				log.Printf("Score aggregation for submission %d failed (retryable): %v", submissionID, err)
			}
		}()
	}

	return &review, nil
}

// IsComplete reports whether every assignment of the submission is DONE.
// Idempotent by construction: it only reads terminal state, so re-invoking it
// after a failed aggregation re-triggers the same computation.
func (s *ReviewService) IsComplete(submissionID uint) (bool, error) {
	var total, done int64
	if err := s.db.Model(&models.ReviewAssignment{}).
		Where("submission_id = ?", submissionID).
		Count(&total).Error; err != nil {
		return false, internal("Failed to count assignments", err)
	}
	if total == 0 {
		return false, nil
	}
	if err := s.db.Model(&models.ReviewAssignment{}).
		Where("submission_id = ? AND status = ?", submissionID, models.AssignmentDone).
		Count(&done).Error; err != nil {
		return false, internal("Failed to count completed assignments", err)
	}
	return done == total, nil
}

// OverdueAssignments returns pending assignments whose deadline has passed.
// The deadline sweep expires exactly this set.
func (s *ReviewService) OverdueAssignments(now time.Time) ([]models.ReviewAssignment, error) {
	var overdue []models.ReviewAssignment
	if err := s.db.
		Where("status = ? AND deadline < ?", models.AssignmentPending, now).
		Order("assignment_id ASC").
		Find(&overdue).Error; err != nil {
		return nil, internal("Failed to load overdue assignments", err)
	}
	return overdue, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "duplicate key")
}
