package services

import (
	"errors"

	"peer-review-api/config"
	"peer-review-api/models"

	"gorm.io/gorm"
)

// EligibilityService resolves which submissions can be reviewed and which
// users may review them for a given contest. Pure reads, no side effects.
type EligibilityService struct {
	db *gorm.DB
}

func NewEligibilityService(db *gorm.DB) *EligibilityService {
	if db == nil {
		db = config.DB
	}
	return &EligibilityService{db: db}
}

// EligibleSubmissions returns the SUBMITTED/REINSTATED submissions of the
// contest. An empty result is not an error; callers must treat it as a
// distinct, non-fatal condition.
func (s *EligibilityService) EligibleSubmissions(contestID uint) ([]models.Submission, error) {
	if err := s.contestExists(contestID); err != nil {
		return nil, err
	}

	var submissions []models.Submission
	if err := s.db.
		Where("contest_id = ? AND status IN ?", contestID, models.EligibleSubmissionStatuses()).
		Order("submission_id ASC").
		Find(&submissions).Error; err != nil {
		return nil, internal("Failed to load submissions", err)
	}
	return submissions, nil
}

// EligibleReviewers returns the ids of users who own at least one eligible
// submission in the contest and are not banned. Derived, never stored.
func (s *EligibilityService) EligibleReviewers(contestID uint) ([]uint, error) {
	if err := s.contestExists(contestID); err != nil {
		return nil, err
	}

	var reviewerIDs []uint
	if err := s.db.Model(&models.Submission{}).
		Distinct("submissions.user_id").
		Joins("JOIN users ON users.user_id = submissions.user_id").
		Where("submissions.contest_id = ? AND submissions.status IN ?", contestID, models.EligibleSubmissionStatuses()).
		Where("users.is_banned = ? AND users.delete_at IS NULL", false).
		Order("submissions.user_id ASC").
		Pluck("submissions.user_id", &reviewerIDs).Error; err != nil {
		return nil, internal("Failed to load reviewers", err)
	}
	return reviewerIDs, nil
}

func (s *EligibilityService) contestExists(contestID uint) error {
	var contest models.Contest
	if err := s.db.Select("contest_id").First(&contest, contestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("Contest not found")
		}
		return internal("Failed to load contest", err)
	}
	return nil
}
