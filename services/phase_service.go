package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"peer-review-api/config"
	"peer-review-api/metrics"
	"peer-review-api/models"

	"gorm.io/gorm"
)

// PhaseService runs the phase-end orchestration that closes a review round.
type PhaseService struct {
	db        *gorm.DB
	settings  config.ReviewSettings
	scoring   *ScoringService
	integrity *IntegrityService
	notifier  *NotificationService
}

func NewPhaseService(db *gorm.DB, settings config.ReviewSettings) *PhaseService {
	if db == nil {
		db = config.DB
	}
	return &PhaseService{
		db:        db,
		settings:  settings,
		scoring:   NewScoringService(db, settings),
		integrity: NewIntegrityService(db, settings),
		notifier:  NewNotificationService(db),
	}
}

// RoundEndResult reports per-step counts so an operator can tell exactly how
// far a failed run got. Phase transition is the last state change, so a run
// that errors out leaves the contest still reviewable and safe to retry.
type RoundEndResult struct {
	ContestID               uint     `json:"contest_id"`
	ScoresFinalized         int      `json:"scores_finalized"`
	ReviewersChecked        int      `json:"reviewers_checked"`
	ReviewersDisqualified   int      `json:"reviewers_disqualified"`
	SubmissionsDisqualified int      `json:"submissions_disqualified"`
	Finalists               int      `json:"finalists"`
	PhaseBefore             string   `json:"phase_before"`
	PhaseAfter              string   `json:"phase_after"`
	Errors                  []string `json:"errors,omitempty"`
}

type finalistPick struct {
	SubmissionID uint
	UserID       uint
	Rank         int
}

// rankFinalists orders candidates by peer score descending, submission id
// ascending as the tie-break, and returns the top limit with dense ranks
// starting at 1.
func rankFinalists(candidates []models.Submission, limit int) []finalistPick {
	ranked := make([]models.Submission, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.ScorePeer != nil {
			ranked = append(ranked, candidate)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if *ranked[i].ScorePeer != *ranked[j].ScorePeer {
			return *ranked[i].ScorePeer > *ranked[j].ScorePeer
		}
		return ranked[i].SubmissionID < ranked[j].SubmissionID
	})
	if limit < len(ranked) {
		ranked = ranked[:limit]
	}

	picks := make([]finalistPick, len(ranked))
	for i, submission := range ranked {
		picks[i] = finalistPick{
			SubmissionID: submission.SubmissionID,
			UserID:       submission.UserID,
			Rank:         i + 1,
		}
	}
	return picks
}

// EndRound closes the review round of a contest: finalize scores, punish
// reviewers who missed their quota, select finalists, advance the phase, then
// notify. Steps 1-4 abort the run on error; step 5 is best-effort.
func (s *PhaseService) EndRound(contestID uint, actorID int, ipAddress string) (*RoundEndResult, error) {
	result := &RoundEndResult{ContestID: contestID}

	var contest models.Contest
	if err := s.db.First(&contest, contestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return result, notFound("Contest not found")
		}
		return result, internal("Failed to load contest", err)
	}
	result.PhaseBefore = contest.Phase
	result.PhaseAfter = contest.Phase
	if contest.Phase != models.PhasePeerReview {
		return result, conflict("Contest is not in the peer review phase")
	}

	fail := func(step string, err error) (*RoundEndResult, error) {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", step, err))
		metrics.RoundsEnded.WithLabelValues("failed").Inc()
		log.Printf("End round %d aborted at %s: %v", contestID, step, err)
		return result, err
	}

	// Step 1: finalize scores for every submission with at least one
	// completed review, then settle reviewer integrity for finished
	// verification rounds. Both are idempotent.
	submissionIDs, err := s.submissionsWithCompletedReviews(contestID)
	if err != nil {
		return fail("finalize_scores", err)
	}
	for _, submissionID := range submissionIDs {
		if _, err := s.scoring.Aggregate(submissionID); err != nil {
			return fail("finalize_scores", err)
		}
		if _, err := s.integrity.ScoreSubmissionRound(submissionID); err != nil {
			if KindOf(err) != KindConflict { // criterion-mode rounds have no verdict
				return fail("integrity_scoring", err)
			}
		}
		result.ScoresFinalized++
	}
	log.Printf("End round %d: finalized scores for %d submissions", contestID, result.ScoresFinalized)

	// Step 2: disqualify every reviewer who completed fewer reviews than
	// assigned. Only still-eligible submissions transition, so a re-run
	// cannot double-penalize or double-count.
	disqualifiedUsers, submissionsHit, checked, err := s.enforceObligations(contestID, actorID)
	if err != nil {
		return fail("enforce_obligations", err)
	}
	result.ReviewersChecked = checked
	result.ReviewersDisqualified = len(disqualifiedUsers)
	result.SubmissionsDisqualified = submissionsHit
	log.Printf("End round %d: checked %d reviewers, disqualified %d (%d submissions)",
		contestID, checked, len(disqualifiedUsers), submissionsHit)

	// Step 3: rank and select finalists. FINALIST is included in the
	// candidate set so a retry after a crash between steps 3 and 4 re-ranks
	// the same pool instead of promoting extras.
	finalists, err := s.selectFinalists(contestID)
	if err != nil {
		return fail("select_finalists", err)
	}
	result.Finalists = len(finalists)
	log.Printf("End round %d: selected %d finalists", contestID, len(finalists))

	// Step 4: advance the phase. Deliberately the last state change.
	nextPhase := models.NextPhase(contest.Phase)
	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Contest{}).
			Where("contest_id = ?", contestID).
			Updates(map[string]interface{}{"phase": nextPhase, "updated_at": now}).Error; err != nil {
			return err
		}
		summary, _ := json.Marshal(result)
		contestRef := int(contestID)
		audit := models.AuditLog{
			UserID:      actorID,
			Action:      "end_round",
			EntityType:  "contest",
			EntityID:    &contestRef,
			OldValues:   strPtr(fmt.Sprintf(`{"phase":"%s"}`, contest.Phase)),
			NewValues:   strPtr(string(summary)),
			Description: strPtr(fmt.Sprintf("Review round ended, phase %s -> %s", contest.Phase, nextPhase)),
			IPAddress:   ipAddress,
			CreatedAt:   now,
		}
		return tx.Create(&audit).Error
	})
	if err != nil {
		return fail("phase_transition", err)
	}
	result.PhaseAfter = nextPhase
	metrics.RoundsEnded.WithLabelValues("ok").Inc()
	log.Printf("End round %d: phase %s -> %s", contestID, contest.Phase, nextPhase)

	// Step 5: best-effort notification fan-out. Never blocks or fails the
	// orchestration.
	go func() {
		for _, userID := range disqualifiedUsers {
			s.notifier.NotifyDisqualified(userID)
		}
		for _, pick := range finalists {
			s.notifier.NotifyFinalist(pick.UserID, pick.SubmissionID, pick.Rank)
		}
	}()

	return result, nil
}

func (s *PhaseService) submissionsWithCompletedReviews(contestID uint) ([]uint, error) {
	var ids []uint
	if err := s.db.Model(&models.ReviewAssignment{}).
		Distinct("assignments.submission_id").
		Joins("JOIN submissions ON submissions.submission_id = assignments.submission_id").
		Where("submissions.contest_id = ? AND assignments.status = ?", contestID, models.AssignmentDone).
		Order("assignments.submission_id ASC").
		Pluck("assignments.submission_id", &ids).Error; err != nil {
		return nil, internal("Failed to list reviewed submissions", err)
	}
	return ids, nil
}

type reviewerLoad struct {
	ReviewerUserID uint  `gorm:"column:reviewer_user_id"`
	Assigned       int64 `gorm:"column:assigned"`
	Completed      int64 `gorm:"column:completed"`
}

func (s *PhaseService) enforceObligations(contestID uint, actorID int) (disqualified []uint, submissionsHit, checked int, err error) {
	var loads []reviewerLoad
	if err = s.db.Model(&models.ReviewAssignment{}).
		Select("assignments.reviewer_user_id, COUNT(*) AS assigned, COUNT(assignments.completed_at) AS completed").
		Joins("JOIN submissions ON submissions.submission_id = assignments.submission_id").
		Where("submissions.contest_id = ?", contestID).
		Group("assignments.reviewer_user_id").
		Order("assignments.reviewer_user_id ASC").
		Find(&loads).Error; err != nil {
		return nil, 0, 0, internal("Failed to compute reviewer obligations", err)
	}

	checked = len(loads)
	for _, load := range loads {
		if load.Completed >= load.Assigned {
			continue
		}

		var hit int
		err = s.db.Transaction(func(tx *gorm.DB) error {
			var targets []models.Submission
			if err := tx.
				Where("contest_id = ? AND user_id = ? AND status IN ?",
					contestID, load.ReviewerUserID, models.EligibleSubmissionStatuses()).
				Find(&targets).Error; err != nil {
				return err
			}
			if len(targets) == 0 {
				return nil
			}

			ids := make([]uint, len(targets))
			for i, target := range targets {
				ids[i] = target.SubmissionID
			}
			if err := tx.Model(&models.Submission{}).
				Where("submission_id IN ?", ids).
				Update("status", models.SubmissionDisqualified).Error; err != nil {
				return err
			}

			reason := fmt.Sprintf("Reviewer completed %d of %d assigned reviews", load.Completed, load.Assigned)
			for _, target := range targets {
				oldStatus := target.Status
				history := models.SubmissionStatusHistory{
					SubmissionID: target.SubmissionID,
					OldStatus:    &oldStatus,
					NewStatus:    models.SubmissionDisqualified,
					ChangedBy:    actorID,
					Reason:       &reason,
					CreatedAt:    time.Now(),
				}
				if err := tx.Create(&history).Error; err != nil {
					return err
				}
			}
			hit = len(targets)
			return nil
		})
		if err != nil {
			return disqualified, submissionsHit, checked, internal("Failed to disqualify reviewer submissions", err)
		}

		if hit > 0 {
			disqualified = append(disqualified, load.ReviewerUserID)
			submissionsHit += hit
		}
	}
	return disqualified, submissionsHit, checked, nil
}

func (s *PhaseService) selectFinalists(contestID uint) ([]finalistPick, error) {
	candidateStatuses := append(models.EligibleSubmissionStatuses(), models.SubmissionFinalist)
	var candidates []models.Submission
	if err := s.db.
		Where("contest_id = ? AND status IN ? AND score_peer IS NOT NULL", contestID, candidateStatuses).
		Find(&candidates).Error; err != nil {
		return nil, internal("Failed to load finalist candidates", err)
	}

	picks := rankFinalists(candidates, s.settings.FinalistCount)
	if len(picks) == 0 {
		return picks, nil
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, pick := range picks {
			if err := tx.Model(&models.Submission{}).
				Where("submission_id = ?", pick.SubmissionID).
				Updates(map[string]interface{}{
					"status":        models.SubmissionFinalist,
					"finalist_rank": pick.Rank,
				}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, internal("Failed to persist finalists", err)
	}
	return picks, nil
}
