package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"peer-review-api/config"
	"peer-review-api/metrics"
	"peer-review-api/models"

	"gorm.io/gorm"
)

// ScoringService aggregates a submission's completed reviews into a peer
// score and, in verification mode, a verdict. Idempotent: recomputing from
// the same DONE-set always yields the same result, so concurrent or repeated
// triggers are harmless.
type ScoringService struct {
	db       *gorm.DB
	settings config.ReviewSettings
	notifier *NotificationService
}

func NewScoringService(db *gorm.DB, settings config.ReviewSettings) *ScoringService {
	if db == nil {
		db = config.DB
	}
	return &ScoringService{db: db, settings: settings, notifier: NewNotificationService(db)}
}

// CriterionAverages holds the per-criterion means in a fixed field order so
// the serialized verdict is byte-stable across runs.
type CriterionAverages struct {
	Clarity    float64 `json:"clarity"`
	Argument   float64 `json:"argument"`
	Style      float64 `json:"style"`
	MoralDepth float64 `json:"moral_depth"`
}

// AggregateOutcome summarizes one aggregation run.
type AggregateOutcome struct {
	SubmissionID     uint               `json:"submission_id"`
	Reviews          int                `json:"reviews"`
	ReinstateVotes   int                `json:"reinstate_votes"`
	EliminateVotes   int                `json:"eliminate_votes"`
	ReinstatePercent float64            `json:"reinstate_percent"`
	EliminatePercent float64            `json:"eliminate_percent"`
	Decision         string             `json:"decision,omitempty"`
	ScorePeer        *float64           `json:"score_peer,omitempty"`
	Averages         *CriterionAverages `json:"averages,omitempty"`
}

// trimmedMean averages the values after dropping one minimum and one maximum,
// provided at least five ratings exist; below that it is the plain mean.
// Trimming dampens a single outlier rater without discarding small samples.
func trimmedMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum, min, max := 0.0, values[0], values[0]
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if len(values) < 5 {
		return sum / float64(len(values))
	}
	return (sum - min - max) / float64(len(values)-2)
}

// tallyVotes counts binary decisions and derives percentages over the votes
// actually cast. Expired or abstaining assignments never enter the
// denominator.
func tallyVotes(decisions []string) (reinstate, eliminate int, reinstatePct, eliminatePct float64) {
	for _, decision := range decisions {
		switch decision {
		case models.ReviewDecisionReinstate:
			reinstate++
		case models.ReviewDecisionEliminate:
			eliminate++
		}
	}
	total := reinstate + eliminate
	if total == 0 {
		return
	}
	reinstatePct = float64(reinstate) / float64(total) * 100
	eliminatePct = float64(eliminate) / float64(total) * 100
	return
}

// decideVerdict applies the threshold band: a clear supermajority either way
// wins; anything in between upholds the prior AI decision, which defaults the
// submission to ELIMINATED. The asymmetry toward the status quo is deliberate.
func decideVerdict(reinstatePct, eliminatePct float64, settings config.ReviewSettings) (decision, status string) {
	switch {
	case reinstatePct >= settings.ReinstateThreshold:
		return models.VerdictReinstated, models.SubmissionReinstated
	case eliminatePct >= settings.EliminateThreshold:
		return models.VerdictEliminatedConfirmed, models.SubmissionEliminated
	default:
		return models.VerdictAIDecisionUpheld, models.SubmissionEliminated
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Aggregate computes the peer score and, when binary votes exist, the verdict
// for a submission whose assignments are all DONE. Safe to re-run; an admin
// override on the existing verdict is never clobbered.
func (s *ScoringService) Aggregate(submissionID uint) (*AggregateOutcome, error) {
	var submission models.Submission
	if err := s.db.First(&submission, submissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("Submission not found")
		}
		return nil, internal("Failed to load submission", err)
	}

	var reviews []models.PeerReview
	if err := s.db.
		Joins("JOIN assignments ON assignments.assignment_id = reviews.assignment_id").
		Where("assignments.submission_id = ? AND assignments.status = ?", submissionID, models.AssignmentDone).
		Order("reviews.review_id ASC").
		Find(&reviews).Error; err != nil {
		return nil, internal("Failed to load reviews", err)
	}
	if len(reviews) == 0 {
		return nil, conflict("Submission has no completed reviews to aggregate")
	}

	outcome := &AggregateOutcome{SubmissionID: submissionID, Reviews: len(reviews)}

	var clarity, argument, style, moralDepth []float64
	var decisions []string
	for _, review := range reviews {
		if scores, ok := review.CriterionScores(); ok {
			clarity = append(clarity, float64(scores[0]))
			argument = append(argument, float64(scores[1]))
			style = append(style, float64(scores[2]))
			moralDepth = append(moralDepth, float64(scores[3]))
		}
		if review.Decision != nil {
			decisions = append(decisions, *review.Decision)
		}
	}

	if len(clarity) > 0 {
		averages := &CriterionAverages{
			Clarity:    round2(trimmedMean(clarity)),
			Argument:   round2(trimmedMean(argument)),
			Style:      round2(trimmedMean(style)),
			MoralDepth: round2(trimmedMean(moralDepth)),
		}
		outcome.Averages = averages
		score := round2((averages.Clarity + averages.Argument + averages.Style + averages.MoralDepth) / 4)
		outcome.ScorePeer = &score
	}

	reinstate, eliminate, reinstatePct, eliminatePct := tallyVotes(decisions)
	outcome.ReinstateVotes = reinstate
	outcome.EliminateVotes = eliminate
	outcome.ReinstatePercent = round2(reinstatePct)
	outcome.EliminatePercent = round2(eliminatePct)

	binaryRound := reinstate+eliminate > 0
	var status string
	if binaryRound {
		outcome.Decision, status = decideVerdict(reinstatePct, eliminatePct, s.settings)
	}

	var created bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if outcome.ScorePeer != nil {
			if err := tx.Model(&models.Submission{}).
				Where("submission_id = ?", submissionID).
				Update("score_peer", *outcome.ScorePeer).Error; err != nil {
				return err
			}
		}
		if !binaryRound {
			// Criterion-mode rounds get their outcome at phase end.
			return nil
		}

		var result models.PeerReviewResult
		err := tx.Where("submission_id = ?", submissionID).First(&result).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			result = models.PeerReviewResult{
				SubmissionID: submissionID,
				Contested:    submission.Status == models.SubmissionPendingVerdict,
				CompletedAt:  time.Now(),
			}
		case err != nil:
			return err
		case result.OverriddenBy != nil:
			// An admin override wins over any recomputation.
			outcome.Decision = result.Decision
			return nil
		}

		result.Decision = outcome.Decision
		result.ReinstateVotes = reinstate
		result.EliminateVotes = eliminate
		result.ReinstatePercent = outcome.ReinstatePercent
		result.EliminatePercent = outcome.EliminatePercent
		result.Message = verdictMessage(outcome.Decision, reinstate, eliminate)
		result.FlaggedForReentry = outcome.Decision == models.VerdictReinstated
		if outcome.Averages != nil {
			serialized, _ := json.Marshal(outcome.Averages)
			result.CriterionAverages = strPtr(string(serialized))
		}
		if err := tx.Save(&result).Error; err != nil {
			return err
		}

		return tx.Model(&models.Submission{}).
			Where("submission_id = ?", submissionID).
			Update("status", status).Error
	})
	if err != nil {
		return nil, internal("Failed to save aggregation result", err)
	}

	if binaryRound {
		metrics.AggregationsRun.WithLabelValues(outcome.Decision).Inc()
		if outcome.Decision == models.VerdictReinstated {
			log.Printf("Submission %d reinstated by peer review; flagged for phase re-entry", submissionID)
		}
		if created {
			owner, verdict := submission.UserID, outcome.Decision
			go s.notifier.NotifyVerdict(owner, submissionID, verdict)
		}
	} else {
		metrics.AggregationsRun.WithLabelValues("scored").Inc()
	}

	return outcome, nil
}

func verdictMessage(decision string, reinstate, eliminate int) string {
	total := reinstate + eliminate
	switch decision {
	case models.VerdictReinstated:
		return fmt.Sprintf("Reinstated by peer consensus (%d of %d votes)", reinstate, total)
	case models.VerdictEliminatedConfirmed:
		return fmt.Sprintf("Elimination confirmed by peer consensus (%d of %d votes)", eliminate, total)
	default:
		return fmt.Sprintf("No clear consensus (%d reinstate / %d eliminate); prior decision upheld", reinstate, eliminate)
	}
}
