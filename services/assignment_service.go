package services

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"peer-review-api/config"
	"peer-review-api/metrics"
	"peer-review-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssignmentService builds the balanced reviewer-to-submission assignment
// batch that opens a review round.
type AssignmentService struct {
	db       *gorm.DB
	settings config.ReviewSettings
	notifier *NotificationService
}

func NewAssignmentService(db *gorm.DB, settings config.ReviewSettings) *AssignmentService {
	if db == nil {
		db = config.DB
	}
	return &AssignmentService{
		db:       db,
		settings: settings,
		notifier: NewNotificationService(db),
	}
}

// BatchResult summarizes one assignment batch run.
type BatchResult struct {
	BatchID            string    `json:"batch_id"`
	Reviewers          int       `json:"reviewers"`
	Submissions        int       `json:"submissions"`
	AssignmentsMade    int       `json:"assignments_made"`
	ShortfallReviewers int       `json:"shortfall_reviewers"`
	Deadline           time.Time `json:"deadline"`
}

type reviewCandidate struct {
	SubmissionID uint
	OwnerID      uint
}

type assignmentPair struct {
	ReviewerID   uint
	SubmissionID uint
}

// balanceAssignments distributes up to quota submissions to each reviewer.
// Reviewers are processed in input order; for each one, candidates are sorted
// ascending by accumulated review count with submission id as the tie-break,
// and the first quota entries are taken. A greedy streaming load balance, not
// a globally optimal min-variance solution. Self-review is excluded, as is
// any (reviewer, submission) pair already present in taken.
func balanceAssignments(reviewers []uint, candidates []reviewCandidate, quota int, counts map[uint]int, taken map[assignmentPair]bool) []assignmentPair {
	if counts == nil {
		counts = make(map[uint]int, len(candidates))
	}
	if taken == nil {
		taken = make(map[assignmentPair]bool)
	}

	pairs := make([]assignmentPair, 0, len(reviewers)*quota)
	pool := make([]reviewCandidate, len(candidates))
	copy(pool, candidates)

	for _, reviewer := range reviewers {
		sort.Slice(pool, func(i, j int) bool {
			ci, cj := counts[pool[i].SubmissionID], counts[pool[j].SubmissionID]
			if ci != cj {
				return ci < cj
			}
			return pool[i].SubmissionID < pool[j].SubmissionID
		})

		picked := 0
		for _, candidate := range pool {
			if picked >= quota {
				break
			}
			if candidate.OwnerID == reviewer {
				continue
			}
			pair := assignmentPair{ReviewerID: reviewer, SubmissionID: candidate.SubmissionID}
			if taken[pair] {
				continue
			}
			taken[pair] = true
			counts[candidate.SubmissionID]++
			pairs = append(pairs, pair)
			picked++
		}

		if picked < quota {
			log.Printf("Assignment balancer: reviewer %d received %d of %d assignments (insufficient supply)", reviewer, picked, quota)
		}
	}

	return pairs
}

// CreateBatch resolves eligibility for the contest, balances assignments and
// persists them in one transaction. Reviewer notifications go out
// asynchronously afterwards; a notification failure never rolls the batch back.
func (s *AssignmentService) CreateBatch(contestID uint, actorID int, ipAddress string) (*BatchResult, error) {
	eligibility := NewEligibilityService(s.db)

	submissions, err := eligibility.EligibleSubmissions(contestID)
	if err != nil {
		return nil, err
	}
	reviewers, err := eligibility.EligibleReviewers(contestID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	deadline := now.AddDate(0, 0, s.settings.DeadlineDays)
	batchID := uuid.NewString()

	result := &BatchResult{
		BatchID:     batchID,
		Reviewers:   len(reviewers),
		Submissions: len(submissions),
		Deadline:    deadline,
	}
	if len(submissions) == 0 || len(reviewers) == 0 {
		log.Printf("Assignment batch %s: contest %d has no eligible work (submissions=%d reviewers=%d)",
			batchID, contestID, len(submissions), len(reviewers))
		return result, nil
	}

	candidates := make([]reviewCandidate, 0, len(submissions))
	for _, submission := range submissions {
		if !submission.IsEligible() {
			continue
		}
		candidates = append(candidates, reviewCandidate{
			SubmissionID: submission.SubmissionID,
			OwnerID:      submission.UserID,
		})
	}

	// Seed with assignments that already exist so a re-run of batch creation
	// cannot produce a second active assignment for the same pair.
	counts, taken, err := s.loadActiveAssignments(contestID)
	if err != nil {
		return nil, err
	}

	pairs := balanceAssignments(reviewers, candidates, s.settings.QuotaPerReviewer, counts, taken)
	result.AssignmentsMade = len(pairs)

	perReviewer := make(map[uint]int, len(reviewers))
	assignments := make([]models.ReviewAssignment, 0, len(pairs))
	for _, pair := range pairs {
		perReviewer[pair.ReviewerID]++
		batch := batchID
		assignments = append(assignments, models.ReviewAssignment{
			SubmissionID:   pair.SubmissionID,
			ReviewerUserID: pair.ReviewerID,
			Status:         models.AssignmentPending,
			BatchID:        &batch,
			AssignedAt:     now,
			Deadline:       deadline,
		})
	}
	for _, reviewer := range reviewers {
		if perReviewer[reviewer] < s.settings.QuotaPerReviewer {
			result.ShortfallReviewers++
		}
	}

	if len(assignments) > 0 {
		err = s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.CreateInBatches(assignments, 200).Error; err != nil {
				return err
			}

			auditValues := map[string]interface{}{
				"batch_id":    batchID,
				"assignments": len(assignments),
				"reviewers":   len(reviewers),
				"deadline":    deadline,
			}
			serialized, _ := json.Marshal(auditValues)
			contest := int(contestID)
			audit := models.AuditLog{
				UserID:      actorID,
				Action:      "create_assignment_batch",
				EntityType:  "contest",
				EntityID:    &contest,
				NewValues:   strPtr(string(serialized)),
				Description: strPtr(fmt.Sprintf("Created %d review assignments", len(assignments))),
				IPAddress:   ipAddress,
				CreatedAt:   now,
			}
			return tx.Create(&audit).Error
		})
		if err != nil {
			return nil, internal("Failed to save assignment batch", err)
		}
		metrics.AssignmentsCreated.Add(float64(len(assignments)))
	}

	// Fire-and-forget reviewer notifications.
	go func() {
		for reviewer, count := range perReviewer {
			if count == 0 {
				continue
			}
			s.notifier.NotifyAssigned(reviewer, count, deadline)
		}
	}()

	return result, nil
}

func (s *AssignmentService) loadActiveAssignments(contestID uint) (map[uint]int, map[assignmentPair]bool, error) {
	var active []models.ReviewAssignment
	if err := s.db.
		Joins("JOIN submissions ON submissions.submission_id = assignments.submission_id").
		Where("submissions.contest_id = ? AND assignments.status <> ?", contestID, models.AssignmentExpired).
		Find(&active).Error; err != nil {
		return nil, nil, internal("Failed to load existing assignments", err)
	}

	counts := make(map[uint]int)
	taken := make(map[assignmentPair]bool, len(active))
	for _, assignment := range active {
		counts[assignment.SubmissionID]++
		taken[assignmentPair{ReviewerID: assignment.ReviewerUserID, SubmissionID: assignment.SubmissionID}] = true
	}
	return counts, taken, nil
}

func strPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
