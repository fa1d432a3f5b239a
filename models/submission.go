package models

import "time"

// Submission lifecycle statuses. Only SUBMITTED and REINSTATED submissions
// are eligible for review assignment.
const (
	SubmissionSubmitted      = "SUBMITTED"
	SubmissionReinstated     = "REINSTATED"
	SubmissionDisqualified   = "DISQUALIFIED"
	SubmissionEliminated     = "ELIMINATED"
	SubmissionPendingVerdict = "PEER_VERIFICATION_PENDING"
	SubmissionFinalist       = "FINALIST"
)

// AI screening outcomes, supplied read-only by the screening collaborator.
const (
	AIDecisionPassed = "PASSED"
	AIDecisionFailed = "FAILED"
)

// Submission represents the submissions table
type Submission struct {
	SubmissionID uint       `gorm:"primaryKey;column:submission_id" json:"submission_id"`
	ContestID    uint       `gorm:"column:contest_id" json:"contest_id"`
	UserID       uint       `gorm:"column:user_id" json:"user_id"`
	Status       string     `gorm:"column:status" json:"status"`
	ScorePeer    *float64   `gorm:"column:score_peer" json:"score_peer"`
	FinalistRank *int       `gorm:"column:finalist_rank" json:"finalist_rank,omitempty"`
	AIDecision   *string    `gorm:"column:ai_decision" json:"ai_decision,omitempty"`
	BodyText     string     `gorm:"column:body_text" json:"body_text"`
	CreatedAt    time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    *time.Time `gorm:"column:updated_at" json:"updated_at"`

	// Relations
	User   *User             `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
	Result *PeerReviewResult `gorm:"foreignKey:SubmissionID;references:SubmissionID" json:"result,omitempty"`
}

func (Submission) TableName() string {
	return "submissions"
}

// IsEligible reports whether the submission can enter a review round.
func (s *Submission) IsEligible() bool {
	return s.Status == SubmissionSubmitted || s.Status == SubmissionReinstated
}

// EligibleSubmissionStatuses lists the statuses that qualify for review.
func EligibleSubmissionStatuses() []string {
	return []string{SubmissionSubmitted, SubmissionReinstated}
}
