package models

import "time"

// Contest phases relevant to the review engine. The phase advances exactly
// once per round, as the last step of ending a round.
const (
	PhaseSubmission   = "SUBMISSION"
	PhaseAIScreening  = "AI_SCREENING"
	PhasePeerReview   = "PEER_REVIEW"
	PhasePublicVoting = "PUBLIC_VOTING"
	PhaseClosed       = "CLOSED"
)

// Contest represents the contests table
type Contest struct {
	ContestID uint       `gorm:"primaryKey;column:contest_id" json:"contest_id"`
	Title     string     `gorm:"column:title" json:"title"`
	Phase     string     `gorm:"column:phase" json:"phase"`
	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt *time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Contest) TableName() string {
	return "contests"
}

// NextPhase returns the phase that follows the given one.
func NextPhase(phase string) string {
	switch phase {
	case PhaseSubmission:
		return PhaseAIScreening
	case PhaseAIScreening:
		return PhasePeerReview
	case PhasePeerReview:
		return PhasePublicVoting
	default:
		return PhaseClosed
	}
}
