package models

import "time"

// Verdict decisions written after a submission's round completes.
const (
	VerdictReinstated          = "REINSTATED"
	VerdictEliminatedConfirmed = "ELIMINATED_CONFIRMED"
	VerdictAIDecisionUpheld    = "AI_DECISION_UPHELD"
)

// PeerReviewResult is the verdict record attached to a submission once its
// review round completes. Written once per round; an admin override mutates
// the decision but keeps the computed original for audit.
type PeerReviewResult struct {
	ResultID            uint       `gorm:"primaryKey;column:result_id" json:"result_id"`
	SubmissionID        uint       `gorm:"column:submission_id;unique" json:"submission_id"`
	Decision            string     `gorm:"column:decision" json:"decision"`
	ReinstateVotes      int        `gorm:"column:reinstate_votes" json:"reinstate_votes"`
	EliminateVotes      int        `gorm:"column:eliminate_votes" json:"eliminate_votes"`
	ReinstatePercent    float64    `gorm:"column:reinstate_percent" json:"reinstate_percent"`
	EliminatePercent    float64    `gorm:"column:eliminate_percent" json:"eliminate_percent"`
	// Contested records whether the submission was still awaiting peer
	// verification when the round completed. A non-contested item with a
	// known AI decision is a control item for integrity scoring.
	Contested           bool       `gorm:"column:contested" json:"contested"`
	CriterionAverages   *string    `gorm:"column:criterion_averages" json:"criterion_averages,omitempty"` // json: criterion -> mean
	Message             string     `gorm:"column:message" json:"message"`
	CompletedAt         time.Time  `gorm:"column:completed_at" json:"completed_at"`
	OverriddenBy        *int       `gorm:"column:overridden_by" json:"overridden_by,omitempty"`
	OverrideReason      *string    `gorm:"column:override_reason" json:"override_reason,omitempty"`
	OriginalDecision    *string    `gorm:"column:original_decision" json:"original_decision,omitempty"`
	OverriddenAt        *time.Time `gorm:"column:overridden_at" json:"overridden_at,omitempty"`
	FlaggedForReentry   bool       `gorm:"column:flagged_for_reentry" json:"flagged_for_reentry"`
}

func (PeerReviewResult) TableName() string {
	return "peer_review_results"
}
