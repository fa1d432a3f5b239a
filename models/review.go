package models

import "time"

// Review decisions in verification mode.
const (
	ReviewDecisionEliminate = "ELIMINATE"
	ReviewDecisionReinstate = "REINSTATE"
)

// MaxReviewCommentLength bounds the free-text comment on a review.
const MaxReviewCommentLength = 100

// PeerReview is the payload a reviewer files against exactly one assignment.
// The assignment_id column carries a unique constraint so a second submit for
// the same assignment fails at the store even under concurrent retries.
// Reviews are append-only; there is no update path.
type PeerReview struct {
	ReviewID     uint      `gorm:"primaryKey;column:review_id" json:"review_id"`
	AssignmentID uint      `gorm:"column:assignment_id;unique" json:"assignment_id"`
	Clarity      *int      `gorm:"column:clarity" json:"clarity,omitempty"`
	Argument     *int      `gorm:"column:argument" json:"argument,omitempty"`
	Style        *int      `gorm:"column:style" json:"style,omitempty"`
	MoralDepth   *int      `gorm:"column:moral_depth" json:"moral_depth,omitempty"`
	Decision     *string   `gorm:"column:decision" json:"decision,omitempty"`
	Comment      string    `gorm:"column:comment" json:"comment"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`

	// IntegrityScoredAt marks that this review already contributed to its
	// reviewer's integrity score, so overlapping round-end runs cannot apply
	// the same delta twice.
	IntegrityScoredAt *time.Time `gorm:"column:integrity_scored_at" json:"-"`

	// Relations
	Assignment *ReviewAssignment `gorm:"foreignKey:AssignmentID;references:AssignmentID" json:"assignment,omitempty"`
}

func (PeerReview) TableName() string {
	return "reviews"
}

// CriterionScores returns the four criterion ratings when the review was
// filed in multi-criterion mode, or false when it is a binary-decision review.
func (r *PeerReview) CriterionScores() ([4]int, bool) {
	if r.Clarity == nil || r.Argument == nil || r.Style == nil || r.MoralDepth == nil {
		return [4]int{}, false
	}
	return [4]int{*r.Clarity, *r.Argument, *r.Style, *r.MoralDepth}, true
}
