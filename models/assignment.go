package models

import "time"

// Assignment statuses. PENDING is the only live state; DONE and EXPIRED are
// terminal and never transition back.
const (
	AssignmentPending = "PENDING"
	AssignmentDone    = "DONE"
	AssignmentExpired = "EXPIRED"
)

// ReviewAssignment pairs one reviewer with one submission for one round.
type ReviewAssignment struct {
	AssignmentID   uint       `gorm:"primaryKey;column:assignment_id" json:"assignment_id"`
	SubmissionID   uint       `gorm:"column:submission_id" json:"submission_id"`
	ReviewerUserID uint       `gorm:"column:reviewer_user_id" json:"reviewer_user_id"`
	Status         string     `gorm:"column:status" json:"status"`
	BatchID        *string    `gorm:"column:batch_id" json:"batch_id,omitempty"`
	AssignedAt     time.Time  `gorm:"column:assigned_at" json:"assigned_at"`
	Deadline       time.Time  `gorm:"column:deadline" json:"deadline"`
	CompletedAt    *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	// Relations
	Submission *Submission `gorm:"foreignKey:SubmissionID;references:SubmissionID" json:"submission,omitempty"`
	Reviewer   *User       `gorm:"foreignKey:ReviewerUserID;references:UserID" json:"reviewer,omitempty"`
}

func (ReviewAssignment) TableName() string {
	return "assignments"
}

// IsOverdue reports whether a still-pending assignment has passed its deadline.
func (a *ReviewAssignment) IsOverdue(now time.Time) bool {
	return a.Status == AssignmentPending && now.After(a.Deadline)
}
