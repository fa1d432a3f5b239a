package models

import (
	"time"
)

type User struct {
	UserID             int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	UserFname          string     `gorm:"column:user_fname" json:"user_fname"`
	UserLname          string     `gorm:"column:user_lname" json:"user_lname"`
	Email              string     `gorm:"column:email;unique" json:"email"`
	Password           string     `gorm:"column:password" json:"-"`
	RoleID             int        `gorm:"column:role_id" json:"role_id"`
	IsBanned           bool       `gorm:"column:is_banned" json:"is_banned"`
	IntegrityScore     float64    `gorm:"column:integrity_score" json:"integrity_score"`
	QualifiedEvaluator bool       `gorm:"column:qualified_evaluator" json:"qualified_evaluator"`
	IntegrityFlagged   bool       `gorm:"column:integrity_flagged" json:"integrity_flagged"`
	CreateAt           *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt           *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt           *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Role Role `gorm:"foreignKey:RoleID;references:RoleID" json:"role,omitempty"`
}

type Role struct {
	RoleID   int        `gorm:"primaryKey;column:role_id" json:"role_id"`
	Role     string     `gorm:"column:role" json:"role"`
	CreateAt *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// Role IDs used by the route guards.
const (
	RoleContestant = 1
	RoleAdmin      = 3
)

// TableName overrides
func (User) TableName() string {
	return "users"
}

func (Role) TableName() string {
	return "roles"
}
