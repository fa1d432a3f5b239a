package services

import (
	"fmt"
	"log"
	"time"

	"peer-review-api/config"
	"peer-review-api/models"
	"peer-review-api/utils"

	"gorm.io/gorm"
)

// NotificationService is the engine's notification sink: a persisted in-app
// notification plus a best-effort email. Failures are logged and swallowed,
// never propagated, so a dead SMTP server cannot roll back or block the
// write that triggered the notice.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	if db == nil {
		db = config.DB
	}
	return &NotificationService{db: db}
}

// NotifyAssigned tells a reviewer how many submissions they received and when
// the reviews are due.
func (s *NotificationService) NotifyAssigned(reviewerID uint, count int, deadline time.Time) {
	title := "New review assignments"
	message := fmt.Sprintf("You have been assigned %d submissions to review. Deadline: %s.",
		count, deadline.Format("2 Jan 2006 15:04"))
	s.deliver(reviewerID, title, message, "info", nil)
}

// NotifyDeadlineWarning warns a reviewer about still-pending assignments
// approaching their deadline.
func (s *NotificationService) NotifyDeadlineWarning(reviewerID uint, assignmentIDs []uint) {
	title := "Review deadline approaching"
	message := fmt.Sprintf("You have %d pending review(s) close to their deadline. Please complete them before they expire.",
		len(assignmentIDs))
	s.deliver(reviewerID, title, message, "warning", nil)
}

// NotifyVerdict informs a submission owner of the review round outcome.
func (s *NotificationService) NotifyVerdict(userID uint, submissionID uint, verdict string) {
	title := "Peer review verdict"
	message := fmt.Sprintf("The peer review of your submission has finished with verdict: %s.", verdict)
	s.deliver(userID, title, message, "info", &submissionID)
}

// NotifyDisqualified informs a user their submissions were disqualified for
// not completing their review obligations.
func (s *NotificationService) NotifyDisqualified(userID uint) {
	title := "Submissions disqualified"
	message := "Your submissions were disqualified because your assigned reviews were not completed before the round ended."
	s.deliver(userID, title, message, "error", nil)
}

// NotifyFinalist congratulates a finalist with their rank.
func (s *NotificationService) NotifyFinalist(userID uint, submissionID uint, rank int) {
	title := "Finalist selection"
	message := fmt.Sprintf("Congratulations! Your submission was selected as a finalist (rank %d).", rank)
	s.deliver(userID, title, message, "success", &submissionID)
}

func (s *NotificationService) deliver(userID uint, title, message, kind string, submissionID *uint) {
	notification := models.Notification{
		UserID:              userID,
		Title:               title,
		Message:             message,
		Type:                kind,
		RelatedSubmissionID: submissionID,
		CreateAt:            time.Now(),
	}
	if err := s.db.Create(&notification).Error; err != nil {
		log.Printf("Notification: failed to store for user %d: %v", userID, err)
	}

	var user models.User
	if err := s.db.Select("email").Where("user_id = ? AND delete_at IS NULL", userID).First(&user).Error; err != nil {
		log.Printf("Notification: user %d not found for email: %v", userID, err)
		return
	}
	if !utils.ValidateEmail(user.Email) {
		log.Printf("Notification: user %d has no usable email address", userID)
		return
	}
	html := fmt.Sprintf("<p>%s</p>", message)
	if err := config.SendMail([]string{user.Email}, title, html); err != nil {
		log.Printf("Notification: email to user %d failed: %v", userID, err)
	}
}
