package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/Durgesh-2001/Booze-Delivery/internal/models"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeNotification delivers a notification to a user's inbox
	JobTypeNotification JobType = "notification"
)

// DefaultMaxRetries bounds redelivery of a failing job before it is dead-lettered
const DefaultMaxRetries = 3

// NotificationPayload is the content of a notification job
type NotificationPayload struct {
	NotificationID uuid.UUID               `json:"notification_id"`
	Kind           models.NotificationKind `json:"kind"`
	Title          string                  `json:"title"`
	Message        string                  `json:"message"`
	OrderID        *uuid.UUID              `json:"order_id,omitempty"`
}

// Job represents a job in the queue
type Job struct {
	ID           uuid.UUID            `json:"id"`
	Type         JobType              `json:"type"`
	UserID       uuid.UUID            `json:"user_id"`
	Notification *NotificationPayload `json:"notification,omitempty"`
	NotAfter     *time.Time           `json:"not_after,omitempty"` // Latest time to process job (nil = no expiration)
	CreatedAt    time.Time            `json:"created_at"`
	RetryCount   int                  `json:"retry_count"`
	MaxRetries   int                  `json:"max_retries"`
}

// NewNotificationJob creates a job that stores n when processed.
// The notification ID is fixed here so a redelivered job stores it once.
func NewNotificationJob(n *models.Notification) *Job {
	id := n.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &Job{
		ID:     uuid.New(),
		Type:   JobTypeNotification,
		UserID: n.UserID,
		Notification: &NotificationPayload{
			NotificationID: id,
			Kind:           n.Kind,
			Title:          n.Title,
			Message:        n.Message,
			OrderID:        n.OrderID,
		},
		CreatedAt:  time.Now(),
		MaxRetries: DefaultMaxRetries,
	}
}

// ToNotification builds the notification carried by a notification job
func (j *Job) ToNotification() *models.Notification {
	if j.Notification == nil {
		return nil
	}
	return &models.Notification{
		ID:        j.Notification.NotificationID,
		UserID:    j.UserID,
		Kind:      j.Notification.Kind,
		Title:     j.Notification.Title,
		Message:   j.Notification.Message,
		OrderID:   j.Notification.OrderID,
		CreatedAt: j.CreatedAt,
	}
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}
	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
