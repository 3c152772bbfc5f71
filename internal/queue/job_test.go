package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Durgesh-2001/Booze-Delivery/internal/models"
)

func TestNewNotificationJob(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	n := &models.Notification{
		UserID:  uuid.New(),
		Kind:    models.NotificationKindOrder,
		Title:   "Order placed",
		Message: "Your order is pending payment",
		OrderID: &orderID,
	}

	job := NewNotificationJob(n)

	if job.ID == uuid.Nil {
		t.Error("Expected job ID to be set")
	}
	if job.Type != JobTypeNotification {
		t.Errorf("Expected job type %s, got %s", JobTypeNotification, job.Type)
	}
	if job.UserID != n.UserID {
		t.Errorf("Expected user ID %s, got %s", n.UserID, job.UserID)
	}
	if job.Notification == nil || job.Notification.NotificationID == uuid.Nil {
		t.Fatal("Expected notification ID to be assigned")
	}
	if job.RetryCount != 0 || job.MaxRetries != DefaultMaxRetries {
		t.Errorf("Expected retries 0/%d, got %d/%d", DefaultMaxRetries, job.RetryCount, job.MaxRetries)
	}

	got := job.ToNotification()
	if got.ID != job.Notification.NotificationID || got.UserID != n.UserID || got.Title != n.Title {
		t.Errorf("ToNotification() = %+v", got)
	}
	if got.OrderID == nil || *got.OrderID != orderID {
		t.Errorf("Expected order ID %s, got %v", orderID, got.OrderID)
	}
}

func TestNotificationJob_StableIDAcrossRedelivery(t *testing.T) {
	t.Parallel()

	job := NewNotificationJob(&models.Notification{UserID: uuid.New(), Title: "t"})
	raw, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var first, second Job
	if err := json.Unmarshal(raw, &first); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := json.Unmarshal(raw, &second); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if first.ToNotification().ID != second.ToNotification().ID {
		t.Error("redelivered job produced a different notification ID")
	}
}

func TestJob_ToNotification_NoPayload(t *testing.T) {
	t.Parallel()

	if (&Job{Type: JobTypeNotification}).ToNotification() != nil {
		t.Error("Expected nil notification for job without payload")
	}
}

func TestJob_IsExpired(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name     string
		notAfter *time.Time
		want     bool
	}{
		{"no expiration", nil, false},
		{"expired", &past, true},
		{"not yet expired", &future, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			job := &Job{NotAfter: tt.notAfter}
			if got := job.IsExpired(); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJob_Retry(t *testing.T) {
	t.Parallel()

	job := &Job{MaxRetries: 2}
	if !job.CanRetry() {
		t.Fatal("Expected fresh job to be retryable")
	}
	job.IncrementRetry()
	job.IncrementRetry()
	if job.CanRetry() {
		t.Errorf("Expected no retry after %d attempts", job.RetryCount)
	}
}
