package workers

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Durgesh-2001/Booze-Delivery/internal/database"
	"github.com/Durgesh-2001/Booze-Delivery/internal/database/dbtest"
	"github.com/Durgesh-2001/Booze-Delivery/internal/models"
	"github.com/Durgesh-2001/Booze-Delivery/internal/queue"
)

// mockMessage is a mock implementation of queue.MessageInterface
type mockMessage struct {
	job      *queue.Job
	acked    bool
	nacked   bool
	requeued bool
}

func (m *mockMessage) Ack() error {
	m.acked = true
	return nil
}
func (m *mockMessage) Nack(requeue bool) error {
	m.nacked = true
	m.requeued = requeue
	return nil
}
func (m *mockMessage) GetJob() *queue.Job { return m.job }

// mockQueue records re-enqueued jobs
type mockQueue struct {
	enqueued []*queue.Job
	err      error
}

func (q *mockQueue) Enqueue(_ context.Context, job *queue.Job) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, job)
	return nil
}
func (q *mockQueue) Consume(context.Context, int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, errors.New("not implemented")
}
func (q *mockQueue) Close() error                      { return nil }
func (q *mockQueue) HealthCheck(context.Context) error { return nil }

// failingStore fails every Create
type failingStore struct {
	database.NotificationStore
}

func (failingStore) Create(context.Context, *models.Notification) error {
	return errors.New("connection refused")
}

func newJob() *queue.Job {
	return queue.NewNotificationJob(&models.Notification{
		UserID: uuid.New(), Kind: models.NotificationKindOrder, Title: "Order update", Message: "shipped",
	})
}

func TestNotificationWorker_ProcessJob_Success(t *testing.T) {
	t.Parallel()

	store := dbtest.New().Stores().Notifications
	w := NewNotificationWorker(store, &mockQueue{}, zap.NewNop())
	job := newJob()
	msg := &mockMessage{job: job}

	if err := w.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob() error = %v", err)
	}
	if !msg.acked || msg.nacked {
		t.Errorf("acked=%v nacked=%v, want ack only", msg.acked, msg.nacked)
	}

	list, _ := store.ListByUser(context.Background(), job.UserID, false)
	if len(list) != 1 || list[0].ID != job.Notification.NotificationID {
		t.Errorf("stored notifications = %+v", list)
	}

	// Redelivery of the same job must not duplicate the notification.
	if err := w.ProcessJob(context.Background(), &mockMessage{job: job}); err != nil {
		t.Fatalf("ProcessJob() redelivery error = %v", err)
	}
	if n, _ := store.CountUnread(context.Background(), job.UserID); n != 1 {
		t.Errorf("unread after redelivery = %d, want 1", n)
	}
}

func TestNotificationWorker_ProcessJob_Retry(t *testing.T) {
	t.Parallel()

	q := &mockQueue{}
	w := NewNotificationWorker(failingStore{}, q, zap.NewNop())
	msg := &mockMessage{job: newJob()}

	if err := w.ProcessJob(context.Background(), msg); err != nil {
		t.Fatalf("ProcessJob() error = %v, want nil when requeued", err)
	}
	if !msg.acked {
		t.Error("Expected original message to be acked after re-enqueue")
	}
	if len(q.enqueued) != 1 || q.enqueued[0].RetryCount != 1 {
		t.Fatalf("enqueued = %+v, want one job with retry 1", q.enqueued)
	}
	if msg.job.RetryCount != 0 {
		t.Error("original job should not be mutated")
	}
}

func TestNotificationWorker_ProcessJob_DeadLetter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		job  func() *queue.Job
		q    *mockQueue
	}{
		{
			name: "retries exhausted",
			job: func() *queue.Job {
				j := newJob()
				j.RetryCount = j.MaxRetries
				return j
			},
			q: &mockQueue{},
		},
		{
			name: "unknown job type",
			job: func() *queue.Job {
				j := newJob()
				j.Type = "send_sms"
				return j
			},
			q: &mockQueue{},
		},
		{
			name: "re-enqueue fails",
			job:  newJob,
			q:    &mockQueue{err: errors.New("channel closed")},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := NewNotificationWorker(failingStore{}, tt.q, zap.NewNop())
			msg := &mockMessage{job: tt.job()}

			if err := w.ProcessJob(context.Background(), msg); err == nil {
				t.Error("Expected error")
			}
			if !msg.nacked || msg.requeued {
				t.Errorf("nacked=%v requeued=%v, want nack to DLQ", msg.nacked, msg.requeued)
			}
			if len(tt.q.enqueued) != 0 {
				t.Errorf("unexpected re-enqueue: %+v", tt.q.enqueued)
			}
		})
	}
}

func TestNotificationWorker_Run_StopsWhenChannelClosed(t *testing.T) {
	t.Parallel()

	w := NewNotificationWorker(dbtest.New().Stores().Notifications, &mockQueue{}, zap.NewNop())
	msgs := make(chan *queue.Message)
	errs := make(chan error)
	close(msgs)

	done := make(chan struct{})
	go func() {
		w.Run(context.Background(), msgs, errs)
		close(done)
	}()
	<-done
}
