package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Durgesh-2001/Booze-Delivery/internal/models"
)

var sweepNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type deadLetter struct {
	job         *Job
	publishedAt time.Time
}

// memoryDLQ drains a slice the way RabbitMQ drains the DLQ: oldest first,
// a retained letter goes back to the front and stops the drain.
type memoryDLQ struct {
	letters []deadLetter
	err     error
}

func (m *memoryDLQ) DrainDLQ(ctx context.Context, visit DeadLetterVisitor) error {
	if m.err != nil {
		return m.err
	}
	for len(m.letters) > 0 {
		next := m.letters[0]
		if visit(ctx, next.job, next.publishedAt) == Retain {
			return nil
		}
		m.letters = m.letters[1:]
	}
	return nil
}

func deadNotification(age time.Duration) deadLetter {
	orderID := uuid.New()
	job := NewNotificationJob(&models.Notification{
		ID:      uuid.New(),
		UserID:  uuid.New(),
		Kind:    models.NotificationKindOrder,
		Title:   "Order placed",
		Message: "Order #ABC123 for ₹450.00 has been placed",
		OrderID: &orderID,
	})
	job.RetryCount = job.MaxRetries
	return deadLetter{job: job, publishedAt: sweepNow.Add(-age)}
}

func newTestSweeper(dlq DLQDrainer, salvage SalvageFunc) *DeadLetterSweeper {
	s := NewDeadLetterSweeper(dlq, salvage, time.Hour, 24*time.Hour, zap.NewNop())
	s.now = func() time.Time { return sweepNow }
	return s
}

func TestDeadLetterSweeper_RecoversWhenStoreIsBack(t *testing.T) {
	t.Parallel()

	dlq := &memoryDLQ{letters: []deadLetter{deadNotification(30 * time.Hour), deadNotification(time.Hour)}}
	var stored []*models.Notification
	s := newTestSweeper(dlq, func(_ context.Context, n *models.Notification) error {
		stored = append(stored, n)
		return nil
	})

	stats, err := s.sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep() error = %v", err)
	}
	if stats.Recovered != 2 || stats.Dropped != 0 {
		t.Errorf("stats = %+v, want 2 recovered", stats)
	}
	if len(dlq.letters) != 0 {
		t.Errorf("%d letters left in the DLQ", len(dlq.letters))
	}
	if len(stored) != 2 || stored[0].Kind != models.NotificationKindOrder || stored[0].OrderID == nil {
		t.Errorf("stored = %+v", stored)
	}
}

func TestDeadLetterSweeper_DropsExpiredAndKeepsYoung(t *testing.T) {
	t.Parallel()

	young := deadNotification(time.Hour)
	dlq := &memoryDLQ{letters: []deadLetter{
		deadNotification(48 * time.Hour),
		deadNotification(25 * time.Hour),
		young,
		deadNotification(30 * time.Minute),
	}}
	s := newTestSweeper(dlq, func(context.Context, *models.Notification) error {
		return errors.New("database unavailable")
	})

	stats, err := s.sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep() error = %v", err)
	}
	if stats.Dropped != 2 || stats.Recovered != 0 {
		t.Errorf("stats = %+v, want 2 dropped", stats)
	}
	if len(dlq.letters) != 2 || dlq.letters[0].job.ID != young.job.ID {
		t.Errorf("sweep should stop at the first young letter, %d left", len(dlq.letters))
	}
}

func TestDeadLetterSweeper_WithoutSalvageOnlyExpires(t *testing.T) {
	t.Parallel()

	dlq := &memoryDLQ{letters: []deadLetter{deadNotification(25 * time.Hour), deadNotification(time.Hour)}}
	stats, err := newTestSweeper(dlq, nil).sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep() error = %v", err)
	}
	if stats.Dropped != 1 || len(dlq.letters) != 1 {
		t.Errorf("stats = %+v, left = %d", stats, len(dlq.letters))
	}
}

func TestDeadLetterSweeper_UnreadableLettersDropped(t *testing.T) {
	t.Parallel()

	unknown := &Job{ID: uuid.New(), Type: "analysis", CreatedAt: sweepNow}
	dlq := &memoryDLQ{letters: []deadLetter{
		{job: nil, publishedAt: sweepNow},
		{job: unknown, publishedAt: sweepNow},
	}}
	salvaged := 0
	s := newTestSweeper(dlq, func(context.Context, *models.Notification) error {
		salvaged++
		return nil
	})

	stats, err := s.sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep() error = %v", err)
	}
	if stats.Dropped != 2 || salvaged != 0 {
		t.Errorf("stats = %+v, salvaged = %d", stats, salvaged)
	}
}

func TestDeadLetterSweeper_MissingTimestampUsesJobCreation(t *testing.T) {
	t.Parallel()

	letter := deadNotification(0)
	letter.publishedAt = time.Time{}
	letter.job.CreatedAt = sweepNow.Add(-72 * time.Hour)
	dlq := &memoryDLQ{letters: []deadLetter{letter}}

	stats, err := newTestSweeper(dlq, nil).sweep(context.Background())
	if err != nil {
		t.Fatalf("sweep() error = %v", err)
	}
	if stats.Dropped != 1 {
		t.Errorf("stats = %+v, want the old job dropped", stats)
	}
}

func TestDeadLetterSweeper_DrainError(t *testing.T) {
	t.Parallel()

	s := newTestSweeper(&memoryDLQ{err: errors.New("channel closed")}, nil)
	if _, err := s.sweep(context.Background()); err == nil {
		t.Error("expected drain error")
	}
}

func TestDeadLetterSweeper_NilDLQ(t *testing.T) {
	t.Parallel()

	stats, err := newTestSweeper(nil, nil).sweep(context.Background())
	if err != nil || stats != (SweepStats{}) {
		t.Errorf("sweep() = %+v, %v", stats, err)
	}
}

func TestDeadLetterSweeper_StartStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := newTestSweeper(&memoryDLQ{}, nil).Start(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Start() = %v, want context.Canceled", err)
	}
}
