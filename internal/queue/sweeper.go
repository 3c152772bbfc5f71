package queue

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Durgesh-2001/Booze-Delivery/internal/models"
)

const sweepTimeout = 2 * time.Minute

// SalvageFunc makes a last attempt to store a dead-lettered notification
type SalvageFunc func(ctx context.Context, n *models.Notification) error

// SweepStats counts what one sweep did with the dead letters it visited
type SweepStats struct {
	Recovered int
	Dropped   int
}

// DeadLetterSweeper periodically drains the notification DLQ. Each dead
// notification is offered to salvage first; those still failing after
// retention are dropped with a log line naming the user, and the first
// younger failure ends the sweep so it is retried on the next tick.
type DeadLetterSweeper struct {
	dlq       DLQDrainer
	salvage   SalvageFunc
	interval  time.Duration
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewDeadLetterSweeper creates a sweeper. A nil salvage only expires old letters.
func NewDeadLetterSweeper(dlq DLQDrainer, salvage SalvageFunc, interval, retention time.Duration, logger *zap.Logger) *DeadLetterSweeper {
	return &DeadLetterSweeper{
		dlq:       dlq,
		salvage:   salvage,
		interval:  interval,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Start sweeps on every tick until ctx is cancelled
func (s *DeadLetterSweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			stats, err := s.sweep(ctx)
			if err != nil {
				s.logger.Error("dlq_sweep_failed", zap.Error(err))
			}
			if stats.Recovered > 0 || stats.Dropped > 0 {
				s.logger.Info("dlq_swept",
					zap.Int("recovered", stats.Recovered),
					zap.Int("dropped", stats.Dropped),
					zap.Duration("retention", s.retention),
				)
			}
		}
	}
}

func (s *DeadLetterSweeper) sweep(ctx context.Context) (SweepStats, error) {
	var stats SweepStats
	if s.dlq == nil {
		return stats, nil
	}
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	cutoff := s.now().Add(-s.retention)
	err := s.dlq.DrainDLQ(ctx, func(ctx context.Context, job *Job, publishedAt time.Time) Disposition {
		var n *models.Notification
		if job != nil {
			n = job.ToNotification()
		}
		if n == nil {
			stats.Dropped++
			s.logger.Warn("dead_letter_unreadable_dropped")
			return Discard
		}

		var salvageErr error
		if s.salvage != nil {
			if salvageErr = s.salvage(ctx, n); salvageErr == nil {
				stats.Recovered++
				s.logger.Info("dead_notification_recovered",
					zap.String("notification_id", n.ID.String()),
					zap.String("user_id", n.UserID.String()),
				)
				return Discard
			}
		}

		if publishedAt.IsZero() {
			publishedAt = job.CreatedAt
		}
		if publishedAt.Before(cutoff) {
			stats.Dropped++
			s.logger.Warn("dead_notification_dropped",
				zap.String("notification_id", n.ID.String()),
				zap.String("user_id", n.UserID.String()),
				zap.String("kind", string(n.Kind)),
				zap.Int("retry_count", job.RetryCount),
				zap.Error(salvageErr),
			)
			return Discard
		}
		return Retain
	})
	if err != nil {
		return stats, fmt.Errorf("DLQ sweep: %w", err)
	}
	return stats, nil
}
