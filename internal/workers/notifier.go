// Package workers holds the queue consumers run by cmd/worker.
package workers

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Durgesh-2001/Booze-Delivery/internal/database"
	"github.com/Durgesh-2001/Booze-Delivery/internal/queue"
)

// errUnknownJob marks jobs that can never succeed and go straight to the DLQ
var errUnknownJob = errors.New("unknown job")

// NotificationWorker persists notification jobs
type NotificationWorker struct {
	store    database.NotificationStore
	jobQueue queue.JobQueue // For re-enqueueing failed jobs
	logger   *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(store database.NotificationStore, jobQueue queue.JobQueue, logger *zap.Logger) *NotificationWorker {
	return &NotificationWorker{store: store, jobQueue: jobQueue, logger: logger}
}

// Run processes messages until ctx is cancelled or msgs is closed
func (w *NotificationWorker) Run(ctx context.Context, msgs <-chan *queue.Message, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.logger.Error("queue_error", zap.Error(err))
		case msg, ok := <-msgs:
			if !ok {
				w.logger.Info("message_channel_closed")
				return
			}
			if err := w.ProcessJob(ctx, msg); err != nil {
				w.logger.Error("job_failed",
					zap.Error(err),
					zap.String("job_id", msg.GetJob().ID.String()),
					zap.String("job_type", string(msg.GetJob().Type)),
				)
			}
		}
	}
}

// ProcessJob handles one message and always settles it: ack on success,
// re-enqueue with a bumped retry count while retries remain, DLQ otherwise.
func (w *NotificationWorker) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()

	err := w.process(ctx, job)
	if err == nil {
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil
	}
	return w.handleJobError(ctx, msg, job, err)
}

func (w *NotificationWorker) process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeNotification:
		n := job.ToNotification()
		if n == nil {
			return fmt.Errorf("%w: notification job %s has no payload", errUnknownJob, job.ID)
		}
		if err := w.store.Create(ctx, n); err != nil {
			return fmt.Errorf("failed to store notification: %w", err)
		}
		w.logger.Debug("notification_stored",
			zap.String("notification_id", n.ID.String()),
			zap.String("user_id", n.UserID.String()),
		)
		return nil
	default:
		return fmt.Errorf("%w type: %s", errUnknownJob, job.Type)
	}
}

func (w *NotificationWorker) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	if errors.Is(err, errUnknownJob) || !job.CanRetry() || w.jobQueue == nil {
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Warn("nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("job dead-lettered after %d retries: %w", job.RetryCount, err)
	}

	retry := *job
	retry.IncrementRetry()
	if enqErr := w.jobQueue.Enqueue(ctx, &retry); enqErr != nil {
		if nackErr := msg.Nack(false); nackErr != nil {
			w.logger.Warn("nack_failed", zap.Error(nackErr))
		}
		return fmt.Errorf("failed to re-enqueue job: %w (original error: %v)", enqErr, err)
	}
	if ackErr := msg.Ack(); ackErr != nil {
		w.logger.Warn("ack_failed", zap.Error(ackErr))
	}
	w.logger.Warn("job_requeued",
		zap.String("job_id", job.ID.String()),
		zap.Int("retry_count", retry.RetryCount),
		zap.Error(err),
	)
	return nil
}
