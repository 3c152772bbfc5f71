package queue

import (
	"context"
	"time"
)

// MessageInterface defines the interface for queue messages
// This enables better testability by allowing mock implementations
type MessageInterface interface {
	Ack() error
	Nack(requeue bool) error
	GetJob() *Job
}

// JobQueue is the interface for job queues
type JobQueue interface {
	// Enqueue adds a job to the queue
	Enqueue(ctx context.Context, job *Job) error

	// Consume returns a channel of messages from the queue.
	// The caller is responsible for acknowledging each message.
	// Prefetch controls how many unacknowledged messages each consumer can hold.
	// Both channels are closed when ctx is cancelled or the connection drops.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Message, <-chan error, error)

	// Close closes the queue connection
	Close() error

	// HealthCheck verifies the queue connection is healthy
	HealthCheck(ctx context.Context) error
}

// Disposition is a sweeper's decision for one dead letter
type Disposition int

const (
	// Discard acknowledges the dead letter, removing it from the DLQ
	Discard Disposition = iota
	// Retain returns the dead letter to the DLQ and ends the drain
	Retain
)

// DeadLetterVisitor decides the fate of one dead letter. job is nil when the
// message body could not be decoded.
type DeadLetterVisitor func(ctx context.Context, job *Job, publishedAt time.Time) Disposition

// DLQDrainer walks dead-lettered jobs oldest first until the DLQ is empty or
// visit returns Retain
type DLQDrainer interface {
	DrainDLQ(ctx context.Context, visit DeadLetterVisitor) error
}
