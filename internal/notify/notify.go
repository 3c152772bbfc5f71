// Package notify delivers user notifications, either straight to the store
// or through the job queue for the worker to persist.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Durgesh-2001/Booze-Delivery/internal/database"
	"github.com/Durgesh-2001/Booze-Delivery/internal/models"
	"github.com/Durgesh-2001/Booze-Delivery/internal/queue"
)

// Notifier delivers a notification to its user
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification) error
}

// Direct writes notifications to the store in the request path
type Direct struct {
	store database.NotificationStore
}

// NewDirect creates a Notifier that writes to store
func NewDirect(store database.NotificationStore) *Direct {
	return &Direct{store: store}
}

func (d *Direct) Notify(ctx context.Context, n *models.Notification) error {
	if err := d.store.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}
	return nil
}

// Queued publishes notifications as jobs for cmd/worker
type Queued struct {
	queue queue.JobQueue
}

// NewQueued creates a Notifier that publishes to q
func NewQueued(q queue.JobQueue) *Queued {
	return &Queued{queue: q}
}

func (q *Queued) Notify(ctx context.Context, n *models.Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if err := q.queue.Enqueue(ctx, queue.NewNotificationJob(n)); err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}

// OrderPlaced is sent when a customer places an order
func OrderPlaced(o *models.Order) *models.Notification {
	return &models.Notification{
		UserID:  o.UserID,
		Kind:    models.NotificationKindOrder,
		Title:   "Order placed",
		Message: fmt.Sprintf("Order %s for %s is waiting for payment.", shortID(o.ID), FormatRupees(o.Amount)),
		OrderID: &o.ID,
	}
}

// OrderStatusChanged is sent when an order moves to a new status
func OrderStatusChanged(o *models.Order) *models.Notification {
	var msg string
	switch o.Status {
	case models.OrderStatusConfirmed:
		msg = "has been confirmed and is being packed"
	case models.OrderStatusOutForDelivery:
		msg = "is out for delivery"
	case models.OrderStatusDelivered:
		msg = "has been delivered. Cheers, responsibly"
	case models.OrderStatusCancelled:
		msg = "has been cancelled"
	default:
		msg = "is " + strings.ReplaceAll(string(o.Status), "_", " ")
	}
	return &models.Notification{
		UserID:  o.UserID,
		Kind:    models.NotificationKindOrder,
		Title:   "Order update",
		Message: fmt.Sprintf("Order %s %s.", shortID(o.ID), msg),
		OrderID: &o.ID,
	}
}

// PaymentRecorded is sent after a payment attempt
func PaymentRecorded(p *models.Payment) *models.Notification {
	var msg string
	switch p.Status {
	case models.PaymentStatusSucceeded:
		msg = fmt.Sprintf("Payment of %s received via %s.", FormatRupees(p.Amount), strings.ToUpper(string(p.Method)))
	case models.PaymentStatusPending:
		msg = fmt.Sprintf("Pay %s in cash when your order arrives.", FormatRupees(p.Amount))
	default:
		msg = fmt.Sprintf("Payment of %s failed.", FormatRupees(p.Amount))
	}
	return &models.Notification{
		UserID:  p.UserID,
		Kind:    models.NotificationKindPayment,
		Title:   "Payment update",
		Message: msg,
		OrderID: &p.OrderID,
	}
}

// Welcome is sent on registration
func Welcome(u *models.User) *models.Notification {
	return &models.Notification{
		UserID:  u.ID,
		Kind:    models.NotificationKindSystem,
		Title:   "Welcome to Booze Del",
		Message: "Thanks for signing up, " + u.Name + ". Remember: nothing here is actually delivered.",
	}
}

// FormatRupees renders an amount in paise as rupees, e.g. 123450 -> "₹1234.50"
func FormatRupees(paise int64) string {
	sign := ""
	if paise < 0 {
		sign = "-"
		paise = -paise
	}
	return fmt.Sprintf("%s₹%d.%02d", sign, paise/100, paise%100)
}

func shortID(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}
