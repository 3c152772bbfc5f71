package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind groups notifications for the frontend
type NotificationKind string

const (
	NotificationKindOrder   NotificationKind = "order"
	NotificationKindPayment NotificationKind = "payment"
	NotificationKindSystem  NotificationKind = "system"
)

// Notification is a message shown to a user
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	OrderID   *uuid.UUID       `json:"order_id,omitempty"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}
