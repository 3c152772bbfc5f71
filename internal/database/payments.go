package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Durgesh-2001/Booze-Delivery/internal/models"
)

const paymentColumns = `id, order_id, user_id, amount, method, status, reference, created_at, updated_at`

// PaymentRepository handles payment database operations
type PaymentRepository struct {
	db *DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Record stores p and applies it to its order in one transaction. The order must
// be open and have no pending or succeeded payment. A succeeded payment marks the
// order paid; any payment confirms a pending order.
func (r *PaymentRepository) Record(ctx context.Context, p *models.Payment) (*models.Order, error) {
	var order *models.Order
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, p.OrderID)
		current, err := scanOrder(row)
		if err != nil {
			return notFound(err, "order")
		}
		if current.Status == models.OrderStatusCancelled || current.Status == models.OrderStatusDelivered {
			return fmt.Errorf("order %s is %s: %w", current.ID, current.Status, ErrOrderClosed)
		}

		var live int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM payments WHERE order_id = $1 AND status IN ('pending', 'succeeded')`,
			p.OrderID,
		).Scan(&live); err != nil {
			return fmt.Errorf("failed to check payments: %w", err)
		}
		if current.Paid || live > 0 {
			return fmt.Errorf("order %s: %w", current.ID, ErrAlreadyPaid)
		}

		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		p.Amount = current.Amount
		p.UserID = current.UserID
		if err := tx.QueryRowContext(ctx, `
			INSERT INTO payments (`+paymentColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
			RETURNING created_at, updated_at
		`, p.ID, p.OrderID, p.UserID, p.Amount, p.Method, p.Status, p.Reference, time.Now()).
			Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		if p.Status == models.PaymentStatusSucceeded {
			current.Paid = true
		}
		if current.Status == models.OrderStatusPending {
			current.Status = models.OrderStatusConfirmed
		}
		if err := tx.QueryRowContext(ctx,
			`UPDATE orders SET paid = $2, status = $3, updated_at = now() WHERE id = $1 RETURNING updated_at`,
			current.ID, current.Paid, current.Status,
		).Scan(&current.UpdatedAt); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		order = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// GetByID retrieves a payment by ID
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	p, err := scanPayment(row)
	if err != nil {
		return nil, notFound(err, "payment")
	}
	return p, nil
}

// ListByOrder returns the payments of an order, oldest first
func (r *PaymentRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]*models.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = $1 ORDER BY created_at ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	payments := []*models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}
	return payments, nil
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	p := &models.Payment{}
	err := row.Scan(
		&p.ID, &p.OrderID, &p.UserID, &p.Amount, &p.Method,
		&p.Status, &p.Reference, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}
