package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Durgesh-2001/Booze-Delivery/internal/models"
)

const orderColumns = `id, user_id, items, amount, address, status, paid, created_at, updated_at`

// OrderRepository handles order database operations
type OrderRepository struct {
	db *DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Place prices lines from the catalog, reserves stock and stores a pending order
// in one transaction. An inactive or unknown product returns ErrNotFound and a
// short product returns ErrInsufficientStock; nothing is reserved in either case.
func (r *OrderRepository) Place(ctx context.Context, userID uuid.UUID, lines []models.OrderLine, address models.Address) (*models.Order, error) {
	order := &models.Order{
		ID:      uuid.New(),
		UserID:  userID,
		Address: address,
		Status:  models.OrderStatusPending,
		Items:   make([]models.OrderItem, 0, len(lines)),
	}

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, line := range lines {
			item := models.OrderItem{ProductID: line.ProductID, Quantity: line.Quantity}
			err := tx.QueryRowContext(ctx, `
				UPDATE products
				SET stock = stock - $2, updated_at = now()
				WHERE id = $1 AND active AND stock >= $2
				RETURNING name, price
			`, line.ProductID, line.Quantity).Scan(&item.Name, &item.Price)
			if errors.Is(err, sql.ErrNoRows) {
				return classifyReservationFailure(ctx, tx, line.ProductID)
			}
			if err != nil {
				return fmt.Errorf("failed to reserve stock: %w", err)
			}
			order.Items = append(order.Items, item)
		}
		order.Amount = order.Total()

		items, err := json.Marshal(order.Items)
		if err != nil {
			return fmt.Errorf("failed to marshal items: %w", err)
		}
		addr, err := json.Marshal(order.Address)
		if err != nil {
			return fmt.Errorf("failed to marshal address: %w", err)
		}

		return tx.QueryRowContext(ctx, `
			INSERT INTO orders (id, user_id, items, amount, address, status, paid, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $7)
			RETURNING created_at, updated_at
		`, order.ID, order.UserID, items, order.Amount, addr, order.Status, time.Now()).
			Scan(&order.CreatedAt, &order.UpdatedAt)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func classifyReservationFailure(ctx context.Context, tx *sql.Tx, productID uuid.UUID) error {
	var active bool
	err := tx.QueryRowContext(ctx, `SELECT active FROM products WHERE id = $1`, productID).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !active) {
		return fmt.Errorf("product %s %w", productID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check product: %w", err)
	}
	return fmt.Errorf("product %s: %w", productID, ErrInsufficientStock)
}

// GetByID retrieves an order by ID
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		return nil, notFound(err, "order")
	}
	return order, nil
}

// ListByUser returns all orders of a user, newest first
func (r *OrderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()
	return collectOrders(rows)
}

// List returns a page of all orders, optionally filtered by status, and the total count
func (r *OrderRepository) List(ctx context.Context, status *models.OrderStatus, page, pageSize int) ([]*models.Order, int, error) {
	page, pageSize = normalizePage(page, pageSize)

	clause := ""
	args := []any{}
	if status != nil {
		clause = " WHERE status = $1"
		args = append(args, *status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	args = append(args, pageSize, (page-1)*pageSize)
	query := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		orderColumns, clause, len(args)-1, len(args))
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Transition moves an order to next. Moving to cancelled returns the
// reserved stock to the catalog in the same transaction.
func (r *OrderRepository) Transition(ctx context.Context, id uuid.UUID, next models.OrderStatus) (*models.Order, error) {
	var order *models.Order
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
		current, err := scanOrder(row)
		if err != nil {
			return notFound(err, "order")
		}
		if !current.Status.CanTransitionTo(next) {
			return fmt.Errorf("%s to %s: %w", current.Status, next, ErrInvalidTransition)
		}

		if next == models.OrderStatusCancelled {
			for _, item := range current.Items {
				if _, err := tx.ExecContext(ctx,
					`UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1`,
					item.ProductID, item.Quantity,
				); err != nil {
					return fmt.Errorf("failed to restore stock: %w", err)
				}
			}
		}

		current.Status = next
		if err := tx.QueryRowContext(ctx,
			`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1 RETURNING updated_at`,
			id, next,
		).Scan(&current.UpdatedAt); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		order = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Stats aggregates order counts and revenue. Revenue counts paid orders only.
func (r *OrderRepository) Stats(ctx context.Context) (*models.OrderStats, error) {
	stats := &models.OrderStats{ByStatus: map[models.OrderStatus]int{}}

	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status models.OrderStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan order stats: %w", err)
		}
		stats.ByStatus[status] = n
		stats.TotalOrders += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order stats: %w", err)
	}

	if err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM orders WHERE paid AND status <> 'cancelled'`,
	).Scan(&stats.TotalRevenue); err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}
	return stats, nil
}

func collectOrders(rows *sql.Rows) ([]*models.Order, error) {
	orders := []*models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	return orders, nil
}

func scanOrder(row rowScanner) (*models.Order, error) {
	order := &models.Order{}
	var items, address []byte
	err := row.Scan(
		&order.ID, &order.UserID, &items, &order.Amount, &address,
		&order.Status, &order.Paid, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal items: %w", err)
	}
	if err := json.Unmarshal(address, &order.Address); err != nil {
		return nil, fmt.Errorf("failed to unmarshal address: %w", err)
	}
	return order, nil
}
