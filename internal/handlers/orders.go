package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Durgesh-2001/Booze-Delivery/internal/apperror"
	"github.com/Durgesh-2001/Booze-Delivery/internal/database"
	"github.com/Durgesh-2001/Booze-Delivery/internal/middleware"
	"github.com/Durgesh-2001/Booze-Delivery/internal/models"
	"github.com/Durgesh-2001/Booze-Delivery/internal/notify"
)

// OrderHandler handles customer order requests. Routes assume the auth gate ran.
type OrderHandler struct {
	orders   database.OrderStore
	users    database.UserStore
	dispatch dispatcher
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders database.OrderStore, users database.UserStore, notifier notify.Notifier, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		users:    users,
		dispatch: dispatcher{notifier: notifier, logger: logger},
	}
}

// RegisterRoutes registers order routes
func (h *OrderHandler) RegisterRoutes(r *mux.Router, errh *middleware.ErrorHandler) {
	for _, root := range []string{"", "/"} {
		r.Handle(root, errh.Handle(h.CreateOrder)).Methods(http.MethodPost)
		r.Handle(root, errh.Handle(h.ListOrders)).Methods(http.MethodGet)
	}
	r.Handle("/{id}", errh.Handle(h.GetOrder)).Methods(http.MethodGet)
	r.Handle("/{id}/cancel", errh.Handle(h.CancelOrder)).Methods(http.MethodPost)
}

// CreateOrderRequest is the checkout payload. Address falls back to the saved profile address.
type CreateOrderRequest struct {
	Items   []models.OrderLine `json:"items" validate:"required,min=1,max=20,dive"`
	Address *models.Address    `json:"address,omitempty"`
}

// CreateOrder handles POST /api/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) error {
	id, err := identity(r)
	if err != nil {
		return err
	}

	var req CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	lines := mergeLines(req.Items)
	for _, line := range lines {
		if line.Quantity > 50 {
			return apperror.BadRequest("quantity must be at most 50")
		}
	}

	address := req.Address
	if address == nil {
		user, err := h.users.GetByID(r.Context(), id.UserID)
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			return err
		}
		if user == nil || user.Address == nil {
			return apperror.BadRequest("address is required")
		}
		address = user.Address
	}

	order, err := h.orders.Place(r.Context(), id.UserID, lines, *address)
	switch {
	case errors.Is(err, database.ErrInsufficientStock):
		return apperror.Conflict("Insufficient stock for one or more items")
	case errors.Is(err, database.ErrNotFound):
		return apperror.NotFound("Product not found")
	case err != nil:
		return err
	}

	h.dispatch.send(r, notify.OrderPlaced(order))
	respondJSON(w, http.StatusCreated, order)
	return nil
}

// ListOrders handles GET /api/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) error {
	id, err := identity(r)
	if err != nil {
		return err
	}

	orders, err := h.orders.ListByUser(r.Context(), id.UserID)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, orders)
	return nil
}

// GetOrder handles GET /api/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) error {
	order, err := h.ownOrder(r)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, order)
	return nil
}

// CancelOrder handles POST /api/orders/{id}/cancel
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) error {
	order, err := h.ownOrder(r)
	if err != nil {
		return err
	}

	order, err = h.orders.Transition(r.Context(), order.ID, models.OrderStatusCancelled)
	if errors.Is(err, database.ErrInvalidTransition) {
		return apperror.Conflict("Order can no longer be cancelled")
	}
	if err != nil {
		return err
	}

	h.dispatch.send(r, notify.OrderStatusChanged(order))
	respondJSON(w, http.StatusOK, order)
	return nil
}

// ownOrder loads the order named in the path and checks the caller owns it
func (h *OrderHandler) ownOrder(r *http.Request) (*models.Order, error) {
	id, err := identity(r)
	if err != nil {
		return nil, err
	}
	orderID, err := pathID(r, "id")
	if err != nil {
		return nil, err
	}
	return loadOwnOrder(r, h.orders, orderID, id.UserID)
}

func loadOwnOrder(r *http.Request, orders database.OrderStore, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := orders.GetByID(r.Context(), orderID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperror.NotFound("Order not found")
	}
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperror.Forbidden("Not your order")
	}
	return order, nil
}

// mergeLines sums quantities of repeated products, keeping first-seen order
func mergeLines(lines []models.OrderLine) []models.OrderLine {
	merged := make([]models.OrderLine, 0, len(lines))
	index := make(map[uuid.UUID]int, len(lines))
	for _, line := range lines {
		if i, ok := index[line.ProductID]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[line.ProductID] = len(merged)
		merged = append(merged, line)
	}
	return merged
}
