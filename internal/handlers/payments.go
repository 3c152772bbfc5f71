package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Durgesh-2001/Booze-Delivery/internal/apperror"
	"github.com/Durgesh-2001/Booze-Delivery/internal/database"
	"github.com/Durgesh-2001/Booze-Delivery/internal/middleware"
	"github.com/Durgesh-2001/Booze-Delivery/internal/models"
	"github.com/Durgesh-2001/Booze-Delivery/internal/notify"
)

// PaymentHandler records simulated payments. No money moves; card and upi always succeed.
type PaymentHandler struct {
	payments database.PaymentStore
	orders   database.OrderStore
	dispatch dispatcher
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(payments database.PaymentStore, orders database.OrderStore, notifier notify.Notifier, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		orders:   orders,
		dispatch: dispatcher{notifier: notifier, logger: logger},
	}
}

// RegisterRoutes registers payment routes
func (h *PaymentHandler) RegisterRoutes(r *mux.Router, errh *middleware.ErrorHandler) {
	r.Handle("", errh.Handle(h.CreatePayment)).Methods(http.MethodPost)
	r.Handle("/", errh.Handle(h.CreatePayment)).Methods(http.MethodPost)
	r.Handle("/order/{orderId}", errh.Handle(h.ListOrderPayments)).Methods(http.MethodGet)
	r.Handle("/{id}", errh.Handle(h.GetPayment)).Methods(http.MethodGet)
}

// CreatePaymentRequest pays for one order
type CreatePaymentRequest struct {
	OrderID uuid.UUID            `json:"order_id" validate:"required"`
	Method  models.PaymentMethod `json:"method" validate:"required,payment_method"`
}

// PaymentResponse returns the payment with the order it changed
type PaymentResponse struct {
	Payment *models.Payment `json:"payment"`
	Order   *models.Order   `json:"order"`
}

// CreatePayment handles POST /api/payments
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) error {
	id, err := identity(r)
	if err != nil {
		return err
	}

	var req CreatePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	if _, err := loadOwnOrder(r, h.orders, req.OrderID, id.UserID); err != nil {
		return err
	}

	payment := simulatePayment(req.OrderID, req.Method)
	order, err := h.payments.Record(r.Context(), payment)
	switch {
	case errors.Is(err, database.ErrAlreadyPaid):
		return apperror.Conflict("Order is already paid")
	case errors.Is(err, database.ErrOrderClosed):
		return apperror.Conflict("Order is cancelled or delivered")
	case errors.Is(err, database.ErrNotFound):
		return apperror.NotFound("Order not found")
	case err != nil:
		return err
	}

	h.dispatch.send(r, notify.PaymentRecorded(payment))
	respondJSON(w, http.StatusCreated, PaymentResponse{Payment: payment, Order: order})
	return nil
}

// GetPayment handles GET /api/payments/{id}
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) error {
	id, err := identity(r)
	if err != nil {
		return err
	}
	paymentID, err := pathID(r, "id")
	if err != nil {
		return err
	}

	payment, err := h.payments.GetByID(r.Context(), paymentID)
	if errors.Is(err, database.ErrNotFound) {
		return apperror.NotFound("Payment not found")
	}
	if err != nil {
		return err
	}
	if payment.UserID != id.UserID {
		return apperror.Forbidden("Not your payment")
	}

	respondJSON(w, http.StatusOK, payment)
	return nil
}

// ListOrderPayments handles GET /api/payments/order/{orderId}
func (h *PaymentHandler) ListOrderPayments(w http.ResponseWriter, r *http.Request) error {
	id, err := identity(r)
	if err != nil {
		return err
	}
	orderID, err := pathID(r, "orderId")
	if err != nil {
		return err
	}
	if _, err := loadOwnOrder(r, h.orders, orderID, id.UserID); err != nil {
		return err
	}

	payments, err := h.payments.ListByOrder(r.Context(), orderID)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, payments)
	return nil
}

// simulatePayment settles card and upi immediately; cash on delivery stays pending
func simulatePayment(orderID uuid.UUID, method models.PaymentMethod) *models.Payment {
	p := &models.Payment{
		ID:      uuid.New(),
		OrderID: orderID,
		Method:  method,
		Status:  models.PaymentStatusSucceeded,
	}
	prefix := "PAY"
	if method == models.PaymentMethodCOD {
		p.Status = models.PaymentStatusPending
		prefix = "COD"
	}
	p.Reference = prefix + "-" + strings.ToUpper(strings.ReplaceAll(p.ID.String(), "-", "")[:12])
	return p
}
