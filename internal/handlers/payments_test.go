package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/Durgesh-2001/Booze-Delivery/internal/models"
)

func placeOrder(t *testing.T, env *testEnv, token string, p *models.Product, qty int) models.Order {
	t.Helper()

	w := env.do(t, http.MethodPost, "/api/orders", orderBody(line(p.ID, qty)), token)
	expectStatus(t, w, http.StatusCreated)
	var order models.Order
	decodeData(t, w, &order)
	return order
}

func TestPaymentHandler_Create(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method        models.PaymentMethod
		wantStatus    models.PaymentStatus
		wantPaid      bool
		wantRefPrefix string
	}{
		{method: models.PaymentMethodCard, wantStatus: models.PaymentStatusSucceeded, wantPaid: true, wantRefPrefix: "PAY-"},
		{method: models.PaymentMethodUPI, wantStatus: models.PaymentStatusSucceeded, wantPaid: true, wantRefPrefix: "PAY-"},
		{method: models.PaymentMethodCOD, wantStatus: models.PaymentStatusPending, wantPaid: false, wantRefPrefix: "COD-"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.method), func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t)
			_, token := env.seedUser(t, "payer@example.com", models.RoleCustomer)
			p := env.seedProduct(t, "Old Monk", "rum", 45000, 5)
			order := placeOrder(t, env, token, p, 2)

			w := env.do(t, http.MethodPost, "/api/payments",
				map[string]any{"order_id": order.ID, "method": tt.method}, token)
			expectStatus(t, w, http.StatusCreated)

			var resp PaymentResponse
			decodeData(t, w, &resp)
			if resp.Payment.Status != tt.wantStatus {
				t.Errorf("payment status = %s, want %s", resp.Payment.Status, tt.wantStatus)
			}
			if resp.Payment.Amount != 90000 {
				t.Errorf("payment amount = %d, want 90000", resp.Payment.Amount)
			}
			if !strings.HasPrefix(resp.Payment.Reference, tt.wantRefPrefix) {
				t.Errorf("reference = %q, want prefix %q", resp.Payment.Reference, tt.wantRefPrefix)
			}
			if resp.Order.Paid != tt.wantPaid {
				t.Errorf("order paid = %v, want %v", resp.Order.Paid, tt.wantPaid)
			}
			if resp.Order.Status != models.OrderStatusConfirmed {
				t.Errorf("order status = %s, want confirmed", resp.Order.Status)
			}

			sent := env.notifier.all()
			last := sent[len(sent)-1]
			if last.Kind != models.NotificationKindPayment {
				t.Errorf("last notification kind = %s, want payment", last.Kind)
			}

			w = env.do(t, http.MethodPost, "/api/payments",
				map[string]any{"order_id": order.ID, "method": models.PaymentMethodCard}, token)
			expectStatus(t, w, http.StatusConflict)
			if msg := decodeError(t, w); msg != "Order is already paid" {
				t.Errorf("message = %q", msg)
			}
		})
	}
}

func TestPaymentHandler_CreateErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	_, token := env.seedUser(t, "payer@example.com", models.RoleCustomer)
	_, otherToken := env.seedUser(t, "other@example.com", models.RoleCustomer)
	p := env.seedProduct(t, "Old Monk", "rum", 45000, 10)

	order := placeOrder(t, env, token, p, 1)
	cancelled := placeOrder(t, env, token, p, 1)
	w := env.do(t, http.MethodPost, "/api/orders/"+cancelled.ID.String()+"/cancel", nil, token)
	expectStatus(t, w, http.StatusOK)

	tests := []struct {
		name       string
		body       map[string]any
		token      string
		wantStatus int
	}{
		{name: "bad method", body: map[string]any{"order_id": order.ID, "method": "crypto"}, token: token, wantStatus: http.StatusBadRequest},
		{name: "missing order", body: map[string]any{"method": "card"}, token: token, wantStatus: http.StatusBadRequest},
		{name: "unknown order", body: map[string]any{"order_id": uuid.New(), "method": "card"}, token: token, wantStatus: http.StatusNotFound},
		{name: "someone else's order", body: map[string]any{"order_id": order.ID, "method": "card"}, token: otherToken, wantStatus: http.StatusForbidden},
		{name: "cancelled order", body: map[string]any{"order_id": cancelled.ID, "method": "card"}, token: token, wantStatus: http.StatusConflict},
		{name: "no token", body: map[string]any{"order_id": order.ID, "method": "card"}, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/payments", tt.body, tt.token)
			expectStatus(t, w, tt.wantStatus)
		})
	}
}

func TestPaymentHandler_Get(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	_, token := env.seedUser(t, "payer@example.com", models.RoleCustomer)
	_, otherToken := env.seedUser(t, "other@example.com", models.RoleCustomer)
	p := env.seedProduct(t, "Old Monk", "rum", 45000, 5)
	order := placeOrder(t, env, token, p, 1)

	w := env.do(t, http.MethodPost, "/api/payments", map[string]any{"order_id": order.ID, "method": "upi"}, token)
	expectStatus(t, w, http.StatusCreated)
	var resp PaymentResponse
	decodeData(t, w, &resp)

	w = env.do(t, http.MethodGet, "/api/payments/"+resp.Payment.ID.String(), nil, token)
	expectStatus(t, w, http.StatusOK)

	w = env.do(t, http.MethodGet, "/api/payments/"+resp.Payment.ID.String(), nil, otherToken)
	expectStatus(t, w, http.StatusForbidden)

	w = env.do(t, http.MethodGet, "/api/payments/"+uuid.NewString(), nil, token)
	expectStatus(t, w, http.StatusNotFound)

	w = env.do(t, http.MethodGet, "/api/payments/order/"+order.ID.String(), nil, token)
	expectStatus(t, w, http.StatusOK)
	var list []models.Payment
	decodeData(t, w, &list)
	if len(list) != 1 || list[0].ID != resp.Payment.ID {
		t.Errorf("payments for order = %+v", list)
	}

	w = env.do(t, http.MethodGet, "/api/payments/order/"+order.ID.String(), nil, otherToken)
	expectStatus(t, w, http.StatusForbidden)
}

func TestSimulatePayment(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	cod := simulatePayment(orderID, models.PaymentMethodCOD)
	card := simulatePayment(orderID, models.PaymentMethodCard)

	if cod.Status != models.PaymentStatusPending || !strings.HasPrefix(cod.Reference, "COD-") {
		t.Errorf("cod payment = %+v", cod)
	}
	if card.Status != models.PaymentStatusSucceeded || len(card.Reference) != len("PAY-")+12 {
		t.Errorf("card payment = %+v", card)
	}
	if cod.Reference == card.Reference {
		t.Error("references should be unique")
	}
}
