package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Durgesh-2001/Booze-Delivery/internal/auth"
	"github.com/Durgesh-2001/Booze-Delivery/internal/database"
	"github.com/Durgesh-2001/Booze-Delivery/internal/database/dbtest"
	"github.com/Durgesh-2001/Booze-Delivery/internal/middleware"
	"github.com/Durgesh-2001/Booze-Delivery/internal/models"
)

const testPassword = "correct-horse"

// recordingNotifier captures notifications instead of delivering them
type recordingNotifier struct {
	mu   sync.Mutex
	sent []*models.Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, notification *models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notification)
	return nil
}

func (n *recordingNotifier) all() []*models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*models.Notification(nil), n.sent...)
}

// testEnv wires every handler onto a router the way the server does
type testEnv struct {
	stores      database.Stores
	tokens      *auth.Tokens
	adminTokens *auth.Tokens
	notifier    *recordingNotifier
	uploadDir   string
	router      *mux.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		stores:      dbtest.New().Stores(),
		tokens:      auth.NewTokens("user-secret", time.Hour),
		adminTokens: auth.NewTokens("admin-secret", time.Hour),
		notifier:    &recordingNotifier{},
		uploadDir:   t.TempDir(),
		router:      mux.NewRouter(),
	}

	logger := zap.NewNop()
	errh := middleware.NewErrorHandler(logger, true)
	authGate := middleware.Auth(env.tokens, errh)
	adminGate := middleware.AdminAuth(env.adminTokens, errh)
	passthrough := func(next http.Handler) http.Handler { return next }

	api := env.router.PathPrefix("/api").Subrouter()
	api.Handle("/disclaimer", errh.Handle(Disclaimer)).Methods(http.MethodGet)

	NewUserHandler(env.stores.Users, env.tokens, env.notifier, logger).
		RegisterRoutes(api.PathPrefix("/users").Subrouter(), errh, authGate, passthrough)
	NewProductHandler(env.stores.Products).
		RegisterRoutes(api.PathPrefix("/products").Subrouter(), errh)
	NewAdminHandler(env.stores, env.adminTokens, AdminConfig{UploadDir: env.uploadDir, MaxUploadBytes: 1 << 20}, env.notifier, logger).
		RegisterRoutes(api.PathPrefix("/admin").Subrouter(), errh, adminGate, passthrough)

	orders := api.PathPrefix("/orders").Subrouter()
	orders.Use(mux.MiddlewareFunc(authGate))
	NewOrderHandler(env.stores.Orders, env.stores.Users, env.notifier, logger).RegisterRoutes(orders, errh)

	payments := api.PathPrefix("/payments").Subrouter()
	payments.Use(mux.MiddlewareFunc(authGate))
	NewPaymentHandler(env.stores.Payments, env.stores.Orders, env.notifier, logger).RegisterRoutes(payments, errh)

	notifications := api.PathPrefix("/notifications").Subrouter()
	notifications.Use(mux.MiddlewareFunc(authGate))
	NewNotificationHandler(env.stores.Notifications).RegisterRoutes(notifications, errh)

	env.router.NotFoundHandler = errh.Handle(NotFound)
	return env
}

// do sends a JSON request with an optional bearer token
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := newTestRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) seedUser(t *testing.T, email string, role models.Role) (*models.User, string) {
	t.Helper()

	hash, err := auth.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	user := &models.User{
		Name:         "Test " + string(role),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Address: &models.Address{
			Line1: "221B Baker Street", City: "Mumbai", State: "MH", PostalCode: "400001",
		},
	}
	if err := e.stores.Users.Create(context.Background(), user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	tokens := e.tokens
	if role == models.RoleAdmin {
		tokens = e.adminTokens
	}
	token, err := tokens.Issue(user)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return user, token
}

func (e *testEnv) seedProduct(t *testing.T, name, category string, price int64, stock int) *models.Product {
	t.Helper()

	p := &models.Product{
		Name: name, Category: category, Price: price, Stock: stock, Active: true, VolumeML: 750, ABV: 40,
	}
	if err := e.stores.Products.Create(context.Background(), p); err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

// decodeData unwraps the success envelope into v
func decodeData(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, w.Body.String())
	}
	if !envelope.Success {
		t.Fatalf("expected success envelope, got %s", w.Body.String())
	}
	if v != nil {
		if err := json.Unmarshal(envelope.Data, v); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
}

// decodeError returns the message of an error envelope
func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var resp middleware.ErrorResponse
	if err := json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&resp); err != nil {
		t.Fatalf("decode error envelope: %v (body %s)", err, w.Body.String())
	}
	if resp.Success {
		t.Fatalf("expected error envelope, got %s", w.Body.String())
	}
	return resp.Message
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, want, w.Body.String())
	}
}
