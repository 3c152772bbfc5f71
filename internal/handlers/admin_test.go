package handlers

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Durgesh-2001/Booze-Delivery/internal/models"
)

// pngHeader is enough for content sniffing to report image/png
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func multipartRequest(t *testing.T, method, path, token string, fields map[string]string, image []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "bottle.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(image); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestAdminHandler_Login(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	admin, _ := env.seedUser(t, "admin@example.com", models.RoleAdmin)
	env.seedUser(t, "customer@example.com", models.RoleCustomer)

	w := env.do(t, http.MethodPost, "/api/admin/login",
		map[string]any{"email": "admin@example.com", "password": testPassword}, "")
	expectStatus(t, w, http.StatusOK)
	var resp AuthResponse
	decodeData(t, w, &resp)

	id, err := env.adminTokens.Verify(resp.Token)
	if err != nil {
		t.Fatalf("admin token not signed with admin secret: %v", err)
	}
	if id.UserID != admin.ID || id.Role != models.RoleAdmin {
		t.Errorf("identity = %+v", id)
	}
	if _, err := env.tokens.Verify(resp.Token); err == nil {
		t.Error("admin token must not verify with the customer secret")
	}

	w = env.do(t, http.MethodPost, "/api/admin/login",
		map[string]any{"email": "customer@example.com", "password": testPassword}, "")
	expectStatus(t, w, http.StatusForbidden)

	w = env.do(t, http.MethodPost, "/api/admin/login",
		map[string]any{"email": "admin@example.com", "password": "nope-nope"}, "")
	expectStatus(t, w, http.StatusUnauthorized)
}

func TestAdminHandler_Gate(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	_, customerToken := env.seedUser(t, "customer@example.com", models.RoleCustomer)
	customer, _ := env.stores.Users.GetByEmail(context.Background(), "customer@example.com")

	// a customer-role token signed with the admin secret still lacks the role
	forged, err := env.adminTokens.Issue(customer)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{name: "no token", wantStatus: http.StatusUnauthorized},
		{name: "customer secret", token: customerToken, wantStatus: http.StatusUnauthorized},
		{name: "admin secret customer role", token: forged, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := env.do(t, http.MethodGet, "/api/admin/stats", nil, tt.token)
			expectStatus(t, w, tt.wantStatus)
		})
	}
}

func TestAdminHandler_ProductLifecycle(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	_, token := env.seedUser(t, "admin@example.com", models.RoleAdmin)

	req := multipartRequest(t, http.MethodPost, "/api/admin/products", token, map[string]string{
		"name": "Old Monk", "category": "Rum", "price": "45000", "stock": "12", "abv": "42.8", "volume_ml": "750",
	}, pngHeader)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	expectStatus(t, w, http.StatusCreated)

	var created models.Product
	decodeData(t, w, &created)
	if created.Category != "rum" || created.Price != 45000 || created.Stock != 12 || !created.Active {
		t.Errorf("unexpected product %+v", created)
	}
	if !strings.HasPrefix(created.Image, UploadURLPrefix) || !strings.HasSuffix(created.Image, ".png") {
		t.Fatalf("image path = %q", created.Image)
	}
	stored := filepath.Join(env.uploadDir, strings.TrimPrefix(created.Image, UploadURLPrefix))
	if _, err := os.Stat(stored); err != nil {
		t.Fatalf("image not stored: %v", err)
	}

	w = env.do(t, http.MethodPut, "/api/admin/products/"+created.ID.String(),
		map[string]any{"price": 47500, "active": false}, token)
	expectStatus(t, w, http.StatusOK)
	var updated models.Product
	decodeData(t, w, &updated)
	if updated.Price != 47500 || updated.Active || updated.Name != "Old Monk" || updated.Image != created.Image {
		t.Errorf("unexpected update result %+v", updated)
	}

	w = env.do(t, http.MethodDelete, "/api/admin/products/"+created.ID.String(), nil, token)
	expectStatus(t, w, http.StatusOK)
	if _, err := os.Stat(stored); !os.IsNotExist(err) {
		t.Errorf("image should be removed with the product, stat err = %v", err)
	}

	w = env.do(t, http.MethodDelete, "/api/admin/products/"+created.ID.String(), nil, token)
	expectStatus(t, w, http.StatusNotFound)
}

func TestAdminHandler_CreateProductValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	_, token := env.seedUser(t, "admin@example.com", models.RoleAdmin)

	tests := []struct {
		name   string
		fields map[string]string
		image  []byte
	}{
		{name: "missing price", fields: map[string]string{"name": "Gin", "category": "gin"}},
		{name: "non-numeric price", fields: map[string]string{"name": "Gin", "category": "gin", "price": "cheap"}},
		{name: "negative stock", fields: map[string]string{"name": "Gin", "category": "gin", "price": "100", "stock": "-1"}},
		{name: "abv out of range", fields: map[string]string{"name": "Gin", "category": "gin", "price": "100", "abv": "140"}},
		{name: "not an image", fields: map[string]string{"name": "Gin", "category": "gin", "price": "100"}, image: []byte("#!/bin/sh\necho hi\n")},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, multipartRequest(t, http.MethodPost, "/api/admin/products", token, tt.fields, tt.image))
			expectStatus(t, w, http.StatusBadRequest)
		})
	}

	entries, err := os.ReadDir(env.uploadDir)
	if err == nil && len(entries) != 0 {
		t.Errorf("rejected uploads left %d files behind", len(entries))
	}
}

func TestAdminHandler_Orders(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	_, adminToken := env.seedUser(t, "admin@example.com", models.RoleAdmin)
	_, token := env.seedUser(t, "buyer@example.com", models.RoleCustomer)
	p := env.seedProduct(t, "Old Monk", "rum", 45000, 10)
	first := placeOrder(t, env, token, p, 1)
	placeOrder(t, env, token, p, 2)

	w := env.do(t, http.MethodGet, "/api/admin/orders", nil, adminToken)
	expectStatus(t, w, http.StatusOK)
	var page Page[models.Order]
	decodeData(t, w, &page)
	if page.Total != 2 {
		t.Errorf("total = %d, want 2", page.Total)
	}

	w = env.do(t, http.MethodGet, "/api/admin/orders?status=unknown", nil, adminToken)
	expectStatus(t, w, http.StatusBadRequest)

	steps := []models.OrderStatus{
		models.OrderStatusConfirmed, models.OrderStatusOutForDelivery, models.OrderStatusDelivered,
	}
	for _, status := range steps {
		w = env.do(t, http.MethodPatch, "/api/admin/orders/"+first.ID.String()+"/status",
			map[string]any{"status": status}, adminToken)
		expectStatus(t, w, http.StatusOK)
	}

	w = env.do(t, http.MethodPatch, "/api/admin/orders/"+first.ID.String()+"/status",
		map[string]any{"status": models.OrderStatusCancelled}, adminToken)
	expectStatus(t, w, http.StatusConflict)

	w = env.do(t, http.MethodPatch, "/api/admin/orders/"+first.ID.String()+"/status",
		map[string]any{"status": "lost"}, adminToken)
	expectStatus(t, w, http.StatusBadRequest)

	w = env.do(t, http.MethodPatch, "/api/admin/orders/"+uuid.NewString()+"/status",
		map[string]any{"status": models.OrderStatusConfirmed}, adminToken)
	expectStatus(t, w, http.StatusNotFound)

	w = env.do(t, http.MethodGet, "/api/admin/orders?status=delivered", nil, adminToken)
	expectStatus(t, w, http.StatusOK)
	decodeData(t, w, &page)
	if page.Total != 1 || page.Items[0].ID != first.ID {
		t.Errorf("delivered filter = %+v", page)
	}

	var statusUpdates int
	for _, n := range env.notifier.all() {
		if n.Title == "Order update" {
			statusUpdates++
		}
	}
	if statusUpdates != len(steps) {
		t.Errorf("status notifications = %d, want %d", statusUpdates, len(steps))
	}
}

func TestAdminHandler_UsersAndStats(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	_, adminToken := env.seedUser(t, "admin@example.com", models.RoleAdmin)
	_, token := env.seedUser(t, "buyer@example.com", models.RoleCustomer)
	p := env.seedProduct(t, "Old Monk", "rum", 45000, 10)
	env.seedProduct(t, "Amrut Fusion", "whisky", 350000, 10)

	paid := placeOrder(t, env, token, p, 2)
	placeOrder(t, env, token, p, 1)
	w := env.do(t, http.MethodPost, "/api/payments", map[string]any{"order_id": paid.ID, "method": "card"}, token)
	expectStatus(t, w, http.StatusCreated)

	w = env.do(t, http.MethodGet, "/api/admin/users", nil, adminToken)
	expectStatus(t, w, http.StatusOK)
	var users Page[models.User]
	decodeData(t, w, &users)
	if users.Total != 2 {
		t.Errorf("users total = %d, want 2", users.Total)
	}

	w = env.do(t, http.MethodGet, "/api/admin/stats", nil, adminToken)
	expectStatus(t, w, http.StatusOK)
	var stats models.OrderStats
	decodeData(t, w, &stats)
	if stats.TotalOrders != 2 || stats.TotalUsers != 2 || stats.TotalProducts != 2 {
		t.Errorf("counts = %+v", stats)
	}
	if stats.TotalRevenue != 90000 {
		t.Errorf("revenue = %d, want 90000", stats.TotalRevenue)
	}
	if stats.ByStatus[models.OrderStatusConfirmed] != 1 || stats.ByStatus[models.OrderStatusPending] != 1 {
		t.Errorf("by status = %v", stats.ByStatus)
	}
}

// failingReader yields data and then fails, like a client dropping mid-upload
type failingReader struct {
	data []byte
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestAdminHandler_StoreImageRemovesPartialFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	h := &AdminHandler{uploadDir: dir, logger: zap.NewNop()}
	body := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 2048)...)
	connReset := errors.New("connection reset by peer")

	_, err := h.storeImage(&failingReader{data: body, err: connReset}, int64(len(body)))
	if !errors.Is(err, connReset) {
		t.Fatalf("storeImage() error = %v, want %v", err, connReset)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("failed upload left %d files behind", len(entries))
	}

	path, err := h.storeImage(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		t.Fatalf("storeImage() error = %v", err)
	}
	info, err := os.Stat(filepath.Join(dir, strings.TrimPrefix(path, UploadURLPrefix)))
	if err != nil || info.Size() != int64(len(body)) {
		t.Errorf("stored file = %v, %v, want %d bytes", info, err, len(body))
	}
}
