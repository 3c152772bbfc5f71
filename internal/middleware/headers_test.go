package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	handler := SecurityHeaders(true)(okHandler(nil))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	for header, want := range map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Content-Security-Policy": "default-src 'none'",
	} {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("HSTS set on plain HTTP: %q", got)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/uploads/beer.png", nil))
	if got := w.Header().Get("Cross-Origin-Resource-Policy"); got != "cross-origin" {
		t.Errorf("Cross-Origin-Resource-Policy = %q, want cross-origin", got)
	}
}

func TestContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		method      string
		contentType string
		body        string
		wantStatus  int
	}{
		{"GET without body", http.MethodGet, "", "", http.StatusOK},
		{"JSON post", http.MethodPost, "application/json; charset=utf-8", `{}`, http.StatusOK},
		{"multipart post", http.MethodPost, "multipart/form-data; boundary=x", "--x--", http.StatusOK},
		{"missing content type", http.MethodPost, "", `{}`, http.StatusBadRequest},
		{"text body", http.MethodPut, "text/plain", "hi", http.StatusUnsupportedMediaType},
		{"empty PATCH", http.MethodPatch, "", "", http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := ContentType(NewErrorHandler(zap.NewNop(), false))(okHandler(nil))
			req := httptest.NewRequest(tt.method, "/api/orders", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestMaxRequestSize(t *testing.T) {
	t.Parallel()

	errh := NewErrorHandler(zap.NewNop(), false)
	handler := MaxRequestSize(16, 64, errh)(okHandler(nil))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(strings.Repeat("x", 32))))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("JSON over limit: status = %d, want 413", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/admin/products", strings.NewReader(strings.Repeat("x", 32)))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("multipart within upload limit: status = %d, want 200", w.Code)
	}
}
