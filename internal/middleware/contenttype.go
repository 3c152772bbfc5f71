package middleware

import (
	"net/http"
	"strings"

	"github.com/Durgesh-2001/Booze-Delivery/internal/apperror"
)

// ContentType validates Content-Type headers for requests with bodies.
// JSON is always accepted; multipart/form-data is accepted for image uploads.
// Bodyless requests are not checked.
func ContentType(errh *ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hasBody(r) {
				contentType := strings.ToLower(r.Header.Get("Content-Type"))
				if contentType == "" {
					errh.Write(w, r, apperror.BadRequest("Content-Type header is required"))
					return
				}
				if !strings.HasPrefix(contentType, "application/json") &&
					!strings.HasPrefix(contentType, "multipart/form-data") {
					errh.Write(w, r, apperror.New(http.StatusUnsupportedMediaType, "Content-Type must be application/json or multipart/form-data"))
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return r.ContentLength != 0
	}
	return false
}
