package middleware

import (
	"net/http"
	"strings"

	"github.com/Durgesh-2001/Booze-Delivery/internal/apperror"
)

const (
	// DefaultMaxRequestSize is the default maximum request body size (1MB)
	DefaultMaxRequestSize int64 = 1 << 20
)

// MaxRequestSize limits the size of request bodies. Multipart uploads get
// uploadBytes plus headroom for the form fields; everything else gets maxBytes.
func MaxRequestSize(maxBytes, uploadBytes int64, errh *ErrorHandler) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}
	if uploadBytes < maxBytes {
		uploadBytes = maxBytes
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limit := maxBytes
			if isMultipart(r) {
				limit = uploadBytes + DefaultMaxRequestSize
			}

			if r.ContentLength > limit {
				errh.Write(w, r, apperror.TooLarge("Request Entity Too Large"))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data")
}
