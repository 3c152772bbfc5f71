package request

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/Durgesh-2001/Booze-Delivery/internal/models"
)

type contextKey string

const identityContextKey contextKey = "identity"

// IdentityContextKey returns the context key used for the identity. Exposed for tests that inject non-identity values.
func IdentityContextKey() contextKey { return identityContextKey }

// ClientIP returns the client host without its port. X-Forwarded-For and
// X-Real-IP are honoured only when trustForwarded is set, i.e. behind a proxy
// that overwrites them.
func ClientIP(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

// WithIdentity returns a context with the verified token identity attached.
func WithIdentity(ctx context.Context, id *models.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext returns the identity from the request context, or nil if missing or wrong type.
func IdentityFromContext(r *http.Request) *models.Identity {
	id, _ := r.Context().Value(identityContextKey).(*models.Identity)
	return id
}
