package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/Durgesh-2001/Booze-Delivery/internal/apperror"
	logpkg "github.com/Durgesh-2001/Booze-Delivery/internal/logger"
)

// CORSRejectedMessage describes a request from an unlisted origin
const CORSRejectedMessage = "Not allowed by CORS"

// ErrOriginNotAllowed is the cause reported for a rejected origin. It surfaces
// as a 500 whose detail is only disclosed outside production.
var ErrOriginNotAllowed = errors.New(CORSRejectedMessage)

var (
	corsAllowedMethods = []string{
		http.MethodGet, http.MethodPost, http.MethodPut,
		http.MethodDelete, http.MethodPatch, http.MethodOptions,
	}
	corsAllowedHeaders = []string{"Content-Type", "Authorization"}
)

// ParseAllowedOrigins splits a comma-separated origin list, trimming whitespace.
// Empty and repeated entries are dropped; order is preserved.
func ParseAllowedOrigins(raw string) []string {
	origins := []string{}
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		if _, dup := seen[origin]; dup {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	return origins
}

// OriginAllowlist is the immutable set of origins allowed to make cross-origin requests.
// Matching is exact and case-sensitive.
type OriginAllowlist struct {
	origins []string
	set     map[string]struct{}
}

// NewOriginAllowlist builds an allowlist from origins
func NewOriginAllowlist(origins []string) *OriginAllowlist {
	a := &OriginAllowlist{
		origins: append([]string(nil), origins...),
		set:     make(map[string]struct{}, len(origins)),
	}
	for _, o := range origins {
		a.set[o] = struct{}{}
	}
	return a
}

// Allows reports whether origin is in the list
func (a *OriginAllowlist) Allows(origin string) bool {
	_, ok := a.set[origin]
	return ok
}

// Origins returns a copy of the configured origins
func (a *OriginAllowlist) Origins() []string {
	return append([]string(nil), a.origins...)
}

// CORS gates every request on its Origin header. Requests without an Origin pass through,
// listed origins get credentialed CORS headers (preflights are answered here), and
// anything else is rejected as a server error before reaching the router.
func CORS(allowlist *OriginAllowlist, errh *ErrorHandler, logger *zap.Logger) func(http.Handler) http.Handler {
	logger.Info("cors_initialized", zap.Strings("allowed_origins", allowlist.Origins()))

	c := cors.New(cors.Options{
		AllowOriginFunc:  allowlist.Allows,
		AllowedMethods:   corsAllowedMethods,
		AllowedHeaders:   corsAllowedHeaders,
		AllowCredentials: true,
		MaxAge:           86400,
	})

	return func(next http.Handler) http.Handler {
		withHeaders := c.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && !allowlist.Allows(origin) {
				logger.Warn("cors_origin_rejected",
					zap.String("origin", logpkg.SanitizeOrigin(origin)),
					zap.String("method", r.Method),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
				)
				errh.Write(w, r, apperror.Internal(ErrOriginNotAllowed))
				return
			}
			withHeaders.ServeHTTP(w, r)
		})
	}
}
