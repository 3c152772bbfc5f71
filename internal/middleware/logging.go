package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	logpkg "github.com/Durgesh-2001/Booze-Delivery/internal/logger"
	"github.com/Durgesh-2001/Booze-Delivery/internal/request"
)

// Logging logs every request and raises failed authentication and
// rate limit responses as warnings for monitoring. trustProxy selects whether
// forwarded headers name the client.
func Logging(logger *zap.Logger, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			status := wrapped.statusCode
			ip := logpkg.SanitizeString(request.ClientIP(r, trustProxy), logpkg.MaxGeneralStringLength)
			path := logpkg.SanitizePath(r.URL.Path)

			logger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", path),
				zap.Int("status_code", status),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			)

			switch status {
			case http.StatusUnauthorized, http.StatusForbidden:
				logger.Warn("security_event",
					zap.Int("status_code", status),
					zap.String("method", r.Method),
					zap.String("path", path),
					zap.String("ip", ip),
				)
			case http.StatusTooManyRequests:
				logger.Warn("rate_limit_violation",
					zap.String("method", r.Method),
					zap.String("path", path),
					zap.String("ip", ip),
				)
			}
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
