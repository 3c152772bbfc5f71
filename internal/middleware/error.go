package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/Durgesh-2001/Booze-Delivery/internal/apperror"
	logpkg "github.com/Durgesh-2001/Booze-Delivery/internal/logger"
)

// HandlerFunc is a route handler that reports failure by returning an error
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// ErrorHandler turns errors returned by handlers and gates into JSON responses.
// Error details are only written when disclose is set.
type ErrorHandler struct {
	logger   *zap.Logger
	disclose bool
}

// NewErrorHandler creates an error handler. Pass disclose=false in production.
func NewErrorHandler(logger *zap.Logger, disclose bool) *ErrorHandler {
	return &ErrorHandler{logger: logger, disclose: disclose}
}

// Handle adapts fn to an http.Handler, writing any returned error.
func (h *ErrorHandler) Handle(fn HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			h.Write(w, r, err)
		}
	})
}

// Write maps err to a status code and writes the error envelope.
func (h *ErrorHandler) Write(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperror.From(err)

	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error("request_failed",
			zap.Error(err),
			zap.Int("status_code", appErr.Status),
			zap.String("method", r.Method),
			zap.String("path", logpkg.SanitizePath(r.URL.Path)),
		)
	} else {
		h.logger.Debug("request_rejected",
			zap.String("message", appErr.Message),
			zap.Int("status_code", appErr.Status),
			zap.String("path", logpkg.SanitizePath(r.URL.Path)),
		)
	}

	response := ErrorResponse{
		Success: false,
		Message: appErr.Message,
	}
	if h.disclose {
		response.Error = logpkg.SanitizeString(appErr.Detail(), logpkg.MaxErrorMessageLength)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed_to_encode_error_response",
			zap.Error(err),
			zap.Int("status_code", appErr.Status),
			zap.String("path", logpkg.SanitizePath(r.URL.Path)),
		)
	}
}

// Recover converts a panic anywhere below it into a 500 response.
func (h *ErrorHandler) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				h.logger.Error("panic_recovered",
					zap.Any("panic", rec),
					zap.String("path", logpkg.SanitizePath(r.URL.Path)),
					zap.String("method", r.Method),
				)
				h.Write(w, r, apperror.Internal(fmt.Errorf("panic: %v", rec)))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
