package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Durgesh-2001/Booze-Delivery/internal/apperror"
	"github.com/Durgesh-2001/Booze-Delivery/internal/database"
	"github.com/Durgesh-2001/Booze-Delivery/internal/models"
	"github.com/Durgesh-2001/Booze-Delivery/internal/notify"
	"github.com/Durgesh-2001/Booze-Delivery/internal/request"
	"github.com/Durgesh-2001/Booze-Delivery/internal/validation"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Middleware wraps a handler. Gates and rate limiters are passed to RegisterRoutes in this form.
type Middleware func(http.Handler) http.Handler

// Page is a paginated listing
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func newPage[T any](items []T, page, pageSize, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return Page[T]{Items: items, Page: page, PageSize: pageSize, Total: total, TotalPages: totalPages}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// decodeJSON decodes the body into v and validates it
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperror.TooLarge("Request body too large")
		}
		return apperror.Wrap(http.StatusBadRequest, "Invalid request body", err)
	}
	return validate(v)
}

func validate(v any) error {
	if err := validation.Struct(v); err != nil {
		return apperror.BadRequest(err.Error())
	}
	return nil
}

// pathID parses the named mux variable as a UUID
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, apperror.BadRequest(fmt.Sprintf("Invalid %s", name))
	}
	return id, nil
}

// pagination reads page and page_size, falling back to defaults on bad input
func pagination(r *http.Request) (int, int) {
	page := 1
	pageSize := defaultPageSize

	if p := r.URL.Query().Get("page"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			page = min(n, database.MaxPage)
		}
	}
	if ps := r.URL.Query().Get("page_size"); ps != "" {
		if n, err := strconv.Atoi(ps); err == nil && n > 0 {
			pageSize = min(n, maxPageSize)
		}
	}
	return page, pageSize
}

// identity returns the caller attached by the auth gate
func identity(r *http.Request) (*models.Identity, error) {
	id := request.IdentityFromContext(r)
	if id == nil {
		return nil, apperror.Unauthorized("Authentication required")
	}
	return id, nil
}

// dispatcher sends notifications without failing the request that triggered them
type dispatcher struct {
	notifier notify.Notifier
	logger   *zap.Logger
}

func (d dispatcher) send(r *http.Request, n *models.Notification) {
	if d.notifier == nil || n == nil {
		return
	}
	if err := d.notifier.Notify(r.Context(), n); err != nil {
		d.logger.Warn("notification_failed",
			zap.String("user_id", n.UserID.String()),
			zap.String("kind", string(n.Kind)),
			zap.Error(err),
		)
	}
}
