package middleware

import (
	"net/http"
	"strings"

	"github.com/Durgesh-2001/Booze-Delivery/internal/apperror"
	"github.com/Durgesh-2001/Booze-Delivery/internal/models"
	"github.com/Durgesh-2001/Booze-Delivery/internal/request"
)

// TokenVerifier validates a raw bearer token. *auth.Tokens satisfies it.
type TokenVerifier interface {
	Verify(raw string) (*models.Identity, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header
func BearerToken(r *http.Request) (string, *apperror.Error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", apperror.Unauthorized("Missing Authorization header")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", apperror.Unauthorized("Invalid Authorization header format")
	}
	return parts[1], nil
}

// Auth creates authentication middleware that validates bearer tokens.
// On success the decoded identity is attached to the request context.
func Auth(verifier TokenVerifier, errh *ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, appErr := authenticate(verifier, r)
			if appErr != nil {
				errh.Write(w, r, appErr)
				return
			}
			next.ServeHTTP(w, r.WithContext(request.WithIdentity(r.Context(), id)))
		})
	}
}

// AdminAuth is Auth that additionally requires the admin role
func AdminAuth(verifier TokenVerifier, errh *ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, appErr := authenticate(verifier, r)
			if appErr != nil {
				errh.Write(w, r, appErr)
				return
			}
			if id.Role != models.RoleAdmin {
				errh.Write(w, r, apperror.Forbidden("Admin access required"))
				return
			}
			next.ServeHTTP(w, r.WithContext(request.WithIdentity(r.Context(), id)))
		})
	}
}

func authenticate(verifier TokenVerifier, r *http.Request) (*models.Identity, *apperror.Error) {
	raw, appErr := BearerToken(r)
	if appErr != nil {
		return nil, appErr
	}
	id, err := verifier.Verify(raw)
	if err != nil {
		return nil, apperror.Wrap(http.StatusUnauthorized, "Invalid or expired token", err)
	}
	return id, nil
}
