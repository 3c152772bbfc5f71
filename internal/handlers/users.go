package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Durgesh-2001/Booze-Delivery/internal/apperror"
	"github.com/Durgesh-2001/Booze-Delivery/internal/auth"
	"github.com/Durgesh-2001/Booze-Delivery/internal/database"
	"github.com/Durgesh-2001/Booze-Delivery/internal/middleware"
	"github.com/Durgesh-2001/Booze-Delivery/internal/models"
	"github.com/Durgesh-2001/Booze-Delivery/internal/notify"
	"github.com/Durgesh-2001/Booze-Delivery/internal/validation"
)

const invalidCredentials = "Invalid email or password"

// TokenIssuer signs bearer tokens for authenticated users
type TokenIssuer interface {
	Issue(user *models.User) (string, error)
}

// UserHandler handles account requests
type UserHandler struct {
	users    database.UserStore
	tokens   TokenIssuer
	dispatch dispatcher
}

// NewUserHandler creates a new user handler
func NewUserHandler(users database.UserStore, tokens TokenIssuer, notifier notify.Notifier, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:    users,
		tokens:   tokens,
		dispatch: dispatcher{notifier: notifier, logger: logger},
	}
}

// RegisterRequest is the registration payload
type RegisterRequest struct {
	Name     string  `json:"name" validate:"required,min=2,max=100"`
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,max=20"`
}

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest changes the fields that are present
type UpdateProfileRequest struct {
	Name    *string         `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Phone   *string         `json:"phone,omitempty" validate:"omitempty,max=20"`
	Address *models.Address `json:"address,omitempty"`
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// RegisterRoutes registers account routes. Profile routes sit behind authGate; register and login behind limit.
func (h *UserHandler) RegisterRoutes(r *mux.Router, errh *middleware.ErrorHandler, authGate, limit Middleware) {
	r.Handle("/register", limit(errh.Handle(h.Register))).Methods(http.MethodPost)
	r.Handle("/login", limit(errh.Handle(h.Login))).Methods(http.MethodPost)
	r.Handle("/profile", authGate(errh.Handle(h.GetProfile))).Methods(http.MethodGet)
	r.Handle("/profile", authGate(errh.Handle(h.UpdateProfile))).Methods(http.MethodPut)
}

// Register handles POST /api/users/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) error {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return apperror.Internal(err)
	}

	user := &models.User{
		Name:         validation.SanitizeText(req.Name),
		Email:        validation.NormalizeEmail(req.Email),
		PasswordHash: hash,
		Phone:        req.Phone,
		Role:         models.RoleCustomer,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return apperror.Conflict("Email already registered")
		}
		return err
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		return apperror.Internal(err)
	}

	h.dispatch.send(r, notify.Welcome(user))
	respondJSON(w, http.StatusCreated, AuthResponse{User: user, Token: token})
	return nil
}

// Login handles POST /api/users/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) error {
	user, err := authenticateUser(r, h.users)
	if err != nil {
		return err
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		return apperror.Internal(err)
	}

	respondJSON(w, http.StatusOK, AuthResponse{User: user, Token: token})
	return nil
}

// GetProfile handles GET /api/users/profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) error {
	user, err := h.currentUser(r)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, user)
	return nil
}

// UpdateProfile handles PUT /api/users/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) error {
	var req UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	user, err := h.currentUser(r)
	if err != nil {
		return err
	}

	if req.Name != nil {
		user.Name = validation.SanitizeText(*req.Name)
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.Address != nil {
		user.Address = req.Address
	}

	if err := h.users.Update(r.Context(), user); err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, user)
	return nil
}

func (h *UserHandler) currentUser(r *http.Request) (*models.User, error) {
	id, err := identity(r)
	if err != nil {
		return nil, err
	}
	user, err := h.users.GetByID(r.Context(), id.UserID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperror.NotFound("User not found")
	}
	return user, err
}

// authenticateUser decodes a LoginRequest and checks it against the store.
// Unknown emails and wrong passwords produce the same error.
func authenticateUser(r *http.Request, users database.UserStore) (*models.User, error) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}

	user, err := users.GetByEmail(r.Context(), validation.NormalizeEmail(req.Email))
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperror.Unauthorized(invalidCredentials)
	}
	if err != nil {
		return nil, err
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		return nil, apperror.Wrap(http.StatusUnauthorized, invalidCredentials, err)
	}
	return user, nil
}
