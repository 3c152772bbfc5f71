package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Durgesh-2001/Booze-Delivery/internal/apperror"
	"github.com/Durgesh-2001/Booze-Delivery/internal/database"
	"github.com/Durgesh-2001/Booze-Delivery/internal/middleware"
	"github.com/Durgesh-2001/Booze-Delivery/internal/models"
	"github.com/Durgesh-2001/Booze-Delivery/internal/notify"
	"github.com/Durgesh-2001/Booze-Delivery/internal/validation"
)

// UploadURLPrefix is where stored product images are served from
const UploadURLPrefix = "/uploads/"

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// AdminHandler handles back-office requests
type AdminHandler struct {
	stores         database.Stores
	tokens         TokenIssuer
	uploadDir      string
	maxUploadBytes int64
	dispatch       dispatcher
	logger         *zap.Logger
}

// AdminConfig holds the upload settings of the admin handler
type AdminConfig struct {
	UploadDir      string
	MaxUploadBytes int64
}

// NewAdminHandler creates a new admin handler. tokens must sign with the admin secret.
func NewAdminHandler(stores database.Stores, tokens TokenIssuer, cfg AdminConfig, notifier notify.Notifier, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		stores:         stores,
		tokens:         tokens,
		uploadDir:      cfg.UploadDir,
		maxUploadBytes: cfg.MaxUploadBytes,
		dispatch:       dispatcher{notifier: notifier, logger: logger},
		logger:         logger,
	}
}

// RegisterRoutes registers admin routes. Everything except login sits behind adminGate.
func (h *AdminHandler) RegisterRoutes(r *mux.Router, errh *middleware.ErrorHandler, adminGate, limit Middleware) {
	r.Handle("/login", limit(errh.Handle(h.Login))).Methods(http.MethodPost)

	r.Handle("/products", adminGate(errh.Handle(h.CreateProduct))).Methods(http.MethodPost)
	r.Handle("/products/{id}", adminGate(errh.Handle(h.UpdateProduct))).Methods(http.MethodPut)
	r.Handle("/products/{id}", adminGate(errh.Handle(h.DeleteProduct))).Methods(http.MethodDelete)
	r.Handle("/orders", adminGate(errh.Handle(h.ListOrders))).Methods(http.MethodGet)
	r.Handle("/orders/{id}/status", adminGate(errh.Handle(h.UpdateOrderStatus))).Methods(http.MethodPatch)
	r.Handle("/users", adminGate(errh.Handle(h.ListUsers))).Methods(http.MethodGet)
	r.Handle("/stats", adminGate(errh.Handle(h.Stats))).Methods(http.MethodGet)
}

// Login handles POST /api/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) error {
	user, err := authenticateUser(r, h.stores.Users)
	if err != nil {
		return err
	}
	if !user.IsAdmin() {
		h.logger.Warn("admin_login_denied", zap.String("user_id", user.ID.String()))
		return apperror.Forbidden("Admin access required")
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		return apperror.Internal(err)
	}

	respondJSON(w, http.StatusOK, AuthResponse{User: user, Token: token})
	return nil
}

// ProductInput carries the fields an admin may set. Absent fields are left unchanged.
type ProductInput struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Category    *string  `json:"category,omitempty" validate:"omitempty,max=50"`
	Price       *int64   `json:"price,omitempty" validate:"omitempty,gte=0"`
	VolumeML    *int     `json:"volume_ml,omitempty" validate:"omitempty,gte=0"`
	ABV         *float64 `json:"abv,omitempty" validate:"omitempty,gte=0,lte=100"`
	Stock       *int     `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Active      *bool    `json:"active,omitempty"`
}

// Apply copies the present fields onto p
func (in *ProductInput) Apply(p *models.Product) {
	if in.Name != nil {
		p.Name = validation.SanitizeText(*in.Name)
	}
	if in.Description != nil {
		p.Description = validation.SanitizeText(*in.Description)
	}
	if in.Category != nil {
		p.Category = strings.ToLower(validation.SanitizeText(*in.Category))
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.VolumeML != nil {
		p.VolumeML = *in.VolumeML
	}
	if in.ABV != nil {
		p.ABV = *in.ABV
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
}

// CreateProduct handles POST /api/admin/products
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) error {
	in, image, err := h.readProductInput(r)
	if err != nil {
		return err
	}

	product := &models.Product{Active: true}
	in.Apply(product)
	if product.Name == "" || product.Category == "" || in.Price == nil {
		return apperror.BadRequest("name, category and price are required")
	}

	if image != nil {
		if product.Image, err = h.saveImage(image); err != nil {
			return err
		}
	}

	if err := h.stores.Products.Create(r.Context(), product); err != nil {
		h.removeImage(product.Image)
		return err
	}

	respondJSON(w, http.StatusCreated, product)
	return nil
}

// UpdateProduct handles PUT /api/admin/products/{id}
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}

	in, image, err := h.readProductInput(r)
	if err != nil {
		return err
	}

	product, err := h.stores.Products.GetByID(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		return apperror.NotFound("Product not found")
	}
	if err != nil {
		return err
	}

	in.Apply(product)
	if product.Name == "" || product.Category == "" {
		return apperror.BadRequest("name and category cannot be empty")
	}

	previousImage := product.Image
	if image != nil {
		if product.Image, err = h.saveImage(image); err != nil {
			return err
		}
	}

	if err := h.stores.Products.Update(r.Context(), product); err != nil {
		if image != nil {
			h.removeImage(product.Image)
		}
		return err
	}
	if image != nil {
		h.removeImage(previousImage)
	}

	respondJSON(w, http.StatusOK, product)
	return nil
}

// DeleteProduct handles DELETE /api/admin/products/{id}
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}

	product, err := h.stores.Products.GetByID(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		return apperror.NotFound("Product not found")
	}
	if err != nil {
		return err
	}

	if err := h.stores.Products.Delete(r.Context(), id); err != nil {
		return err
	}
	h.removeImage(product.Image)

	respondJSON(w, http.StatusOK, map[string]string{"id": id.String()})
	return nil
}

// ListOrders handles GET /api/admin/orders
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) error {
	page, pageSize := pagination(r)

	var status *models.OrderStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.OrderStatus(raw)
		if !s.Valid() {
			return apperror.BadRequest("Invalid status filter")
		}
		status = &s
	}

	orders, total, err := h.stores.Orders.List(r.Context(), status, page, pageSize)
	if err != nil {
		return err
	}

	respondJSON(w, http.StatusOK, newPage(orders, page, pageSize, total))
	return nil
}

// UpdateOrderStatusRequest moves an order along the status machine
type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required,order_status"`
}

// UpdateOrderStatus handles PATCH /api/admin/orders/{id}/status
func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}

	var req UpdateOrderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	order, err := h.stores.Orders.Transition(r.Context(), id, req.Status)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return apperror.NotFound("Order not found")
	case errors.Is(err, database.ErrInvalidTransition):
		return apperror.Conflict(fmt.Sprintf("Order cannot move to %s", req.Status))
	case err != nil:
		return err
	}

	h.dispatch.send(r, notify.OrderStatusChanged(order))
	respondJSON(w, http.StatusOK, order)
	return nil
}

// ListUsers handles GET /api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) error {
	page, pageSize := pagination(r)

	users, total, err := h.stores.Users.List(r.Context(), page, pageSize)
	if err != nil {
		return err
	}

	respondJSON(w, http.StatusOK, newPage(users, page, pageSize, total))
	return nil
}

// Stats handles GET /api/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) error {
	stats, err := h.stores.Orders.Stats(r.Context())
	if err != nil {
		return err
	}
	if stats.TotalUsers, err = h.stores.Users.Count(r.Context()); err != nil {
		return err
	}
	if stats.TotalProducts, err = h.stores.Products.Count(r.Context()); err != nil {
		return err
	}

	respondJSON(w, http.StatusOK, stats)
	return nil
}

// readProductInput accepts either a JSON body or a multipart form with an optional image file
func (h *AdminHandler) readProductInput(r *http.Request) (*ProductInput, *multipart.FileHeader, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		var in ProductInput
		if err := decodeJSON(r, &in); err != nil {
			return nil, nil, err
		}
		return &in, nil, nil
	}

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, nil, apperror.TooLarge("Upload too large")
		}
		return nil, nil, apperror.Wrap(http.StatusBadRequest, "Invalid multipart form", err)
	}

	in, err := productInputFromForm(r.MultipartForm.Value)
	if err != nil {
		return nil, nil, err
	}
	if err := validate(in); err != nil {
		return nil, nil, err
	}

	var image *multipart.FileHeader
	if files := r.MultipartForm.File["image"]; len(files) > 0 {
		image = files[0]
	}
	return in, image, nil
}

func productInputFromForm(values map[string][]string) (*ProductInput, error) {
	get := func(key string) (string, bool) {
		v, ok := values[key]
		if !ok || len(v) == 0 {
			return "", false
		}
		return v[0], true
	}

	in := &ProductInput{}
	if v, ok := get("name"); ok {
		in.Name = &v
	}
	if v, ok := get("description"); ok {
		in.Description = &v
	}
	if v, ok := get("category"); ok {
		in.Category = &v
	}
	if v, ok := get("price"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, apperror.BadRequest("price must be a whole number of paise")
		}
		in.Price = &n
	}
	if v, ok := get("volume_ml"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, apperror.BadRequest("volume_ml must be a number")
		}
		in.VolumeML = &n
	}
	if v, ok := get("abv"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, apperror.BadRequest("abv must be a number")
		}
		in.ABV = &f
	}
	if v, ok := get("stock"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return nil, apperror.BadRequest("stock must be a number")
		}
		in.Stock = &n
	}
	if v, ok := get("active"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, apperror.BadRequest("active must be true or false")
		}
		in.Active = &b
	}
	return in, nil
}

// saveImage stores an uploaded image under a random name and returns its public path.
func (h *AdminHandler) saveImage(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", apperror.Wrap(http.StatusBadRequest, "Unreadable image", err)
	}
	defer src.Close()
	return h.storeImage(src, fh.Size)
}

// storeImage sniffs src and copies it into the upload dir. A failed write
// leaves no file behind.
func (h *AdminHandler) storeImage(src io.Reader, size int64) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", apperror.Wrap(http.StatusBadRequest, "Unreadable image", err)
	}
	ext, ok := imageExtensions[http.DetectContentType(head[:n])]
	if !ok {
		return "", apperror.BadRequest("image must be a JPEG, PNG, WebP or GIF file")
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.NewString() + ext
	path := filepath.Join(h.uploadDir, name)
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}

	_, err = io.Copy(dst, io.MultiReader(bytes.NewReader(head[:n]), src))
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			h.logger.Warn("failed_to_remove_partial_image", zap.String("file", name), zap.Error(rmErr))
		}
		return "", fmt.Errorf("write image file: %w", err)
	}

	h.logger.Info("product_image_stored", zap.String("file", name), zap.Int64("size", size))
	return UploadURLPrefix + name, nil
}

// removeImage deletes a stored image. Paths outside the upload prefix are ignored.
func (h *AdminHandler) removeImage(publicPath string) {
	if !strings.HasPrefix(publicPath, UploadURLPrefix) {
		return
	}
	name := filepath.Base(strings.TrimPrefix(publicPath, UploadURLPrefix))
	if name == "." || name == "/" {
		return
	}
	if err := os.Remove(filepath.Join(h.uploadDir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		h.logger.Warn("product_image_remove_failed", zap.String("file", name), zap.Error(err))
	}
}
