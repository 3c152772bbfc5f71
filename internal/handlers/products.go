package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Durgesh-2001/Booze-Delivery/internal/apperror"
	"github.com/Durgesh-2001/Booze-Delivery/internal/database"
	"github.com/Durgesh-2001/Booze-Delivery/internal/middleware"
	"github.com/Durgesh-2001/Booze-Delivery/internal/models"
)

// ProductHandler serves the public catalog
type ProductHandler struct {
	products database.ProductStore
}

// NewProductHandler creates a new product handler
func NewProductHandler(products database.ProductStore) *ProductHandler {
	return &ProductHandler{products: products}
}

// RegisterRoutes registers catalog routes
func (h *ProductHandler) RegisterRoutes(r *mux.Router, errh *middleware.ErrorHandler) {
	r.Handle("", errh.Handle(h.ListProducts)).Methods(http.MethodGet)
	r.Handle("/", errh.Handle(h.ListProducts)).Methods(http.MethodGet)
	r.Handle("/categories", errh.Handle(h.ListCategories)).Methods(http.MethodGet)
	r.Handle("/{id}", errh.Handle(h.GetProduct)).Methods(http.MethodGet)
}

// ListProducts handles GET /api/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) error {
	page, pageSize := pagination(r)
	filter := models.ProductFilter{
		Category:   strings.TrimSpace(r.URL.Query().Get("category")),
		Query:      strings.TrimSpace(r.URL.Query().Get("q")),
		ActiveOnly: true,
		Page:       page,
		PageSize:   pageSize,
	}

	products, total, err := h.products.List(r.Context(), filter)
	if err != nil {
		return err
	}

	respondJSON(w, http.StatusOK, newPage(products, page, pageSize, total))
	return nil
}

// ListCategories handles GET /api/products/categories
func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) error {
	categories, err := h.products.Categories(r.Context())
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, categories)
	return nil
}

// GetProduct handles GET /api/products/{id}. Inactive products are hidden.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}

	product, err := h.products.GetByID(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) || (err == nil && !product.Active) {
		return apperror.NotFound("Product not found")
	}
	if err != nil {
		return err
	}

	respondJSON(w, http.StatusOK, product)
	return nil
}
