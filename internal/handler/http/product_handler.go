package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sainikcanteen/storefront/internal/product"
	"github.com/sainikcanteen/storefront/internal/user"
)

type ProductRequest struct {
	Name          string   `json:"name" validate:"required,min=2"`
	SKU           string   `json:"sku" validate:"required"`
	Brand         string   `json:"brand"`
	Category      string   `json:"category" validate:"required"`
	Description   string   `json:"description"`
	Price         float64  `json:"price" validate:"required,gte=0"`
	DiscountPrice *float64 `json:"discount_price" validate:"omitempty,gte=0"`
	Stock         int      `json:"stock" validate:"gte=0"`
	Image         string   `json:"image" validate:"omitempty,url"`
	IsActive      *bool    `json:"is_active"`
	IsFeatured    bool     `json:"is_featured"`
}

type ProductHandler struct {
	products   product.Service
	adminEmail string
	validate   *validator.Validate
}

func NewProductHandler(products product.Service, adminEmail string) *ProductHandler {
	return &ProductHandler{products: products, adminEmail: adminEmail, validate: validator.New()}
}

func (h *ProductHandler) handleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	params := product.ListParams{
		Search:   query.Get("search"),
		Category: query.Get("category"),
	}
	if page, err := strconv.Atoi(query.Get("page")); err == nil {
		params.Page = page
	}
	if limit, err := strconv.Atoi(query.Get("limit")); err == nil {
		params.Limit = limit
	}
	if featuredStr := query.Get("isFeatured"); featuredStr != "" {
		featured, err := strconv.ParseBool(featuredStr)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid isFeatured parameter")
			return
		}
		params.Featured = &featured
	}

	result, err := h.products.List(r.Context(), params)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products")
		respondWithError(w, http.StatusInternalServerError, "Failed to list products")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"products":   result.Products,
		"page":       result.Page,
		"totalPages": result.TotalPages,
		"total":      result.Total,
		"hasMore":    result.HasMore,
	})
}

func (h *ProductHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	// Admins see inactive products; customers get a 404 for them.
	includeInactive := false
	if principal, ok := PrincipalFromContext(r.Context()); ok && h.isAdmin(principal) {
		includeInactive = true
	}

	p, err := h.products.GetByID(r.Context(), id, includeInactive)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Product not found")
			return
		}
		log.Error().Err(err).Msg("Failed to get product")
		respondWithError(w, http.StatusInternalServerError, "Failed to get product")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "product": p})
}

func (h *ProductHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	requestPayload, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	p := requestToProduct(requestPayload)

	created, err := h.products.Create(r.Context(), p)
	if err != nil {
		if errors.Is(err, product.ErrSKUExists) {
			respondWithError(w, http.StatusBadRequest, "Product with this SKU already exists")
			return
		}
		log.Error().Err(err).Msg("Failed to create product")
		respondWithError(w, http.StatusInternalServerError, "Failed to create product")
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "product": created})
}

func (h *ProductHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	requestPayload, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	p := requestToProduct(requestPayload)
	p.ID = id

	if err := h.products.Update(r.Context(), p); err != nil {
		switch {
		case errors.Is(err, product.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Product not found")
		case errors.Is(err, product.ErrSKUExists):
			respondWithError(w, http.StatusBadRequest, "Product with this SKU already exists")
		default:
			log.Error().Err(err).Msg("Failed to update product")
			respondWithError(w, http.StatusInternalServerError, "Failed to update product")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "product": p})
}

func (h *ProductHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.FromString(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Product not found")
			return
		}
		log.Error().Err(err).Msg("Failed to delete product")
		respondWithError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Product deleted"})
}

func (h *ProductHandler) decodeProduct(w http.ResponseWriter, r *http.Request) (*ProductRequest, bool) {
	var requestPayload ProductRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&requestPayload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return nil, false
	}

	if err := h.validate.Struct(requestPayload); err != nil {
		respondValidationError(w, err)
		return nil, false
	}
	return &requestPayload, true
}

func (h *ProductHandler) isAdmin(principal *user.User) bool {
	if principal.Role == user.RoleAdmin {
		return true
	}
	return h.adminEmail != "" && strings.EqualFold(principal.Email, h.adminEmail)
}

func requestToProduct(req *ProductRequest) *product.Product {
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	return &product.Product{
		Name:          req.Name,
		SKU:           req.SKU,
		Brand:         req.Brand,
		Category:      req.Category,
		Description:   req.Description,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		Stock:         req.Stock,
		Image:         req.Image,
		IsActive:      isActive,
		IsFeatured:    req.IsFeatured,
	}
}
