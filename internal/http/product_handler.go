package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/service"
)

type Catalog interface {
	ListProducts(ctx context.Context, f service.ProductFilter) ([]domain.Product, int, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, patch json.RawMessage) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ActiveOffers(ctx context.Context) ([]domain.Offer, error)
	CreateOffer(ctx context.Context, o *domain.Offer) (*domain.Offer, error)
	DeleteOffer(ctx context.Context, id string) error
}

type ProductHandler struct {
	catalog Catalog
	timeout time.Duration
}

func NewProductHandler(catalog Catalog, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

type ProductsResponse struct {
	Products []domain.Product `json:"products"`
	Total    int              `json:"total"`
}

type ProductResponse struct {
	Product *domain.Product `json:"product"`
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	filter, ok := parseProductFilter(w, r)
	if !ok {
		return
	}

	products, total, err := h.catalog.ListProducts(ctx, filter)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}

	respondJSON(w, http.StatusOK, &ProductsResponse{Products: products, Total: total})
}

func parseProductFilter(w http.ResponseWriter, r *http.Request) (service.ProductFilter, bool) {
	q := r.URL.Query()
	filter := service.ProductFilter{
		Category: q.Get("category"),
		Type:     domain.ProductType(q.Get("type")),
		Search:   q.Get("search"),
	}

	if v := q.Get("featured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_featured", "featured must be true or false")
			return filter, false
		}
		filter.Featured = &featured
	}
	for _, p := range []struct {
		name string
		dst  **float64
	}{{"minPrice", &filter.MinPrice}, {"maxPrice", &filter.MaxPrice}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			respondError(w, http.StatusBadRequest, "invalid_"+p.name, p.name+" must be a non-negative number")
			return filter, false
		}
		*p.dst = &f
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return filter, false
		}
		filter.Limit = limit
	}
	return filter, true
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, &ProductResponse{Product: product})
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req domain.Product
	if !decodeJSON(w, r, &req) {
		return
	}

	product, err := h.catalog.CreateProduct(ctx, &req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, &ProductResponse{Product: product})
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	patch, ok := readRawJSON(w, r)
	if !ok {
		return
	}

	product, err := h.catalog.UpdateProduct(ctx, chi.URLParam(r, "id"), patch)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, &ProductResponse{Product: product})
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.catalog.DeleteProduct(ctx, id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"deleted": id})
}
