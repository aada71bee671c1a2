package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/service"
)

type Carts interface {
	Get(ctx context.Context, sessionID string) (*service.CartView, error)
	AddItem(ctx context.Context, sessionID string, item domain.CartLineItem) (*service.CartView, error)
	RemoveItem(ctx context.Context, sessionID, productID, size string) (*service.CartView, error)
	Clear(ctx context.Context, sessionID string) error
}

type CartHandler struct {
	carts   Carts
	timeout time.Duration
}

func NewCartHandler(carts Carts, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := h.carts.Get(ctx, getSessionID(r.Context()))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req domain.CartLineItem
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	view, err := h.carts.AddItem(ctx, getSessionID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, view)
}

// Clear empties the cart, or removes a single line when product_id is given.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := getSessionID(r.Context())
	if productID := r.URL.Query().Get("product_id"); productID != "" {
		view, err := h.carts.RemoveItem(ctx, sessionID, productID, r.URL.Query().Get("size"))
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, view)
		return
	}

	if err := h.carts.Clear(ctx, sessionID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	view, err := h.carts.Get(ctx, sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}
