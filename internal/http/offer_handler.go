package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fjod/go_storefront/internal/domain"
)

type OfferHandler struct {
	catalog Catalog
	timeout time.Duration
}

func NewOfferHandler(catalog Catalog, timeout time.Duration) *OfferHandler {
	return &OfferHandler{
		catalog: catalog,
		timeout: timeout,
	}
}

type OffersResponse struct {
	Offers []domain.Offer `json:"offers"`
}

type OfferResponse struct {
	Offer *domain.Offer `json:"offer"`
}

func (h *OfferHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	offers, err := h.catalog.ActiveOffers(ctx)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if offers == nil {
		offers = []domain.Offer{}
	}

	respondJSON(w, http.StatusOK, &OffersResponse{Offers: offers})
}

func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req domain.Offer
	if !decodeJSON(w, r, &req) {
		return
	}

	offer, err := h.catalog.CreateOffer(ctx, &req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, &OfferResponse{Offer: offer})
}

func (h *OfferHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.catalog.DeleteOffer(ctx, id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"deleted": id})
}
