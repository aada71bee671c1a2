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

type Orders interface {
	Create(ctx context.Context, req *domain.CheckoutRequest) (*service.CreateOrderResult, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter service.OrderFilter) ([]domain.Order, int, error)
	Update(ctx context.Context, id string, patch json.RawMessage) (*domain.Order, error)
	ConfirmUPIPayment(ctx context.Context, req *service.ConfirmUPIRequest) (*domain.Order, error)
	ApplyPaytmWebhook(ctx context.Context, raw []byte, contentType string) (*domain.Order, error)
	InitiatePaytm(ctx context.Context, orderID string) (*service.PaymentInstruction, error)
}

type OrdersHandler struct {
	orders  Orders
	timeout time.Duration
}

func NewOrdersHandler(orders Orders, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type OrderResponse struct {
	Order *domain.Order `json:"order"`
}

type OrdersResponse struct {
	Orders []domain.Order `json:"orders"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// Create places an order from the request items, or from the session cart when items are omitted.
func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req domain.CheckoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.SessionID = r.Header.Get(HeaderSessionID)

	res, err := h.orders.Create(ctx, &req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, res)
}

func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	order, err := h.orders.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, &OrderResponse{Order: order})
}

func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	filter := service.OrderFilter{Status: domain.OrderStatus(q.Get("status"))}
	var err error
	if v := q.Get("limit"); v != "" {
		if filter.Limit, err = strconv.Atoi(v); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
	}
	if v := q.Get("offset"); v != "" {
		if filter.Offset, err = strconv.Atoi(v); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_offset", "offset must be an integer")
			return
		}
	}

	orders, total, err := h.orders.List(ctx, filter)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = service.DefaultOrderPageSize
	}
	if limit > service.MaxOrderPageSize {
		limit = service.MaxOrderPageSize
	}
	respondJSON(w, http.StatusOK, &OrdersResponse{
		Orders: orders,
		Total:  total,
		Limit:  limit,
		Offset: filter.Offset,
	})
}

func (h *OrdersHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	patch, ok := readRawJSON(w, r)
	if !ok {
		return
	}

	order, err := h.orders.Update(ctx, chi.URLParam(r, "id"), patch)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, &OrderResponse{Order: order})
}
