package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/fjod/go_storefront/internal/service"
)

const maxWebhookBytes = 64 << 10

type PaymentsHandler struct {
	orders  Orders
	timeout time.Duration
}

func NewPaymentsHandler(orders Orders, timeout time.Duration) *PaymentsHandler {
	return &PaymentsHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type PaytmCreateRequestDTO struct {
	OrderID string `json:"order_id"`
}

type PaymentResponse struct {
	Payment *service.PaymentInstruction `json:"payment"`
}

func (h *PaymentsHandler) ConfirmUPI(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req service.ConfirmUPIRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orders.ConfirmUPIPayment(ctx, &req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, &OrderResponse{Order: order})
}

func (h *PaymentsHandler) CreatePaytm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PaytmCreateRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	ins, err := h.orders.InitiatePaytm(ctx, req.OrderID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, &PaymentResponse{Payment: ins})
}

// PaytmWebhook hands the raw body to the order service; the signature covers the exact bytes.
func (h *PaymentsHandler) PaytmWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "body_too_large", "webhook body too large")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "could not read body")
		return
	}

	order, err := h.orders.ApplyPaytmWebhook(ctx, raw, r.Header.Get("Content-Type"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status":         "ok",
		"order_id":       order.ID,
		"payment_status": order.PaymentStatus.String(),
	})
}
