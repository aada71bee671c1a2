// Package events publishes order lifecycle events.
package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
)

const (
	TypeOrderCreated   = "order.created"
	TypeOrderUpdated   = "order.updated"
	TypePaymentUpdated = "order.payment_updated"
)

type Event struct {
	Type          string               `json:"type"`
	OrderID       string               `json:"order_id"`
	Status        domain.OrderStatus   `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	Total         float64              `json:"total"`
	Currency      string               `json:"currency"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

// NewOrderEvent snapshots the fields of o that consumers need.
func NewOrderEvent(eventType string, o *domain.Order) Event {
	return Event{
		Type:          eventType,
		OrderID:       o.ID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		PaymentMethod: o.PaymentMethod,
		Total:         o.Total,
		Currency:      o.Currency,
		OccurredAt:    time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// LogPublisher writes events to the structured log. Used when no brokers are configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.InfoContext(ctx, "order event",
		"event_type", event.Type,
		"order_id", event.OrderID,
		"status", event.Status,
		"payment_status", event.PaymentStatus,
	)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
