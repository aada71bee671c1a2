package domain

import (
	"encoding/json"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusFailed     OrderStatus = "failed"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusFailed:
		return true
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
	PaymentStatusCOD      PaymentStatus = "cod"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded, PaymentStatusCOD:
		return true
	}
	return false
}

func (s PaymentStatus) String() string {
	return string(s)
}

type PaymentMethod string

const (
	PaymentMethodUPI   PaymentMethod = "upi"
	PaymentMethodPaytm PaymentMethod = "paytm"
	PaymentMethodCOD   PaymentMethod = "cod"
)

func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodUPI || m == PaymentMethodPaytm || m == PaymentMethodCOD
}

type CustomerInfo struct {
	Name  string `json:"name" validate:"required,max=120"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,min=7,max=20"`
}

type Address struct {
	Line1      string `json:"line1" validate:"required"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Country    string `json:"country,omitempty"`
}

// LineItem is a cart line enriched with the price resolved at order time.
type LineItem struct {
	ProductID     string      `json:"product_id"`
	Title         string      `json:"title"`
	Type          ProductType `json:"type"`
	Size          string      `json:"size"`
	Quantity      int         `json:"quantity"`
	UnitPrice     float64     `json:"unit_price"`
	LineTotal     float64     `json:"line_total"`
	CustomArtwork string      `json:"custom_artwork,omitempty"`
}

type PaymentDetails struct {
	Provider         string          `json:"provider,omitempty"`
	TransactionID    string          `json:"transaction_id,omitempty"`
	PaidAmount       float64         `json:"paid_amount,omitempty"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	TxnToken         string          `json:"txn_token,omitempty"`
	ProviderResponse json.RawMessage `json:"provider_response,omitempty"`
}

type Order struct {
	ID              string          `json:"id"`
	Customer        CustomerInfo    `json:"customer"`
	ShippingAddress Address         `json:"shipping_address"`
	Items           []LineItem      `json:"items"`
	AppliedOffers   []AppliedOffer  `json:"applied_offers"`
	Subtotal        float64         `json:"subtotal"`
	Discount        float64         `json:"discount"`
	Shipping        float64         `json:"shipping"`
	Total           float64         `json:"total"`
	Currency        string          `json:"currency"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	Status          OrderStatus     `json:"status"`
	Notes           string          `json:"notes,omitempty"`
	Payment         *PaymentDetails `json:"payment,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CheckoutRequest is the customer-submitted order. Items may be omitted when the session cart is used.
type CheckoutRequest struct {
	Customer        CustomerInfo   `json:"customer"`
	ShippingAddress Address        `json:"shipping_address"`
	Items           []CartLineItem `json:"items" validate:"omitempty,dive"`
	PaymentMethod   PaymentMethod  `json:"payment_method" validate:"required,oneof=upi paytm cod"`
	Notes           string         `json:"notes" validate:"max=1000"`
	SessionID       string         `json:"-"`
}
