package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/events"
	"github.com/fjod/go_storefront/internal/metrics"
	"github.com/fjod/go_storefront/internal/payment/paytm"
	"github.com/fjod/go_storefront/internal/pricing"
	"github.com/fjod/go_storefront/internal/repository"
)

const (
	DefaultOrderPageSize = 20
	MaxOrderPageSize     = 100
)

var errOrderDepsMissing = errors.New("order service: store, pricer, validator, upi, paytm and events are required")

// PaymentInstruction tells the client how to pay for a new order. It is nil for cash on delivery.
type PaymentInstruction struct {
	Method   domain.PaymentMethod `json:"method"`
	UPILink  string               `json:"upi_link,omitempty"`
	QRCode   string               `json:"qr_code,omitempty"`
	TxnToken string               `json:"txn_token,omitempty"`
	MID      string               `json:"mid,omitempty"`
	OrderID  string               `json:"order_id,omitempty"`
	Amount   string               `json:"amount,omitempty"`
	Mock     bool                 `json:"mock,omitempty"`
}

type CreateOrderResult struct {
	Order   *domain.Order       `json:"order"`
	Payment *PaymentInstruction `json:"payment"`
	Message string              `json:"message"`
}

type ConfirmUPIRequest struct {
	OrderID       string   `json:"order_id" validate:"required"`
	TransactionID string   `json:"transaction_id" validate:"required"`
	Amount        *float64 `json:"amount" validate:"omitempty,gt=0"`
}

type OrderFilter struct {
	Status domain.OrderStatus
	Limit  int
	Offset int
}

type OrderServiceDeps struct {
	Store     repository.Store
	Carts     cart.Store
	Pricer    Pricer
	Validator Validator
	UPI       UPIGenerator
	Paytm     paytm.Provider
	Events    events.Publisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Clock     func() time.Time
	NewID     func(time.Time) string
}

// OrderService creates orders and applies admin and payment-provider transitions to them.
type OrderService struct {
	orders    *repository.Collection[domain.Order]
	products  *repository.Collection[domain.Product]
	offers    *repository.Collection[domain.Offer]
	customers *repository.Collection[domain.Customer]
	carts     cart.Store
	pricer    Pricer
	validator Validator
	upi       UPIGenerator
	paytm     paytm.Provider
	events    events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
	newID     func(time.Time) string

	customerMu sync.Mutex
}

func NewOrderService(deps OrderServiceDeps) (*OrderService, error) {
	if deps.Store == nil || deps.Pricer == nil || deps.Validator == nil || deps.UPI == nil || deps.Paytm == nil || deps.Events == nil {
		return nil, errOrderDepsMissing
	}
	s := &OrderService{
		orders:    repository.NewCollection[domain.Order](deps.Store, repository.Orders),
		products:  repository.NewCollection[domain.Product](deps.Store, repository.Products),
		offers:    repository.NewCollection[domain.Offer](deps.Store, repository.Offers),
		customers: repository.NewCollection[domain.Customer](deps.Store, repository.Customers),
		carts:     deps.Carts,
		pricer:    deps.Pricer,
		validator: deps.Validator,
		upi:       deps.UPI,
		paytm:     deps.Paytm,
		events:    deps.Events,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		now:       deps.Clock,
		newID:     deps.NewID,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = NewOrderID
	}
	return s, nil
}

// Create validates and prices the checkout, persists the order and customer, then asks the
// payment adapter for an instruction. When the adapter fails the order stays persisted as pending.
func (s *OrderService) Create(ctx context.Context, req *domain.CheckoutRequest) (*CreateOrderResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	items := req.Items
	fromCart := false
	if len(items) == 0 && req.SessionID != "" && s.carts != nil {
		c, err := s.carts.Get(ctx, req.SessionID)
		if err != nil {
			return nil, fmt.Errorf("load session cart: %w", err)
		}
		items = c.Items
		fromCart = true
	}
	if len(items) == 0 {
		return nil, domain.NewValidationError("items", "at least one item is required")
	}

	quote, err := s.quote(ctx, items)
	if err != nil {
		return nil, err
	}

	now := s.now()
	order := &domain.Order{
		ID:              s.newID(now),
		Customer:        req.Customer,
		ShippingAddress: req.ShippingAddress,
		Items:           quote.Items,
		AppliedOffers:   quote.AppliedOffers,
		Subtotal:        quote.Subtotal,
		Discount:        quote.Discount,
		Shipping:        quote.Shipping,
		Total:           quote.Total,
		Currency:        quote.Currency,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   domain.PaymentStatusPending,
		Status:          domain.OrderStatusPending,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if order.PaymentMethod == domain.PaymentMethodCOD {
		order.PaymentStatus = domain.PaymentStatusCOD
	}

	if err := s.orders.Put(ctx, order.ID, order); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}
	s.logger.InfoContext(ctx, "order created", "order_id", order.ID, "payment_method", order.PaymentMethod, "total", order.Total)

	customerID, err := s.upsertCustomer(ctx, req.Customer, now)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to persist customer", "order_id", order.ID, "error", err)
	}

	if fromCart {
		if err := s.carts.Delete(ctx, req.SessionID); err != nil {
			s.logger.WarnContext(ctx, "failed to clear session cart", "session_id", req.SessionID, "error", err)
		}
	}

	if s.metrics != nil {
		s.metrics.OrdersCreated.WithLabelValues(string(order.PaymentMethod)).Inc()
	}
	s.publish(ctx, events.TypeOrderCreated, order)

	payment, err := s.paymentInstruction(ctx, order, customerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "payment initiation failed", "order_id", order.ID, "error", err)
		return nil, fmt.Errorf("%w: order %s was saved as pending: %v", domain.ErrUpstreamPayment, order.ID, err)
	}

	return &CreateOrderResult{
		Order:   order,
		Payment: payment,
		Message: createdMessage(order.PaymentMethod),
	}, nil
}

func createdMessage(method domain.PaymentMethod) string {
	switch method {
	case domain.PaymentMethodCOD:
		return "Order placed. Pay on delivery."
	case domain.PaymentMethodUPI:
		return "Order placed. Complete the payment with any UPI app."
	default:
		return "Order placed. Complete the payment to confirm it."
	}
}

func (s *OrderService) quote(ctx context.Context, items []domain.CartLineItem) (*pricing.Quote, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	offers, err := s.offers.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.pricer.Calculate(items, products, offers)
}

func (s *OrderService) paymentInstruction(ctx context.Context, order *domain.Order, customerID string) (*PaymentInstruction, error) {
	switch order.PaymentMethod {
	case domain.PaymentMethodUPI:
		ins, err := s.upi.Instruction(order.ID, order.Total)
		if err != nil {
			return nil, err
		}
		return &PaymentInstruction{Method: domain.PaymentMethodUPI, UPILink: ins.Link, QRCode: ins.QRCode}, nil
	case domain.PaymentMethodPaytm:
		return s.initiatePaytm(ctx, order, customerID)
	default:
		return nil, nil
	}
}

// initiatePaytm obtains a transaction token and records it on the order.
func (s *OrderService) initiatePaytm(ctx context.Context, order *domain.Order, customerID string) (*PaymentInstruction, error) {
	token, err := s.paytm.Initiate(ctx, paytm.Transaction{
		OrderID:    order.ID,
		Amount:     order.Total,
		CustomerID: customerID,
	})
	if err != nil {
		return nil, err
	}

	if order.Payment == nil {
		order.Payment = &domain.PaymentDetails{}
	}
	order.Payment.Provider = "paytm"
	order.Payment.TxnToken = token.TxnToken
	order.UpdatedAt = s.now()
	if err := s.orders.Put(ctx, order.ID, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to record paytm token", "order_id", order.ID, "error", err)
	}

	return &PaymentInstruction{
		Method:   domain.PaymentMethodPaytm,
		TxnToken: token.TxnToken,
		MID:      token.MID,
		OrderID:  token.OrderID,
		Amount:   token.Amount,
		Mock:     token.Mock,
	}, nil
}

// InitiatePaytm re-issues a Paytm token for an unpaid Paytm order.
func (s *OrderService) InitiatePaytm(ctx context.Context, orderID string) (*PaymentInstruction, error) {
	if orderID == "" {
		return nil, domain.NewValidationError("order_id", "is required")
	}
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != domain.PaymentMethodPaytm {
		return nil, domain.NewValidationError("order_id", "order is not a paytm order")
	}
	if order.PaymentStatus == domain.PaymentStatusPaid {
		return nil, fmt.Errorf("%w: order %s is already paid", domain.ErrConflict, orderID)
	}

	ins, err := s.initiatePaytm(ctx, order, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamPayment, err)
	}
	return ins, nil
}

func (s *OrderService) upsertCustomer(ctx context.Context, info domain.CustomerInfo, now time.Time) (string, error) {
	s.customerMu.Lock()
	defer s.customerMu.Unlock()

	email := domain.NormalizeEmail(info.Email)
	existing, err := s.customers.List(ctx)
	if err != nil {
		return "", err
	}
	for _, c := range existing {
		if domain.NormalizeEmail(c.Email) == email {
			return c.ID, nil
		}
	}

	c := &domain.Customer{
		ID:        NewCustomerID(now),
		Name:      info.Name,
		Email:     email,
		Phone:     info.Phone,
		CreatedAt: now,
	}
	if err := s.customers.Put(ctx, c.ID, c); err != nil {
		return "", err
	}
	return c.ID, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.orders.Get(ctx, id)
}

// List returns one page of orders, newest first, and the number of orders matching the filter.
func (s *OrderService) List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, domain.NewValidationError("status", "is not a known order status")
	}
	if filter.Offset < 0 {
		return nil, 0, domain.NewValidationError("offset", "must be at least 0")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultOrderPageSize
	}
	if limit > MaxOrderPageSize {
		limit = MaxOrderPageSize
	}

	all, err := s.orders.List(ctx)
	if err != nil {
		return nil, 0, err
	}

	matched := make([]domain.Order, 0, len(all))
	for _, o := range all {
		if filter.Status == "" || o.Status == filter.Status {
			matched = append(matched, o)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if filter.Offset >= total {
		return []domain.Order{}, total, nil
	}
	end := filter.Offset + limit
	if end > total {
		end = total
	}
	return matched[filter.Offset:end], total, nil
}

// Update merges the caller's top-level fields over the stored order. The id never changes.
// Concurrent updates to one order are last-write-wins.
func (s *OrderService) Update(ctx context.Context, id string, patch json.RawMessage) (*domain.Order, error) {
	current, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	merged, err := domain.MergePatch(*current, patch)
	if err != nil {
		return nil, err
	}
	if err := validateOrderEnums(&merged); err != nil {
		return nil, err
	}
	merged.ID = current.ID
	merged.UpdatedAt = s.now()

	if err := s.orders.Put(ctx, merged.ID, &merged); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}
	s.logger.InfoContext(ctx, "order updated", "order_id", merged.ID, "status", merged.Status, "payment_status", merged.PaymentStatus)
	s.publish(ctx, events.TypeOrderUpdated, &merged)
	return &merged, nil
}

func validateOrderEnums(o *domain.Order) error {
	fields := map[string]string{}
	if !o.Status.IsValid() {
		fields["status"] = "is not a known order status"
	}
	if !o.PaymentStatus.IsValid() {
		fields["payment_status"] = "is not a known payment status"
	}
	if !o.PaymentMethod.IsValid() {
		fields["payment_method"] = "must be one of: upi paytm cod"
	}
	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// ConfirmUPIPayment marks the order paid and confirmed. The paid amount defaults to the order total.
func (s *OrderService) ConfirmUPIPayment(ctx context.Context, req *ConfirmUPIRequest) (*domain.Order, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	order, err := s.orders.Get(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	amount := order.Total
	if req.Amount != nil {
		amount = *req.Amount
	}
	now := s.now()

	order.PaymentStatus = domain.PaymentStatusPaid
	order.Status = domain.OrderStatusConfirmed
	if order.Payment == nil {
		order.Payment = &domain.PaymentDetails{}
	}
	order.Payment.Provider = "upi"
	order.Payment.TransactionID = req.TransactionID
	order.Payment.PaidAmount = amount
	order.Payment.PaidAt = &now
	order.UpdatedAt = now

	if err := s.orders.Put(ctx, order.ID, order); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}
	s.recordTransition(ctx, "upi", order)
	return order, nil
}

// ApplyPaytmWebhook verifies a Paytm callback and applies its result to the order.
// An invalid signature returns before the order is read.
func (s *OrderService) ApplyPaytmWebhook(ctx context.Context, raw []byte, contentType string) (*domain.Order, error) {
	n, err := s.paytm.VerifyWebhook(raw, contentType)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) {
			s.logger.WarnContext(ctx, "rejected paytm webhook", "error", err)
		}
		return nil, err
	}

	order, err := s.orders.Get(ctx, n.OrderID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if order.Payment == nil {
		order.Payment = &domain.PaymentDetails{}
	}
	order.Payment.Provider = "paytm"
	order.Payment.ProviderResponse = n.Response

	// a settled order keeps its status and transaction; only the response is recorded
	if order.PaymentStatus == domain.PaymentStatusPaid && n.Status != paytm.StatusSuccess {
		s.logger.WarnContext(ctx, "ignored paytm result for paid order", "order_id", order.ID, "paytm_status", n.Status, "txn_id", n.TxnID)
		order.UpdatedAt = now
		if err := s.orders.Put(ctx, order.ID, order); err != nil {
			return nil, fmt.Errorf("persist order: %w", err)
		}
		return order, nil
	}
	if n.TxnID != "" {
		order.Payment.TransactionID = n.TxnID
	}

	switch n.Status {
	case paytm.StatusSuccess:
		order.Status = domain.OrderStatusConfirmed
		order.PaymentStatus = domain.PaymentStatusPaid
		order.Payment.PaidAmount = n.Amount
		if order.Payment.PaidAmount == 0 {
			order.Payment.PaidAmount = order.Total
		}
		order.Payment.PaidAt = &now
	case paytm.StatusFailure:
		order.Status = domain.OrderStatusFailed
		order.PaymentStatus = domain.PaymentStatusFailed
	default:
		s.logger.InfoContext(ctx, "paytm webhook left order unchanged", "order_id", order.ID, "paytm_status", n.Status)
	}
	order.UpdatedAt = now

	if err := s.orders.Put(ctx, order.ID, order); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}
	s.recordTransition(ctx, "paytm", order)
	return order, nil
}

func (s *OrderService) recordTransition(ctx context.Context, provider string, order *domain.Order) {
	s.logger.InfoContext(ctx, "payment status updated",
		"order_id", order.ID,
		"provider", provider,
		"status", order.Status,
		"payment_status", order.PaymentStatus,
	)
	if s.metrics != nil {
		s.metrics.PaymentTransitions.WithLabelValues(provider, string(order.PaymentStatus)).Inc()
	}
	s.publish(ctx, events.TypePaymentUpdated, order)
}

func (s *OrderService) publish(ctx context.Context, eventType string, order *domain.Order) {
	if err := s.events.Publish(ctx, events.NewOrderEvent(eventType, order)); err != nil {
		s.logger.WarnContext(ctx, "failed to publish order event", "event_type", eventType, "order_id", order.ID, "error", err)
	}
}
