package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/events"
	"github.com/fjod/go_storefront/internal/payment/paytm"
	"github.com/fjod/go_storefront/internal/pricing"
	"github.com/fjod/go_storefront/internal/repository"
	"github.com/fjod/go_storefront/internal/validation"
)

type orderFixture struct {
	svc       *OrderService
	store     *MockStore
	upi       *MockUPI
	paytm     *MockPaytm
	publisher *MockPublisher
	carts     *MockCarts
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()

	store := NewMockStore()
	store.Seed(repository.Products, "P1", domain.Product{
		ID:    "P1",
		Type:  domain.ProductTypePoster,
		Title: "Mountain Dawn",
		Price: map[string]float64{"A4": 300, "A3": 550},
	})
	store.Seed(repository.Offers, "FLAT50", domain.Offer{
		ID:         "FLAT50",
		Type:       domain.OfferTypeFlat,
		Value:      50,
		Active:     true,
		Conditions: domain.OfferConditions{MinSubtotal: 500},
	})

	tick := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	seq := 0
	f := &orderFixture{
		store:     store,
		upi:       &MockUPI{},
		paytm:     &MockPaytm{},
		publisher: &MockPublisher{},
		carts:     &MockCarts{},
	}
	svc, err := NewOrderService(OrderServiceDeps{
		Store:     store,
		Carts:     f.carts,
		Pricer:    pricing.NewCalculator(pricing.Config{ShippingFee: 79, FreeShippingThreshold: 999}),
		Validator: validation.New(),
		UPI:       f.upi,
		Paytm:     f.paytm,
		Events:    f.publisher,
		Clock: func() time.Time {
			tick = tick.Add(time.Second)
			return tick
		},
		NewID: func(time.Time) string {
			seq++
			return fmt.Sprintf("ORD-%d", seq)
		},
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func validCheckout(method domain.PaymentMethod) *domain.CheckoutRequest {
	return &domain.CheckoutRequest{
		Customer: domain.CustomerInfo{Name: "Asha", Email: "asha@example.com", Phone: "9876543210"},
		ShippingAddress: domain.Address{
			Line1:      "12 MG Road",
			City:       "Pune",
			State:      "MH",
			PostalCode: "411001",
		},
		Items:         []domain.CartLineItem{{ProductID: "P1", Size: "A4", Quantity: 2}},
		PaymentMethod: method,
	}
}

func TestNewOrderService_MissingDeps(t *testing.T) {
	_, err := NewOrderService(OrderServiceDeps{})
	assert.Error(t, err)
}

func TestCreate_COD(t *testing.T) {
	f := newOrderFixture(t)

	res, err := f.svc.Create(context.Background(), validCheckout(domain.PaymentMethodCOD))
	require.NoError(t, err)

	order := res.Order
	assert.Equal(t, "ORD-1", order.ID)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.PaymentStatusCOD, order.PaymentStatus)
	assert.Equal(t, 600.0, order.Subtotal)
	assert.Equal(t, 50.0, order.Discount)
	assert.Equal(t, 79.0, order.Shipping)
	assert.Equal(t, 629.0, order.Total)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 600.0, order.Items[0].LineTotal)
	assert.Nil(t, res.Payment)
	assert.NotEmpty(t, res.Message)

	stored, err := f.svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.Total, stored.Total)
	assert.Equal(t, 1, f.store.Count(repository.Customers))
	assert.Equal(t, []string{events.TypeOrderCreated}, f.publisher.Types())
}

func TestCreate_UPIInstruction(t *testing.T) {
	f := newOrderFixture(t)

	res, err := f.svc.Create(context.Background(), validCheckout(domain.PaymentMethodUPI))
	require.NoError(t, err)

	require.NotNil(t, res.Payment)
	assert.Equal(t, domain.PaymentMethodUPI, res.Payment.Method)
	assert.Equal(t, "upi://pay?tr="+res.Order.ID, res.Payment.UPILink)
	assert.NotEmpty(t, res.Payment.QRCode)
	assert.Equal(t, 629.0, f.upi.LastAmount)
	assert.Equal(t, domain.PaymentStatusPending, res.Order.PaymentStatus)
}

func TestCreate_PaytmRecordsToken(t *testing.T) {
	f := newOrderFixture(t)

	res, err := f.svc.Create(context.Background(), validCheckout(domain.PaymentMethodPaytm))
	require.NoError(t, err)

	require.NotNil(t, res.Payment)
	assert.Equal(t, "TOKEN_"+res.Order.ID, res.Payment.TxnToken)
	assert.Equal(t, "MID123", res.Payment.MID)
	assert.True(t, res.Payment.Mock)
	require.Len(t, f.paytm.Initiated, 1)
	assert.NotEmpty(t, f.paytm.Initiated[0].CustomerID)

	stored, err := f.svc.Get(context.Background(), res.Order.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Payment)
	assert.Equal(t, "TOKEN_"+res.Order.ID, stored.Payment.TxnToken)
}

func TestCreate_PaymentFailureKeepsPendingOrder(t *testing.T) {
	f := newOrderFixture(t)
	f.paytm.InitiateErr = errBoom

	res, err := f.svc.Create(context.Background(), validCheckout(domain.PaymentMethodPaytm))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrUpstreamPayment)
	assert.Contains(t, err.Error(), "ORD-1")

	stored, err := f.svc.Get(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, stored.Status)
	assert.Equal(t, domain.PaymentStatusPending, stored.PaymentStatus)
}

func TestCreate_ValidationNothingPersisted(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *domain.CheckoutRequest)
		wantErr error
	}{
		{
			name:    "unknown payment method",
			mutate:  func(r *domain.CheckoutRequest) { r.PaymentMethod = "bitcoin" },
			wantErr: domain.ErrValidation,
		},
		{
			name:    "invalid email",
			mutate:  func(r *domain.CheckoutRequest) { r.Customer.Email = "not-an-email" },
			wantErr: domain.ErrValidation,
		},
		{
			name:    "missing city",
			mutate:  func(r *domain.CheckoutRequest) { r.ShippingAddress.City = "" },
			wantErr: domain.ErrValidation,
		},
		{
			name:    "no items",
			mutate:  func(r *domain.CheckoutRequest) { r.Items = nil },
			wantErr: domain.ErrValidation,
		},
		{
			name:    "unknown size",
			mutate:  func(r *domain.CheckoutRequest) { r.Items[0].Size = "XXL" },
			wantErr: domain.ErrInvalidSize,
		},
		{
			name:    "unknown product",
			mutate:  func(r *domain.CheckoutRequest) { r.Items[0].ProductID = "nope" },
			wantErr: domain.ErrInvalidProduct,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(t)
			req := validCheckout(domain.PaymentMethodCOD)
			tt.mutate(req)

			_, err := f.svc.Create(context.Background(), req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Zero(t, f.store.PutsFor[repository.Orders])
			assert.Zero(t, f.store.Count(repository.Customers))
			assert.Empty(t, f.publisher.Events)
		})
	}
}

func TestCreate_UsesAndClearsSessionCart(t *testing.T) {
	f := newOrderFixture(t)
	f.carts.Carts = map[string]*domain.Cart{
		"sess-1": {ID: "sess-1", Items: []domain.CartLineItem{{ProductID: "P1", Size: "A3", Quantity: 2}}},
	}
	req := validCheckout(domain.PaymentMethodCOD)
	req.Items = nil
	req.SessionID = "sess-1"

	res, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1100.0, res.Order.Subtotal)
	assert.Equal(t, 0.0, res.Order.Shipping)
	assert.Equal(t, []string{"sess-1"}, f.carts.Deleted)
}

func TestCreate_DeduplicatesCustomerByEmail(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.Create(context.Background(), validCheckout(domain.PaymentMethodCOD))
	require.NoError(t, err)

	req := validCheckout(domain.PaymentMethodCOD)
	req.Customer.Email = "  ASHA@Example.com"
	_, err = f.svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, f.store.Count(repository.Customers))
	assert.Equal(t, 2, f.store.Count(repository.Orders))
}

func TestCreate_PublishFailureDoesNotFail(t *testing.T) {
	f := newOrderFixture(t)
	f.publisher.Err = errBoom

	_, err := f.svc.Create(context.Background(), validCheckout(domain.PaymentMethodCOD))
	assert.NoError(t, err)
}

func TestUpdate(t *testing.T) {
	f := newOrderFixture(t)
	res, err := f.svc.Create(context.Background(), validCheckout(domain.PaymentMethodCOD))
	require.NoError(t, err)

	updated, err := f.svc.Update(context.Background(), res.Order.ID,
		json.RawMessage(`{"id":"HIJACK","status":"shipped","notes":"left at gate"}`))
	require.NoError(t, err)

	assert.Equal(t, res.Order.ID, updated.ID)
	assert.Equal(t, domain.OrderStatusShipped, updated.Status)
	assert.Equal(t, "left at gate", updated.Notes)
	assert.Equal(t, res.Order.Total, updated.Total)
	assert.True(t, updated.UpdatedAt.After(res.Order.UpdatedAt))
	assert.Contains(t, f.publisher.Types(), events.TypeOrderUpdated)

	_, err = f.svc.Get(context.Background(), "HIJACK")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdate_Errors(t *testing.T) {
	f := newOrderFixture(t)
	res, err := f.svc.Create(context.Background(), validCheckout(domain.PaymentMethodCOD))
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), "missing", json.RawMessage(`{"status":"shipped"}`))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Update(context.Background(), res.Order.ID, json.RawMessage(`{"status":"teleported"}`))
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Update(context.Background(), res.Order.ID, json.RawMessage(`[1,2]`))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestConfirmUPIPayment(t *testing.T) {
	f := newOrderFixture(t)
	res, err := f.svc.Create(context.Background(), validCheckout(domain.PaymentMethodUPI))
	require.NoError(t, err)

	order, err := f.svc.ConfirmUPIPayment(context.Background(), &ConfirmUPIRequest{
		OrderID:       res.Order.ID,
		TransactionID: "UTR123",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
	assert.Equal(t, domain.PaymentStatusPaid, order.PaymentStatus)
	require.NotNil(t, order.Payment)
	assert.Equal(t, "UTR123", order.Payment.TransactionID)
	assert.Equal(t, 629.0, order.Payment.PaidAmount)
	assert.NotNil(t, order.Payment.PaidAt)
	assert.Contains(t, f.publisher.Types(), events.TypePaymentUpdated)
}

func TestConfirmUPIPayment_ExplicitAmountAndErrors(t *testing.T) {
	f := newOrderFixture(t)
	res, err := f.svc.Create(context.Background(), validCheckout(domain.PaymentMethodUPI))
	require.NoError(t, err)

	amount := 600.0
	order, err := f.svc.ConfirmUPIPayment(context.Background(), &ConfirmUPIRequest{
		OrderID: res.Order.ID, TransactionID: "UTR1", Amount: &amount,
	})
	require.NoError(t, err)
	assert.Equal(t, 600.0, order.Payment.PaidAmount)

	_, err = f.svc.ConfirmUPIPayment(context.Background(), &ConfirmUPIRequest{OrderID: res.Order.ID})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.ConfirmUPIPayment(context.Background(), &ConfirmUPIRequest{OrderID: "missing", TransactionID: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestApplyPaytmWebhook(t *testing.T) {
	tests := []struct {
		status        string
		wantStatus    domain.OrderStatus
		wantPayStatus domain.PaymentStatus
	}{
		{paytm.StatusSuccess, domain.OrderStatusConfirmed, domain.PaymentStatusPaid},
		{paytm.StatusFailure, domain.OrderStatusFailed, domain.PaymentStatusFailed},
		{paytm.StatusPending, domain.OrderStatusPending, domain.PaymentStatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			f := newOrderFixture(t)
			res, err := f.svc.Create(context.Background(), validCheckout(domain.PaymentMethodPaytm))
			require.NoError(t, err)

			f.paytm.Notification = &paytm.Notification{
				OrderID:  res.Order.ID,
				TxnID:    "TXN9",
				Amount:   629,
				Status:   tt.status,
				Response: json.RawMessage(`{"STATUS":"` + tt.status + `"}`),
			}
			order, err := f.svc.ApplyPaytmWebhook(context.Background(), []byte("{}"), "application/json")
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, order.Status)
			assert.Equal(t, tt.wantPayStatus, order.PaymentStatus)
			assert.Equal(t, "TXN9", order.Payment.TransactionID)
			assert.JSONEq(t, `{"STATUS":"`+tt.status+`"}`, string(order.Payment.ProviderResponse))
		})
	}
}

func TestApplyPaytmWebhook_InvalidSignatureNoMutation(t *testing.T) {
	f := newOrderFixture(t)
	res, err := f.svc.Create(context.Background(), validCheckout(domain.PaymentMethodPaytm))
	require.NoError(t, err)
	puts := f.store.PutsFor[repository.Orders]

	f.paytm.WebhookErr = fmt.Errorf("%w: checksum mismatch", domain.ErrInvalidSignature)
	_, err = f.svc.ApplyPaytmWebhook(context.Background(), []byte("{}"), "application/json")
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)

	assert.Equal(t, puts, f.store.PutsFor[repository.Orders])
	stored, err := f.svc.Get(context.Background(), res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPending, stored.PaymentStatus)
}

func TestApplyPaytmWebhook_FailureAfterPaidKeepsOrderSettled(t *testing.T) {
	f := newOrderFixture(t)
	res, err := f.svc.Create(context.Background(), validCheckout(domain.PaymentMethodPaytm))
	require.NoError(t, err)

	f.paytm.Notification = &paytm.Notification{
		OrderID: res.Order.ID, TxnID: "TXN1", Amount: 629, Status: paytm.StatusSuccess,
		Response: json.RawMessage(`{"STATUS":"TXN_SUCCESS"}`),
	}
	_, err = f.svc.ApplyPaytmWebhook(context.Background(), []byte("{}"), "application/json")
	require.NoError(t, err)
	transitions := len(f.publisher.Types())

	f.paytm.Notification = &paytm.Notification{
		OrderID: res.Order.ID, TxnID: "TXN2", Status: paytm.StatusFailure,
		Response: json.RawMessage(`{"STATUS":"TXN_FAILURE"}`),
	}
	order, err := f.svc.ApplyPaytmWebhook(context.Background(), []byte("{}"), "application/json")
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusConfirmed, order.Status)
	assert.Equal(t, domain.PaymentStatusPaid, order.PaymentStatus)
	assert.Equal(t, "TXN1", order.Payment.TransactionID)
	assert.Equal(t, 629.0, order.Payment.PaidAmount)
	assert.JSONEq(t, `{"STATUS":"TXN_FAILURE"}`, string(order.Payment.ProviderResponse))
	assert.Len(t, f.publisher.Types(), transitions)

	stored, err := f.svc.Get(context.Background(), res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, stored.PaymentStatus)
	assert.JSONEq(t, `{"STATUS":"TXN_FAILURE"}`, string(stored.Payment.ProviderResponse))
}

func TestApplyPaytmWebhook_UnknownOrder(t *testing.T) {
	f := newOrderFixture(t)
	f.paytm.Notification = &paytm.Notification{OrderID: "ghost", Status: paytm.StatusSuccess}

	_, err := f.svc.ApplyPaytmWebhook(context.Background(), []byte("{}"), "application/json")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInitiatePaytm(t *testing.T) {
	f := newOrderFixture(t)
	paytmOrder, err := f.svc.Create(context.Background(), validCheckout(domain.PaymentMethodPaytm))
	require.NoError(t, err)
	codOrder, err := f.svc.Create(context.Background(), validCheckout(domain.PaymentMethodCOD))
	require.NoError(t, err)

	ins, err := f.svc.InitiatePaytm(context.Background(), paytmOrder.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, "TOKEN_"+paytmOrder.Order.ID, ins.TxnToken)

	_, err = f.svc.InitiatePaytm(context.Background(), codOrder.Order.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.InitiatePaytm(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Update(context.Background(), paytmOrder.Order.ID, json.RawMessage(`{"payment_status":"paid"}`))
	require.NoError(t, err)
	_, err = f.svc.InitiatePaytm(context.Background(), paytmOrder.Order.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)

	f.paytm.InitiateErr = errBoom
	third, err := f.svc.Create(context.Background(), validCheckout(domain.PaymentMethodCOD))
	require.NoError(t, err)
	_, err = f.svc.Update(context.Background(), third.Order.ID, json.RawMessage(`{"payment_method":"paytm","payment_status":"pending"}`))
	require.NoError(t, err)
	_, err = f.svc.InitiatePaytm(context.Background(), third.Order.ID)
	assert.ErrorIs(t, err, domain.ErrUpstreamPayment)
}

func TestList(t *testing.T) {
	f := newOrderFixture(t)
	for i := 0; i < 5; i++ {
		_, err := f.svc.Create(context.Background(), validCheckout(domain.PaymentMethodCOD))
		require.NoError(t, err)
	}
	_, err := f.svc.Update(context.Background(), "ORD-2", json.RawMessage(`{"status":"shipped"}`))
	require.NoError(t, err)

	orders, total, err := f.svc.List(context.Background(), OrderFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, orders, 2)
	assert.Equal(t, "ORD-5", orders[0].ID)
	assert.Equal(t, "ORD-4", orders[1].ID)

	orders, total, err = f.svc.List(context.Background(), OrderFilter{Status: domain.OrderStatusShipped})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, orders, 1)
	assert.Equal(t, "ORD-2", orders[0].ID)

	orders, total, err = f.svc.List(context.Background(), OrderFilter{Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, orders)

	_, _, err = f.svc.List(context.Background(), OrderFilter{Status: "lost"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
