package http

import (
	"context"
	"encoding/json"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/service"
)

// MockCatalog implements Catalog for testing
type MockCatalog struct {
	Products     []domain.Product
	Offers       []domain.Offer
	Err          error
	LastFilter   service.ProductFilter
	Created      *domain.Product
	Deleted      []string
	LastPatch    json.RawMessage
	CreatedOffer *domain.Offer
}

func (m *MockCatalog) ListProducts(_ context.Context, f service.ProductFilter) ([]domain.Product, int, error) {
	m.LastFilter = f
	return m.Products, len(m.Products), m.Err
}

func (m *MockCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for i := range m.Products {
		if m.Products[i].ID == id {
			return &m.Products[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockCatalog) CreateProduct(_ context.Context, p *domain.Product) (*domain.Product, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.Created = p
	return p, nil
}

func (m *MockCatalog) UpdateProduct(_ context.Context, id string, patch json.RawMessage) (*domain.Product, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.LastPatch = patch
	return &domain.Product{ID: id}, nil
}

func (m *MockCatalog) DeleteProduct(_ context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Deleted = append(m.Deleted, id)
	return nil
}

func (m *MockCatalog) ActiveOffers(_ context.Context) ([]domain.Offer, error) {
	return m.Offers, m.Err
}

func (m *MockCatalog) CreateOffer(_ context.Context, o *domain.Offer) (*domain.Offer, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.CreatedOffer = o
	return o, nil
}

func (m *MockCatalog) DeleteOffer(_ context.Context, id string) error {
	if m.Err != nil {
		return m.Err
	}
	m.Deleted = append(m.Deleted, id)
	return nil
}

// MockCarts implements Carts for testing
type MockCarts struct {
	Err         error
	SessionIDs  []string
	AddedItem   *domain.CartLineItem
	RemovedLine []string
	Cleared     bool
}

func (m *MockCarts) view(sessionID string) *service.CartView {
	return &service.CartView{
		Cart:    &domain.Cart{ID: sessionID, Items: []domain.CartLineItem{}},
		Summary: nil,
	}
}

func (m *MockCarts) Get(_ context.Context, sessionID string) (*service.CartView, error) {
	m.SessionIDs = append(m.SessionIDs, sessionID)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.view(sessionID), nil
}

func (m *MockCarts) AddItem(_ context.Context, sessionID string, item domain.CartLineItem) (*service.CartView, error) {
	m.SessionIDs = append(m.SessionIDs, sessionID)
	if m.Err != nil {
		return nil, m.Err
	}
	m.AddedItem = &item
	return m.view(sessionID), nil
}

func (m *MockCarts) RemoveItem(_ context.Context, sessionID, productID, size string) (*service.CartView, error) {
	m.SessionIDs = append(m.SessionIDs, sessionID)
	if m.Err != nil {
		return nil, m.Err
	}
	m.RemovedLine = []string{productID, size}
	return m.view(sessionID), nil
}

func (m *MockCarts) Clear(_ context.Context, sessionID string) error {
	m.SessionIDs = append(m.SessionIDs, sessionID)
	m.Cleared = true
	return m.Err
}

// MockOrders implements Orders for testing
type MockOrders struct {
	Order       *domain.Order
	Result      *service.CreateOrderResult
	Instruction *service.PaymentInstruction
	Err         error
	LastReq     *domain.CheckoutRequest
	LastFilter  service.OrderFilter
	LastConfirm *service.ConfirmUPIRequest
	LastRaw     []byte
	LastCT      string
}

func (m *MockOrders) Create(_ context.Context, req *domain.CheckoutRequest) (*service.CreateOrderResult, error) {
	m.LastReq = req
	return m.Result, m.Err
}

func (m *MockOrders) Get(_ context.Context, _ string) (*domain.Order, error) {
	return m.Order, m.Err
}

func (m *MockOrders) List(_ context.Context, filter service.OrderFilter) ([]domain.Order, int, error) {
	m.LastFilter = filter
	if m.Err != nil {
		return nil, 0, m.Err
	}
	if m.Order == nil {
		return []domain.Order{}, 0, nil
	}
	return []domain.Order{*m.Order}, 1, nil
}

func (m *MockOrders) Update(_ context.Context, _ string, _ json.RawMessage) (*domain.Order, error) {
	return m.Order, m.Err
}

func (m *MockOrders) ConfirmUPIPayment(_ context.Context, req *service.ConfirmUPIRequest) (*domain.Order, error) {
	m.LastConfirm = req
	return m.Order, m.Err
}

func (m *MockOrders) ApplyPaytmWebhook(_ context.Context, raw []byte, contentType string) (*domain.Order, error) {
	m.LastRaw = raw
	m.LastCT = contentType
	return m.Order, m.Err
}

func (m *MockOrders) InitiatePaytm(_ context.Context, _ string) (*service.PaymentInstruction, error) {
	return m.Instruction, m.Err
}
