package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/events"
	"github.com/fjod/go_storefront/internal/payment/paytm"
	"github.com/fjod/go_storefront/internal/payment/upi"
	"github.com/fjod/go_storefront/internal/repository"
)

// MockStore implements repository.Store in memory
type MockStore struct {
	mu      sync.Mutex
	docs    map[string]map[string]json.RawMessage
	PutErr  error
	PutsFor map[string]int // Counts Put calls per collection
}

func NewMockStore() *MockStore {
	return &MockStore{
		docs:    map[string]map[string]json.RawMessage{},
		PutsFor: map[string]int{},
	}
}

func (m *MockStore) Get(_ context.Context, collection, id string) (json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[collection][id]
	if !ok {
		return nil, repository.NotFound(collection, id)
	}
	return doc, nil
}

func (m *MockStore) List(_ context.Context, collection string) ([]json.RawMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.docs[collection]))
	for id := range m.docs[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]json.RawMessage, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.docs[collection][id])
	}
	return out, nil
}

func (m *MockStore) Put(_ context.Context, collection, id string, doc json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutsFor[collection]++
	if m.PutErr != nil {
		return m.PutErr
	}
	if m.docs[collection] == nil {
		m.docs[collection] = map[string]json.RawMessage{}
	}
	m.docs[collection][id] = append(json.RawMessage(nil), doc...)
	return nil
}

func (m *MockStore) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[collection][id]; !ok {
		return repository.NotFound(collection, id)
	}
	delete(m.docs[collection], id)
	return nil
}

func (m *MockStore) Close() error {
	return nil
}

// Count returns the number of documents in a collection.
func (m *MockStore) Count(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs[collection])
}

// Seed stores v under id, panicking on encode errors.
func (m *MockStore) Seed(collection, id string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	if err := m.Put(context.Background(), collection, id, raw); err != nil {
		panic(err)
	}
	m.mu.Lock()
	m.PutsFor[collection]--
	m.mu.Unlock()
}

// MockUPI implements UPIGenerator for testing
type MockUPI struct {
	Err        error
	LastOrder  string
	LastAmount float64
}

func (m *MockUPI) Instruction(orderID string, amount float64) (*upi.Instruction, error) {
	m.LastOrder = orderID
	m.LastAmount = amount
	if m.Err != nil {
		return nil, m.Err
	}
	return &upi.Instruction{Link: "upi://pay?tr=" + orderID, QRCode: "data:image/png;base64,AAAA"}, nil
}

// MockPaytm implements paytm.Provider for testing
type MockPaytm struct {
	InitiateErr  error
	Notification *paytm.Notification
	WebhookErr   error
	Initiated    []paytm.Transaction
}

func (m *MockPaytm) Mode() string {
	return paytm.ModeTest
}

func (m *MockPaytm) Initiate(_ context.Context, txn paytm.Transaction) (*paytm.Token, error) {
	m.Initiated = append(m.Initiated, txn)
	if m.InitiateErr != nil {
		return nil, m.InitiateErr
	}
	return &paytm.Token{
		TxnToken: "TOKEN_" + txn.OrderID,
		MID:      "MID123",
		OrderID:  txn.OrderID,
		Amount:   "100.00",
		Mock:     true,
	}, nil
}

func (m *MockPaytm) VerifyWebhook(_ []byte, _ string) (*paytm.Notification, error) {
	return m.Notification, m.WebhookErr
}

// MockPublisher implements events.Publisher for testing
type MockPublisher struct {
	mu     sync.Mutex
	Events []events.Event
	Err    error
}

func (m *MockPublisher) Publish(_ context.Context, e events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, e)
	return m.Err
}

func (m *MockPublisher) Close() error {
	return nil
}

func (m *MockPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.Events))
	for _, e := range m.Events {
		types = append(types, e.Type)
	}
	return types
}

// MockCarts implements cart.Store for testing
type MockCarts struct {
	Carts   map[string]*domain.Cart
	Deleted []string
}

func (m *MockCarts) Get(_ context.Context, sessionID string) (*domain.Cart, error) {
	if c, ok := m.Carts[sessionID]; ok {
		return c, nil
	}
	return &domain.Cart{ID: sessionID, Items: []domain.CartLineItem{}}, nil
}

func (m *MockCarts) Save(_ context.Context, c *domain.Cart) error {
	if m.Carts == nil {
		m.Carts = map[string]*domain.Cart{}
	}
	m.Carts[c.ID] = c
	return nil
}

func (m *MockCarts) Delete(_ context.Context, sessionID string) error {
	m.Deleted = append(m.Deleted, sessionID)
	delete(m.Carts, sessionID)
	return nil
}

var errBoom = errors.New("boom")
