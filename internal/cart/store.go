// Package cart stores session carts.
package cart

import (
	"context"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/repository"
)

// Store loads and saves carts by session id. Get returns an empty cart for an unknown session.
type Store interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Save(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

// DocumentStore keeps carts in the "carts" collection of the document store.
type DocumentStore struct {
	carts *repository.Collection[domain.Cart]
}

func NewDocumentStore(store repository.Store) *DocumentStore {
	return &DocumentStore{carts: repository.NewCollection[domain.Cart](store, repository.Carts)}
}

func (s *DocumentStore) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	c, err := s.carts.Get(ctx, sessionID)
	if repository.IsNotFound(err) {
		return emptyCart(sessionID), nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *DocumentStore) Save(ctx context.Context, c *domain.Cart) error {
	c.UpdatedAt = time.Now().UTC()
	return s.carts.Put(ctx, c.ID, c)
}

func (s *DocumentStore) Delete(ctx context.Context, sessionID string) error {
	err := s.carts.Delete(ctx, sessionID)
	if repository.IsNotFound(err) {
		return nil
	}
	return err
}

func emptyCart(sessionID string) *domain.Cart {
	return &domain.Cart{ID: sessionID, Items: []domain.CartLineItem{}}
}
