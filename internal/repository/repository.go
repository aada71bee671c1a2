// Package repository defines the document store the catalog, orders, customers and carts live in.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/go_storefront/internal/domain"
)

// Collection names.
const (
	Products  = "products"
	Orders    = "orders"
	Customers = "customers"
	Offers    = "offers"
	Carts     = "carts"
)

// Store holds JSON documents grouped by collection and keyed by id.
// Get and Delete return an error wrapping domain.ErrNotFound when the id is absent.
type Store interface {
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)
	List(ctx context.Context, collection string) ([]json.RawMessage, error)
	Put(ctx context.Context, collection, id string, doc json.RawMessage) error
	Delete(ctx context.Context, collection, id string) error
	Close() error
}

// Collection is a typed view over one collection of a Store.
type Collection[T any] struct {
	store Store
	name  string
}

func NewCollection[T any](store Store, name string) *Collection[T] {
	return &Collection[T]{store: store, name: name}
}

func (c *Collection[T]) Name() string {
	return c.name
}

func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	raw, err := c.store.Get(ctx, c.name, id)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: decode %s/%s: %v", domain.ErrPersistence, c.name, id, err)
	}
	return &v, nil
}

func (c *Collection[T]) List(ctx context.Context) ([]T, error) {
	docs, err := c.store.List(ctx, c.name)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, raw := range docs {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", domain.ErrPersistence, c.name, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Collection[T]) Put(ctx context.Context, id string, v *T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %s/%s: %v", domain.ErrPersistence, c.name, id, err)
	}
	return c.store.Put(ctx, c.name, id, raw)
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return c.store.Delete(ctx, c.name, id)
}

// IsNotFound reports whether err means the document does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}

// NotFound builds the error stores return for a missing id.
func NotFound(collection, id string) error {
	return fmt.Errorf("%s %q: %w", collection, id, domain.ErrNotFound)
}

// DocumentID extracts the "id" field of a JSON document.
func DocumentID(raw json.RawMessage) (string, error) {
	var doc struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", err
	}
	return doc.ID, nil
}
