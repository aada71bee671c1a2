package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/go_storefront/internal/cart"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/pricing"
	"github.com/fjod/go_storefront/internal/repository"
)

const maxLineQuantity = 99

// CartView is a cart together with its priced summary. Lines whose product or size
// no longer resolves are reported in Unavailable and left out of the summary.
type CartView struct {
	Cart        *domain.Cart          `json:"cart"`
	Summary     *pricing.Quote        `json:"summary"`
	Unavailable []domain.CartLineItem `json:"unavailable,omitempty"`
}

type CartServiceDeps struct {
	Carts     cart.Store
	Store     repository.Store
	Pricer    Pricer
	Validator Validator
	Logger    *slog.Logger
	Clock     func() time.Time
}

type CartService struct {
	carts     cart.Store
	products  *repository.Collection[domain.Product]
	offers    *repository.Collection[domain.Offer]
	pricer    Pricer
	validator Validator
	logger    *slog.Logger
	now       func() time.Time
}

func NewCartService(deps CartServiceDeps) (*CartService, error) {
	if deps.Carts == nil || deps.Store == nil || deps.Pricer == nil || deps.Validator == nil {
		return nil, errors.New("cart service: carts, store, pricer and validator are required")
	}
	s := &CartService{
		carts:     deps.Carts,
		products:  repository.NewCollection[domain.Product](deps.Store, repository.Products),
		offers:    repository.NewCollection[domain.Offer](deps.Store, repository.Offers),
		pricer:    deps.Pricer,
		validator: deps.Validator,
		logger:    deps.Logger,
		now:       deps.Clock,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s, nil
}

func (s *CartService) Get(ctx context.Context, sessionID string) (*CartView, error) {
	c, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

// AddItem validates the line against the catalog and merges it into the session cart.
func (s *CartService) AddItem(ctx context.Context, sessionID string, item domain.CartLineItem) (*CartView, error) {
	if err := s.validator.Struct(&item); err != nil {
		return nil, err
	}
	product, err := s.products.Get(ctx, item.ProductID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProduct, item.ProductID)
		}
		return nil, err
	}
	if _, ok := product.PriceFor(item.Size); !ok {
		return nil, fmt.Errorf("%w: %s has no size %q", domain.ErrInvalidSize, item.ProductID, item.Size)
	}

	c, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for _, existing := range c.Items {
		if existing.ProductID == item.ProductID && existing.Size == item.Size &&
			existing.Quantity+item.Quantity > maxLineQuantity {
			return nil, domain.NewValidationError("quantity", fmt.Sprintf("must be at most %d", maxLineQuantity))
		}
	}
	c.AddItem(item)
	c.UpdatedAt = s.now()

	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

// RemoveItem drops one line. An empty size removes the first line for the product.
func (s *CartService) RemoveItem(ctx context.Context, sessionID, productID, size string) (*CartView, error) {
	c, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !c.RemoveItem(productID, size) {
		return nil, repository.NotFound(repository.Carts, sessionID+"/"+productID)
	}
	c.UpdatedAt = s.now()
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return s.view(ctx, c)
}

func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	return s.carts.Delete(ctx, sessionID)
}

func (s *CartService) view(ctx context.Context, c *domain.Cart) (*CartView, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	offers, err := s.offers.List(ctx)
	if err != nil {
		return nil, err
	}

	catalog := make(map[string]domain.Product, len(products))
	for _, p := range products {
		catalog[p.ID] = p
	}
	priceable := make([]domain.CartLineItem, 0, len(c.Items))
	var unavailable []domain.CartLineItem
	for _, item := range c.Items {
		p, ok := catalog[item.ProductID]
		if !ok {
			unavailable = append(unavailable, item)
			continue
		}
		if _, ok := p.PriceFor(item.Size); !ok {
			unavailable = append(unavailable, item)
			continue
		}
		priceable = append(priceable, item)
	}

	summary, err := s.pricer.Calculate(priceable, products, offers)
	if err != nil {
		return nil, err
	}
	if c.Items == nil {
		c.Items = []domain.CartLineItem{}
	}
	return &CartView{Cart: c, Summary: summary, Unavailable: unavailable}, nil
}
