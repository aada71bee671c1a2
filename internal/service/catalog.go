package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/repository"
)

// ProductFilter narrows the product listing. Zero values mean "no filter".
type ProductFilter struct {
	Category string
	Type     domain.ProductType
	Featured *bool
	MinPrice *float64
	MaxPrice *float64
	Search   string
	Limit    int
}

type CatalogServiceDeps struct {
	Store     repository.Store
	Validator Validator
	Logger    *slog.Logger
	Clock     func() time.Time
}

type CatalogService struct {
	products  *repository.Collection[domain.Product]
	offers    *repository.Collection[domain.Offer]
	validator Validator
	logger    *slog.Logger
	now       func() time.Time
}

func NewCatalogService(deps CatalogServiceDeps) (*CatalogService, error) {
	if deps.Store == nil || deps.Validator == nil {
		return nil, errors.New("catalog service: store and validator are required")
	}
	s := &CatalogService{
		products:  repository.NewCollection[domain.Product](deps.Store, repository.Products),
		offers:    repository.NewCollection[domain.Offer](deps.Store, repository.Offers),
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

// ListProducts returns matching products sorted by title and the match count before Limit.
func (s *CatalogService) ListProducts(ctx context.Context, f ProductFilter) ([]domain.Product, int, error) {
	if f.Type != "" && f.Type != domain.ProductTypePoster && f.Type != domain.ProductTypePolaroid {
		return nil, 0, domain.NewValidationError("type", "must be one of: poster polaroid")
	}
	if f.Limit < 0 {
		return nil, 0, domain.NewValidationError("limit", "must be at least 0")
	}

	all, err := s.products.List(ctx)
	if err != nil {
		return nil, 0, err
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	matched := make([]domain.Product, 0, len(all))
	for _, p := range all {
		if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
			continue
		}
		if f.Type != "" && p.Type != f.Type {
			continue
		}
		if f.Featured != nil && p.Featured != *f.Featured {
			continue
		}
		if f.MinPrice != nil && p.MinPrice() < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && p.MinPrice() > *f.MaxPrice {
			continue
		}
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		matched = append(matched, p)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Title < matched[j].Title
	})

	total := len(matched)
	if f.Limit > 0 && f.Limit < total {
		matched = matched[:f.Limit]
	}
	return matched, total, nil
}

func matchesSearch(p domain.Product, term string) bool {
	if strings.Contains(strings.ToLower(p.Title), term) ||
		strings.Contains(strings.ToLower(p.Description), term) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.products.Get(ctx, id)
}

func (s *CatalogService) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	p.NormalizeTags()
	if err := s.validator.Struct(p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	} else if _, err := s.products.Get(ctx, p.ID); err == nil {
		return nil, fmt.Errorf("%w: product %s already exists", domain.ErrConflict, p.ID)
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.products.Put(ctx, p.ID, p); err != nil {
		return nil, fmt.Errorf("persist product: %w", err)
	}
	s.logger.InfoContext(ctx, "product created", "product_id", p.ID)
	return p, nil
}

// UpdateProduct merges patch over the stored product; id and created_at are kept.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, patch json.RawMessage) (*domain.Product, error) {
	current, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	merged, err := domain.MergePatch(*current, patch)
	if err != nil {
		return nil, err
	}
	merged.ID = current.ID
	merged.CreatedAt = current.CreatedAt
	merged.NormalizeTags()
	if err := s.validator.Struct(&merged); err != nil {
		return nil, err
	}
	merged.UpdatedAt = s.now()

	if err := s.products.Put(ctx, merged.ID, &merged); err != nil {
		return nil, fmt.Errorf("persist product: %w", err)
	}
	s.logger.InfoContext(ctx, "product updated", "product_id", merged.ID)
	return &merged, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "product deleted", "product_id", id)
	return nil
}

// ActiveOffers returns offers flagged active, regardless of their subtotal condition.
func (s *CatalogService) ActiveOffers(ctx context.Context) ([]domain.Offer, error) {
	all, err := s.offers.List(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]domain.Offer, 0, len(all))
	for _, o := range all {
		if o.Active {
			active = append(active, o)
		}
	}
	return active, nil
}

func (s *CatalogService) CreateOffer(ctx context.Context, o *domain.Offer) (*domain.Offer, error) {
	if err := s.validator.Struct(o); err != nil {
		return nil, err
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	} else if _, err := s.offers.Get(ctx, o.ID); err == nil {
		return nil, fmt.Errorf("%w: offer %s already exists", domain.ErrConflict, o.ID)
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	if err := s.offers.Put(ctx, o.ID, o); err != nil {
		return nil, fmt.Errorf("persist offer: %w", err)
	}
	s.logger.InfoContext(ctx, "offer created", "offer_id", o.ID, "type", o.Type, "value", o.Value)
	return o, nil
}

func (s *CatalogService) DeleteOffer(ctx context.Context, id string) error {
	if err := s.offers.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "offer deleted", "offer_id", id)
	return nil
}
