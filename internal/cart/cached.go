package cart

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_storefront/internal/domain"
)

const cacheOpTimeout = time.Second

// CachedStore reads through a Cache and writes through it on Save.
// Cache failures are logged and never fail the request.
type CachedStore struct {
	store  Store
	cache  Cache
	logger *slog.Logger
	sfg    singleflight.Group
}

func NewCachedStore(store Store, cache Cache, logger *slog.Logger) *CachedStore {
	return &CachedStore{store: store, cache: cache, logger: logger}
}

func (s *CachedStore) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {
		c, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			s.logger.WarnContext(ctx, "cart cache get failed", "session_id", sessionID, "error", err)
		}

		c, err = s.store.Get(ctx, sessionID)
		if err != nil {
			return nil, err
		}

		// fill synchronously; a later Save overwrites this entry
		fillCtx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
		defer cancel()
		if err := s.cache.Set(fillCtx, c); err != nil {
			s.logger.WarnContext(ctx, "cart cache set failed", "session_id", sessionID, "error", err)
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}

	// callers mutate the cart, so hand each one its own copy
	shared := v.(*domain.Cart)
	out := *shared
	out.Items = append([]domain.CartLineItem(nil), shared.Items...)
	return &out, nil
}

// Save persists c and then replaces the cached copy. If the cache can't be
// updated the key is dropped so the next Get reads the store.
func (s *CachedStore) Save(ctx context.Context, c *domain.Cart) error {
	if err := s.store.Save(ctx, c); err != nil {
		return err
	}
	s.sfg.Forget(c.ID)

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheOpTimeout)
	defer cancel()
	if err := s.cache.Set(writeCtx, c); err != nil {
		s.logger.WarnContext(ctx, "cart cache write failed", "session_id", c.ID, "error", err)
		s.invalidate(writeCtx, c.ID)
	}
	return nil
}

func (s *CachedStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.sfg.Forget(sessionID)

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheOpTimeout)
	defer cancel()
	s.invalidate(writeCtx, sessionID)
	return nil
}

func (s *CachedStore) invalidate(ctx context.Context, sessionID string) {
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		s.logger.WarnContext(ctx, "cart cache invalidate failed", "session_id", sessionID, "error", err)
	}
}
