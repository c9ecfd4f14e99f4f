package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/go_grocer/internal/cache"
	"github.com/fjod/go_grocer/internal/domain"
	"github.com/fjod/go_grocer/pkg/circuitbreaker"
	"github.com/fjod/go_grocer/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const allProductsKey = "all"

// Service is the cached, breaker-guarded view over a Repository.
type Service struct {
	repo    Repository
	cache   cache.Cache
	breaker *circuitbreaker.Breaker
	sfg     singleflight.Group
}

func NewService(repo Repository, c cache.Cache, breaker *circuitbreaker.Breaker) *Service {
	return &Service{repo: repo, cache: c, breaker: breaker}
}

func (s *Service) ListByCategory(ctx context.Context, categoryID string) ([]domain.Product, error) {
	return s.cached(ctx, "category:"+categoryID, func(ctx context.Context) ([]domain.Product, error) {
		return s.repo.ListByCategory(ctx, categoryID)
	})
}

func (s *Service) ListAll(ctx context.Context) ([]domain.Product, error) {
	return s.cached(ctx, allProductsKey, func(ctx context.Context) ([]domain.Product, error) {
		return s.repo.ListAll(ctx)
	})
}

// GetProduct bypasses the cache so stock is current when adding to a cart.
func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	found, err := s.Resolve(ctx, []string{id})
	if err != nil {
		return domain.Product{}, err
	}
	p, ok := found[id]
	if !ok {
		return domain.Product{}, fmt.Errorf("catalog: %s: %w", id, ErrProductNotFound)
	}
	return p, nil
}

// Resolve looks up ids against the live catalog. Missing ids are absent from the result.
func (s *Service) Resolve(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	products, err := circuitbreaker.Execute(s.breaker, func() ([]domain.Product, error) {
		return s.repo.GetProducts(ctx, ids)
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.Product, len(products))
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

// cached loads key once across concurrent callers. The shared load runs on a
// context detached from the first caller so its cancellation does not fail the others.
func (s *Service) cached(ctx context.Context, key string, load func(context.Context) ([]domain.Product, error)) ([]domain.Product, error) {
	log := logger.FromContext(ctx)

	var products []domain.Product
	err := s.cache.Get(ctx, key, &products)
	if err == nil {
		return products, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.Warn("catalog cache get error", zap.String("key", key), zap.Error(err))
	}

	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		shared := context.WithoutCancel(ctx)
		products, err := circuitbreaker.Execute(s.breaker, func() ([]domain.Product, error) {
			return load(shared)
		})
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(shared, key, products); err != nil {
			log.Warn("catalog cache set error", zap.String("key", key), zap.Error(err))
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Product), nil
}
