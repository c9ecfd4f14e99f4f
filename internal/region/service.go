package region

import (
	"context"
	"errors"

	"github.com/fjod/go_grocer/internal/cache"
	"github.com/fjod/go_grocer/internal/domain"
	"github.com/fjod/go_grocer/pkg/circuitbreaker"
	"github.com/fjod/go_grocer/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const regionsKey = "all"

// Service caches the curated regions, which change only when editors reseed them.
type Service struct {
	repo    Repository
	cache   cache.Cache
	breaker *circuitbreaker.Breaker
	sfg     singleflight.Group
}

func NewService(repo Repository, c cache.Cache, breaker *circuitbreaker.Breaker) *Service {
	return &Service{repo: repo, cache: c, breaker: breaker}
}

func (s *Service) ListRegions(ctx context.Context) ([]domain.Region, error) {
	return cached(ctx, s, regionsKey, s.repo.ListRegions)
}

func (s *Service) ListDishes(ctx context.Context, regionID string) ([]domain.Dish, error) {
	return cached(ctx, s, "dishes:"+regionID, func(ctx context.Context) ([]domain.Dish, error) {
		return s.repo.ListDishes(ctx, regionID)
	})
}

func (s *Service) GetDish(ctx context.Context, regionID, dishID string) (domain.Dish, error) {
	var missing error
	d, err := circuitbreaker.Execute(s.breaker, func() (domain.Dish, error) {
		d, err := s.repo.GetDish(ctx, regionID, dishID)
		if notFound(err) {
			missing = err
			return domain.Dish{}, nil
		}
		return d, err
	})
	if err != nil {
		return domain.Dish{}, err
	}
	if missing != nil {
		return domain.Dish{}, missing
	}
	return d, nil
}

// notFound is a valid answer from a healthy repository.
func notFound(err error) bool {
	return errors.Is(err, ErrRegionNotFound) || errors.Is(err, ErrDishNotFound)
}

func cached[T any](ctx context.Context, s *Service, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	log := logger.FromContext(ctx)

	var out []T
	err := s.cache.Get(ctx, key, &out)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.Warn("region cache get error", zap.String("key", key), zap.Error(err))
	}

	v, err, _ := s.sfg.Do(key, func() (interface{}, error) {
		shared := context.WithoutCancel(ctx)
		var missing error
		items, err := circuitbreaker.Execute(s.breaker, func() ([]T, error) {
			items, err := load(shared)
			if notFound(err) {
				missing = err
				return nil, nil
			}
			return items, err
		})
		if err != nil {
			return nil, err
		}
		if missing != nil {
			return nil, missing
		}
		if err := s.cache.Set(shared, key, items); err != nil {
			log.Warn("region cache set error", zap.String("key", key), zap.Error(err))
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]T), nil
}
