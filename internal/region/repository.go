package region

import (
	"context"
	"errors"

	"github.com/fjod/go_grocer/internal/domain"
)

var (
	ErrRegionNotFound = errors.New("region not found")
	ErrDishNotFound   = errors.New("regional dish not found")
)

// Repository reads the curated regions and their dishes. Nothing writes to it at runtime.
type Repository interface {
	ListRegions(ctx context.Context) ([]domain.Region, error)
	// ListDishes fails with ErrRegionNotFound for an unknown region.
	ListDishes(ctx context.Context, regionID string) ([]domain.Dish, error)
	GetDish(ctx context.Context, regionID, dishID string) (domain.Dish, error)
}
