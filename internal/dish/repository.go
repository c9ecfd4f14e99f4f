package dish

import (
	"context"
	"errors"

	"github.com/fjod/go_grocer/internal/domain"
)

var (
	ErrDishNotFound = errors.New("dish not found")
	ErrDishExists   = errors.New("dish already exists")
)

// Repository persists a user's custom dishes.
type Repository interface {
	// NewID allocates a store-issued dish id without writing anything.
	NewID() string
	Create(ctx context.Context, userID string, d domain.Dish) error
	List(ctx context.Context, userID string) ([]domain.Dish, error)
	Get(ctx context.Context, userID, dishID string) (domain.Dish, error)
}
