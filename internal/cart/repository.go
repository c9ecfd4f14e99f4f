package cart

import (
	"context"
	"errors"

	"github.com/fjod/go_grocer/internal/domain"
)

var ErrCartNotFound = errors.New("cart not found")

// Repository persists cart snapshots between process restarts.
type Repository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
}
