package catalog

import (
	"context"
	"errors"

	"github.com/fjod/go_grocer/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

// Repository reads the product catalog. Implementations never write to it.
type Repository interface {
	ListByCategory(ctx context.Context, categoryID string) ([]domain.Product, error)
	ListAll(ctx context.Context) ([]domain.Product, error)
	// GetProducts returns the products that exist among ids, in no particular order.
	GetProducts(ctx context.Context, ids []string) ([]domain.Product, error)
	Close() error
}
