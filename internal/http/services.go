package http

import (
	"context"

	"github.com/fjod/go_grocer/internal/cart"
	"github.com/fjod/go_grocer/internal/domain"
	"github.com/fjod/go_grocer/internal/social"
)

type Catalog interface {
	ListAll(ctx context.Context) ([]domain.Product, error)
	ListByCategory(ctx context.Context, categoryID string) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	Resolve(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

type Carts interface {
	GetCart(ctx context.Context, userID string) (domain.Cart, error)
	AddItem(ctx context.Context, userID string, product domain.Product, quantity int) (domain.Cart, error)
	IncrementQuantity(ctx context.Context, userID, productID string) (domain.Cart, error)
	DecrementQuantity(ctx context.Context, userID, productID string) (domain.Cart, error)
	RemoveItem(ctx context.Context, userID, productID string) (domain.Cart, error)
	AddItems(ctx context.Context, userID string, items []cart.Addition) (domain.Cart, error)
	Clear(ctx context.Context, userID string) error
}

type Orders interface {
	Checkout(ctx context.Context, userID, currency, idempotencyKey string) (*domain.Order, error)
	ListOrders(ctx context.Context, userID string) ([]*domain.Order, error)
}

type Dishes interface {
	NewID() string
	Create(ctx context.Context, userID string, d domain.Dish) error
	List(ctx context.Context, userID string) ([]domain.Dish, error)
	Get(ctx context.Context, userID, dishID string) (domain.Dish, error)
}

type Regions interface {
	ListRegions(ctx context.Context) ([]domain.Region, error)
	ListDishes(ctx context.Context, regionID string) ([]domain.Dish, error)
	GetDish(ctx context.Context, regionID, dishID string) (domain.Dish, error)
}

type Social interface {
	Share(ctx context.Context, d domain.Dish) (domain.PublicDish, error)
	ToggleLike(ctx context.Context, dishID, userID string) (social.LikeResult, error)
	AddComment(ctx context.Context, dishID string, user domain.User, text string) (domain.Comment, error)
	SetRating(ctx context.Context, dishID string, value int) error
	List(ctx context.Context, userID, sortKey string) ([]social.PublicDishView, error)
}

type Uploader interface {
	Upload(ctx context.Context, dishID, contentType string, data []byte) (string, error)
}
