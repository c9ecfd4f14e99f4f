package http

import (
	"context"

	"github.com/fjod/go_grocer/internal/cart"
	"github.com/fjod/go_grocer/internal/domain"
)

// DishCartResponse reports the cart after a dish was added and the
// ingredients that could not be bought.
type DishCartResponse struct {
	Cart    CartResponse `json:"cart"`
	Skipped []string     `json:"skipped"`
}

// dishCart adds a dish's ingredients to a cart at their saved snapshot price.
// Ingredients gone from the catalog or out of stock are skipped.
type dishCart struct {
	carts   Carts
	catalog Catalog
}

func (dc dishCart) add(ctx context.Context, userID string, d domain.Dish) (DishCartResponse, error) {
	ids := make([]string, len(d.Ingredients))
	for i, in := range d.Ingredients {
		ids[i] = in.ID
	}
	live, err := dc.catalog.Resolve(ctx, ids)
	if err != nil {
		return DishCartResponse{}, err
	}

	resp := DishCartResponse{Skipped: []string{}}
	items := make([]cart.Addition, 0, len(d.Ingredients))
	for _, in := range d.Ingredients {
		p, ok := live[in.ID]
		if !ok || !p.InStock() {
			resp.Skipped = append(resp.Skipped, in.ID)
			continue
		}
		items = append(items, cart.Addition{
			Product: domain.Product{
				ID:    in.ID,
				Name:  in.Name,
				Price: in.Price,
				Image: in.Image,
				Scale: p.Scale,
			},
			Quantity: min(in.Quantity, maxLineQuantity),
		})
	}

	updated, err := dc.carts.AddItems(ctx, userID, items)
	if err != nil {
		return DishCartResponse{}, err
	}
	resp.Cart = toCartResponse(updated)
	return resp, nil
}
