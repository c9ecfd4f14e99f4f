package http

import (
	"time"

	"github.com/fjod/go_grocer/internal/domain"
	"github.com/fjod/go_grocer/internal/social"
	"github.com/shopspring/decimal"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type ProductResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Price      string `json:"price"`
	Image      string `json:"image"`
	Stock      int    `json:"stock"`
	CategoryID string `json:"category_id"`
	Scale      bool   `json:"scale"`
	InStock    bool   `json:"in_stock"`
}

func toProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:         p.ID,
		Name:       p.Name,
		Price:      money(p.Price),
		Image:      p.Image,
		Stock:      p.Stock,
		CategoryID: p.CategoryID(),
		Scale:      p.Scale,
		InStock:    p.InStock(),
	}
}

func toProductResponses(ps []domain.Product) []ProductResponse {
	out := make([]ProductResponse, len(ps))
	for i, p := range ps {
		out[i] = toProductResponse(p)
	}
	return out
}

type CartLineResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Image     string `json:"image"`
	Scale     bool   `json:"scale"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

type CartResponse struct {
	Items       []CartLineResponse `json:"items"`
	TotalAmount string             `json:"total_amount"`
}

func toCartResponse(c domain.Cart) CartResponse {
	resp := CartResponse{
		Items:       make([]CartLineResponse, len(c.Lines)),
		TotalAmount: money(c.TotalAmount()),
	}
	for i, l := range c.Lines {
		resp.Items[i] = CartLineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     money(l.Price),
			Image:     l.Image,
			Scale:     l.Scale,
			Quantity:  l.Quantity,
			Subtotal:  money(l.Subtotal()),
		}
	}
	return resp
}

type OrderItemResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

type OrderResponse struct {
	ID          string              `json:"id"`
	Status      string              `json:"status"`
	TotalAmount string              `json:"total_amount"`
	Currency    string              `json:"currency"`
	Items       []OrderItemResponse `json:"items"`
	CreatedAt   time.Time           `json:"created_at"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:          o.ID.String(),
		Status:      string(o.Status),
		TotalAmount: money(o.TotalAmount),
		Currency:    o.Currency,
		Items:       make([]OrderItemResponse, len(o.Items)),
		CreatedAt:   o.CreatedAt,
	}
	for i, it := range o.Items {
		resp.Items[i] = OrderItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   money(it.UnitPrice),
		}
	}
	return resp
}

type IngredientResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
	Image    string `json:"image"`
}

type DishResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Image       string               `json:"image"`
	Ingredients []IngredientResponse `json:"ingredients"`
	Steps       []domain.RecipeStep  `json:"steps"`
	AuthorID    string               `json:"author_id"`
	AuthorName  string               `json:"author_name"`
	CreatedAt   time.Time            `json:"created_at"`
}

func toDishResponse(d domain.Dish) DishResponse {
	resp := DishResponse{
		ID:          d.ID,
		Name:        d.Name,
		Image:       d.Image,
		Ingredients: make([]IngredientResponse, len(d.Ingredients)),
		Steps:       d.Steps,
		AuthorID:    d.AuthorID,
		AuthorName:  d.AuthorName,
		CreatedAt:   d.CreatedAt,
	}
	if resp.Steps == nil {
		resp.Steps = []domain.RecipeStep{}
	}
	for i, in := range d.Ingredients {
		resp.Ingredients[i] = IngredientResponse{
			ID:       in.ID,
			Name:     in.Name,
			Quantity: in.Quantity,
			Price:    money(in.Price),
			Image:    in.Image,
		}
	}
	return resp
}

func toDishResponses(ds []domain.Dish) []DishResponse {
	out := make([]DishResponse, len(ds))
	for i, d := range ds {
		out[i] = toDishResponse(d)
	}
	return out
}

type PublicDishResponse struct {
	DishResponse
	Likes    int              `json:"likes"`
	IsLiked  bool             `json:"is_liked"`
	Comments []domain.Comment `json:"comments"`
	Rating   int              `json:"rating"`
	SharedAt time.Time        `json:"shared_at"`
}

func toPublicDishResponse(d domain.PublicDish, isLiked bool) PublicDishResponse {
	comments := d.Comments
	if comments == nil {
		comments = []domain.Comment{}
	}
	return PublicDishResponse{
		DishResponse: toDishResponse(d.Dish),
		Likes:        d.LikeCount(),
		IsLiked:      isLiked,
		Comments:     comments,
		Rating:       d.Rating,
		SharedAt:     d.SharedAt,
	}
}

func toPublicDishResponses(views []social.PublicDishView) []PublicDishResponse {
	out := make([]PublicDishResponse, len(views))
	for i, v := range views {
		out[i] = toPublicDishResponse(v.PublicDish, v.IsLiked)
	}
	return out
}
