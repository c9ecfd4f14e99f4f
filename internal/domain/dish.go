package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Ingredient is a snapshot of a product taken when the dish was saved.
// Later catalog changes do not propagate to it.
type Ingredient struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
}

// RecipeStep IDs are 1-based ordinals encoded as strings.
type RecipeStep struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

type Dish struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Image       string       `json:"image"`
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []RecipeStep `json:"steps"`
	AuthorID    string       `json:"author_id"`
	AuthorName  string       `json:"author_name"`
	CreatedAt   time.Time    `json:"created_at"`
}

type Comment struct {
	User string `json:"user"`
	Text string `json:"text"`
}

// PublicDish is a shared copy of a Dish plus its social fields.
type PublicDish struct {
	Dish
	Likes    []string  `json:"likes"`
	Comments []Comment `json:"comments"`
	// Rating is a single shared value, last writer wins. Zero means unrated.
	Rating   int       `json:"rating"`
	SharedAt time.Time `json:"shared_at"`
}

func (p PublicDish) LikedBy(userID string) bool {
	return slices.Contains(p.Likes, userID)
}

func (p PublicDish) LikeCount() int {
	return len(p.Likes)
}
