package dish

import (
	"time"

	"github.com/fjod/go_grocer/internal/domain"
	"github.com/shopspring/decimal"
)

// IngredientDoc keeps the numeric Price that existing clients read and adds
// the exact decimal text. Readers prefer PriceText when it is present.
type IngredientDoc struct {
	ID        string  `firestore:"ID"`
	Name      string  `firestore:"Name"`
	Quantity  int64   `firestore:"quantity"`
	Price     float64 `firestore:"Price"`
	PriceText string  `firestore:"PriceText,omitempty"`
	Image     string  `firestore:"Image"`
}

func (in IngredientDoc) price() decimal.Decimal {
	if in.PriceText != "" {
		if d, err := decimal.NewFromString(in.PriceText); err == nil {
			return d
		}
	}
	return decimal.NewFromFloat(in.Price)
}

type StepDoc struct {
	ID          string `firestore:"ID"`
	Description string `firestore:"description"`
}

// Doc is the Firestore shape of a dish, shared by CustomDishes and PublicDishes.
type Doc struct {
	ID          string          `firestore:"ID"`
	Name        string          `firestore:"Name"`
	Image       string          `firestore:"Image"`
	Ingredients []IngredientDoc `firestore:"ingredients"`
	Steps       []StepDoc       `firestore:"steps"`
	AuthorID    string          `firestore:"AuthorID"`
	AuthorName  string          `firestore:"User"`
	CreatedAt   time.Time       `firestore:"CreatedAt"`
}

func ToDoc(d domain.Dish) Doc {
	doc := Doc{
		ID:          d.ID,
		Name:        d.Name,
		Image:       d.Image,
		Ingredients: make([]IngredientDoc, len(d.Ingredients)),
		Steps:       make([]StepDoc, len(d.Steps)),
		AuthorID:    d.AuthorID,
		AuthorName:  d.AuthorName,
		CreatedAt:   d.CreatedAt,
	}
	for i, in := range d.Ingredients {
		doc.Ingredients[i] = IngredientDoc{
			ID:       in.ID,
			Name:     in.Name,
			Quantity: int64(in.Quantity),
			Price:    in.Price.InexactFloat64(),
			Image:    in.Image,
		}
		if !in.Price.IsZero() {
			doc.Ingredients[i].PriceText = in.Price.String()
		}
	}
	for i, s := range d.Steps {
		doc.Steps[i] = StepDoc{ID: s.ID, Description: s.Description}
	}
	return doc
}

// ToDomain keys the dish by docID. The stored ID field is ignored; older
// documents omit it or carry a stale value.
func (doc Doc) ToDomain(docID string) domain.Dish {
	d := domain.Dish{
		ID:          docID,
		Name:        doc.Name,
		Image:       doc.Image,
		Ingredients: make([]domain.Ingredient, len(doc.Ingredients)),
		Steps:       make([]domain.RecipeStep, len(doc.Steps)),
		AuthorID:    doc.AuthorID,
		AuthorName:  doc.AuthorName,
		CreatedAt:   doc.CreatedAt,
	}
	for i, in := range doc.Ingredients {
		d.Ingredients[i] = domain.Ingredient{
			ID:       in.ID,
			Name:     in.Name,
			Quantity: int(in.Quantity),
			Price:    in.price(),
			Image:    in.Image,
		}
	}
	for i, s := range doc.Steps {
		d.Steps[i] = domain.RecipeStep{ID: s.ID, Description: s.Description}
	}
	return d
}
