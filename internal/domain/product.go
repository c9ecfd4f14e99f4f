package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

const categoryPrefix = "/Categories/"

// Product is a catalog entry. It is owned by the catalog and never mutated here.
type Product struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image"`
	Stock int             `json:"stock"`
	// Category is a document reference of the form /Categories/{id}.
	Category string `json:"category"`
	// Scale marks products priced per unit of weight rather than per item.
	Scale bool `json:"scale"`
}

func (p Product) InStock() bool {
	return p.Stock > 0
}

// CategoryID extracts {id} from the /Categories/{id} reference.
func (p Product) CategoryID() string {
	return strings.TrimPrefix(p.Category, categoryPrefix)
}

// CategoryRef builds the reference stored on products for a category id.
func CategoryRef(categoryID string) string {
	return categoryPrefix + categoryID
}
