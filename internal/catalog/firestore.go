package catalog

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/fjod/go_grocer/internal/domain"
	"github.com/shopspring/decimal"
)

const productsCollection = "Products"

// productDoc mirrors a document in the Products collection.
type productDoc struct {
	Name     string  `firestore:"Name"`
	Price    float64 `firestore:"Price"`
	Image    string  `firestore:"Image"`
	Stock    int64   `firestore:"Stock"`
	Category string  `firestore:"Category"`
	Scale    bool    `firestore:"Scale"`
}

func (d productDoc) toDomain(id string) domain.Product {
	return domain.Product{
		ID:       id,
		Name:     d.Name,
		Price:    decimal.NewFromFloat(d.Price),
		Image:    d.Image,
		Stock:    int(d.Stock),
		Category: d.Category,
		Scale:    d.Scale,
	}
}

type firestoreRepository struct {
	store *firestore.Client
}

func NewFirestoreRepository(store *firestore.Client) Repository {
	return &firestoreRepository{store: store}
}

func (r *firestoreRepository) ListByCategory(ctx context.Context, categoryID string) ([]domain.Product, error) {
	q := r.store.Collection(productsCollection).Where("Category", "==", domain.CategoryRef(categoryID))
	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("catalog: querying category %s: %w", categoryID, err)
	}
	return decodeProducts(docs)
}

func (r *firestoreRepository) ListAll(ctx context.Context) ([]domain.Product, error) {
	docs, err := r.store.Collection(productsCollection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("catalog: listing products: %w", err)
	}
	return decodeProducts(docs)
}

func (r *firestoreRepository) GetProducts(ctx context.Context, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	refs := make([]*firestore.DocumentRef, len(ids))
	for i, id := range ids {
		refs[i] = r.store.Collection(productsCollection).Doc(id)
	}
	docs, err := r.store.GetAll(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("catalog: getting products: %w", err)
	}

	found := make([]*firestore.DocumentSnapshot, 0, len(docs))
	for _, d := range docs {
		if d.Exists() {
			found = append(found, d)
		}
	}
	return decodeProducts(found)
}

func (r *firestoreRepository) Close() error {
	return nil
}

func decodeProducts(docs []*firestore.DocumentSnapshot) ([]domain.Product, error) {
	products := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		var pd productDoc
		if err := d.DataTo(&pd); err != nil {
			return nil, fmt.Errorf("catalog: unmarshalling product %s: %w", d.Ref.ID, err)
		}
		products = append(products, pd.toDomain(d.Ref.ID))
	}
	return products, nil
}
