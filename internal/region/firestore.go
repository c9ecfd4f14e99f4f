package region

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/fjod/go_grocer/internal/dish"
	"github.com/fjod/go_grocer/internal/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	regionsCollection = "Regions"
	dishesCollection  = "Dishes"
)

type regionDoc struct {
	Name  string `firestore:"Name"`
	Image string `firestore:"Image"`
}

type FirestoreRepository struct {
	store *firestore.Client
}

func NewFirestoreRepository(store *firestore.Client) *FirestoreRepository {
	return &FirestoreRepository{store: store}
}

func (r *FirestoreRepository) region(id string) *firestore.DocumentRef {
	return r.store.Collection(regionsCollection).Doc(id)
}

// ListRegions returns every region sorted by name.
func (r *FirestoreRepository) ListRegions(ctx context.Context) ([]domain.Region, error) {
	docs, err := r.store.Collection(regionsCollection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("region: listing regions: %w", err)
	}

	regions := make([]domain.Region, len(docs))
	for i, snap := range docs {
		var doc regionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("region: unmarshalling region %s: %w", snap.Ref.ID, err)
		}
		regions[i] = domain.Region{ID: snap.Ref.ID, Name: doc.Name, Image: doc.Image}
	}
	slices.SortFunc(regions, func(a, b domain.Region) int {
		return strings.Compare(a.Name, b.Name)
	})
	return regions, nil
}

func (r *FirestoreRepository) ListDishes(ctx context.Context, regionID string) ([]domain.Dish, error) {
	if _, err := r.region(regionID).Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, fmt.Errorf("region: %s: %w", regionID, ErrRegionNotFound)
		}
		return nil, fmt.Errorf("region: getting region: %w", err)
	}

	docs, err := r.region(regionID).Collection(dishesCollection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("region: listing dishes: %w", err)
	}

	dishes := make([]domain.Dish, len(docs))
	for i, snap := range docs {
		var doc dish.Doc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("region: unmarshalling dish %s: %w", snap.Ref.ID, err)
		}
		dishes[i] = doc.ToDomain(snap.Ref.ID)
	}
	dish.SortNewestFirst(dishes)
	return dishes, nil
}

func (r *FirestoreRepository) GetDish(ctx context.Context, regionID, dishID string) (domain.Dish, error) {
	snap, err := r.region(regionID).Collection(dishesCollection).Doc(dishID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.Dish{}, fmt.Errorf("region: %s/%s: %w", regionID, dishID, ErrDishNotFound)
		}
		return domain.Dish{}, fmt.Errorf("region: getting dish: %w", err)
	}

	var doc dish.Doc
	if err := snap.DataTo(&doc); err != nil {
		return domain.Dish{}, fmt.Errorf("region: unmarshalling dish %s: %w", dishID, err)
	}
	return doc.ToDomain(snap.Ref.ID), nil
}
