package dish

import (
	"context"
	"fmt"
	"slices"

	"cloud.google.com/go/firestore"
	"github.com/fjod/go_grocer/internal/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	usersCollection  = "Users"
	dishesCollection = "CustomDishes"
)

func NewFirestoreRepository(store *firestore.Client) *FirestoreRepository {
	return &FirestoreRepository{store: store}
}

type FirestoreRepository struct {
	store *firestore.Client
}

func (r *FirestoreRepository) dishes(userID string) *firestore.CollectionRef {
	return r.store.Collection(usersCollection).Doc(userID).Collection(dishesCollection)
}

func (r *FirestoreRepository) NewID() string {
	return r.store.Collection(dishesCollection).NewDoc().ID
}

func (r *FirestoreRepository) Create(ctx context.Context, userID string, d domain.Dish) error {
	if _, err := r.dishes(userID).Doc(d.ID).Create(ctx, ToDoc(d)); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("dish: %s: %w", d.ID, ErrDishExists)
		}
		return fmt.Errorf("dish: saving dish: %w", err)
	}
	return nil
}

// List returns the user's dishes newest first. Sorting happens here because an
// OrderBy query skips documents that have no CreatedAt field; those sort last.
func (r *FirestoreRepository) List(ctx context.Context, userID string) ([]domain.Dish, error) {
	docs, err := r.dishes(userID).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("dish: listing dishes: %w", err)
	}

	dishes := make([]domain.Dish, len(docs))
	for i, snap := range docs {
		var doc Doc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("dish: unmarshalling dish %s: %w", snap.Ref.ID, err)
		}
		dishes[i] = doc.ToDomain(snap.Ref.ID)
	}
	SortNewestFirst(dishes)
	return dishes, nil
}

func (r *FirestoreRepository) Get(ctx context.Context, userID, dishID string) (domain.Dish, error) {
	snap, err := r.dishes(userID).Doc(dishID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return domain.Dish{}, fmt.Errorf("dish: %s: %w", dishID, ErrDishNotFound)
		}
		return domain.Dish{}, fmt.Errorf("dish: getting dish: %w", err)
	}

	var doc Doc
	if err := snap.DataTo(&doc); err != nil {
		return domain.Dish{}, fmt.Errorf("dish: unmarshalling dish %s: %w", dishID, err)
	}
	return doc.ToDomain(snap.Ref.ID), nil
}

// SortNewestFirst orders dishes by CreatedAt descending. A zero CreatedAt is the oldest.
func SortNewestFirst(dishes []domain.Dish) {
	slices.SortStableFunc(dishes, func(a, b domain.Dish) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
