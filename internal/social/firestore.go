package social

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/fjod/go_grocer/internal/dish"
	"github.com/fjod/go_grocer/internal/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const publicDishesCollection = "PublicDishes"

type commentDoc struct {
	User string `firestore:"user"`
	Text string `firestore:"text"`
}

type publicDishDoc struct {
	dish.Doc
	Likes    []string     `firestore:"likes"`
	Comments []commentDoc `firestore:"comments"`
	Rating   int64        `firestore:"rating"`
	SharedAt time.Time    `firestore:"SharedAt"`
}

func toPublicDoc(d domain.PublicDish) publicDishDoc {
	doc := publicDishDoc{
		Doc:      dish.ToDoc(d.Dish),
		Likes:    d.Likes,
		Comments: make([]commentDoc, len(d.Comments)),
		Rating:   int64(d.Rating),
		SharedAt: d.SharedAt,
	}
	if doc.Likes == nil {
		doc.Likes = []string{}
	}
	for i, c := range d.Comments {
		doc.Comments[i] = commentDoc(c)
	}
	return doc
}

// toDomain keys the copy by its document id, which is the original dish id.
func (doc publicDishDoc) toDomain(id string) domain.PublicDish {
	d := domain.PublicDish{
		Dish:     doc.Doc.ToDomain(id),
		Likes:    doc.Likes,
		Comments: make([]domain.Comment, len(doc.Comments)),
		Rating:   int(doc.Rating),
		SharedAt: doc.SharedAt,
	}
	if d.Likes == nil {
		d.Likes = []string{}
	}
	for i, c := range doc.Comments {
		d.Comments[i] = domain.Comment(c)
	}
	return d
}

type FirestoreStore struct {
	store *firestore.Client
}

func NewFirestoreStore(store *firestore.Client) *FirestoreStore {
	return &FirestoreStore{store: store}
}

func (s *FirestoreStore) ref(dishID string) *firestore.DocumentRef {
	return s.store.Collection(publicDishesCollection).Doc(dishID)
}

// Create fails with ErrAlreadyShared if a public copy exists; the check and the write are one operation.
func (s *FirestoreStore) Create(ctx context.Context, d domain.PublicDish) error {
	if _, err := s.ref(d.ID).Create(ctx, toPublicDoc(d)); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return ErrAlreadyShared
		}
		return fmt.Errorf("social: sharing dish: %w", err)
	}
	return nil
}

func (s *FirestoreStore) List(ctx context.Context) ([]domain.PublicDish, error) {
	docs, err := s.store.Collection(publicDishesCollection).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("social: listing public dishes: %w", err)
	}

	dishes := make([]domain.PublicDish, len(docs))
	for i, snap := range docs {
		var doc publicDishDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("social: unmarshalling public dish %s: %w", snap.Ref.ID, err)
		}
		dishes[i] = doc.toDomain(snap.Ref.ID)
	}
	return dishes, nil
}

// ToggleLike reads and writes the likes array in one transaction, so concurrent
// toggles are serialized by Firestore's retry on contention.
func (s *FirestoreStore) ToggleLike(ctx context.Context, dishID, userID string) (LikeResult, error) {
	var res LikeResult
	ref := s.ref(dishID)
	err := s.store.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		doc, err := getPublicDish(tx, ref)
		if err != nil {
			return err
		}

		likes := doc.Likes
		if i := slices.Index(likes, userID); i >= 0 {
			likes = slices.Delete(likes, i, i+1)
			res.Liked = false
		} else {
			likes = append(likes, userID)
			res.Liked = true
		}
		if likes == nil {
			likes = []string{}
		}
		res.Likes = len(likes)
		return tx.Update(ref, []firestore.Update{{Path: "likes", Value: likes}})
	})
	if err != nil {
		return LikeResult{}, wrapTxErr("toggling like", err)
	}
	return res, nil
}

// AppendComment keeps duplicates, unlike an ArrayUnion update.
func (s *FirestoreStore) AppendComment(ctx context.Context, dishID string, c domain.Comment) error {
	ref := s.ref(dishID)
	err := s.store.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		doc, err := getPublicDish(tx, ref)
		if err != nil {
			return err
		}
		comments := append(doc.Comments, commentDoc(c))
		return tx.Update(ref, []firestore.Update{{Path: "comments", Value: comments}})
	})
	if err != nil {
		return wrapTxErr("adding comment", err)
	}
	return nil
}

func (s *FirestoreStore) SetRating(ctx context.Context, dishID string, rating int) error {
	if _, err := s.ref(dishID).Update(ctx, []firestore.Update{{Path: "rating", Value: rating}}); err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("social: %s: %w", dishID, ErrDishNotFound)
		}
		return fmt.Errorf("social: setting rating: %w", err)
	}
	return nil
}

func getPublicDish(tx *firestore.Transaction, ref *firestore.DocumentRef) (publicDishDoc, error) {
	var doc publicDishDoc
	snap, err := tx.Get(ref)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return doc, ErrDishNotFound
		}
		return doc, err
	}
	if err := snap.DataTo(&doc); err != nil {
		return doc, fmt.Errorf("unmarshalling public dish %s: %w", ref.ID, err)
	}
	return doc, nil
}

func wrapTxErr(action string, err error) error {
	if errors.Is(err, ErrDishNotFound) {
		return err
	}
	return fmt.Errorf("social: %s: %w", action, err)
}
