package social

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/fjod/go_grocer/internal/cache"
	"github.com/fjod/go_grocer/internal/domain"
	"github.com/fjod/go_grocer/pkg/logger"
	"go.uber.org/zap"
)

const (
	SortByLikes   = "likes"
	SortByReviews = "reviews"

	listCacheKey = "public-dishes"
)

// PublicDishView is a public dish as seen by one user.
type PublicDishView struct {
	domain.PublicDish
	IsLiked bool `json:"is_liked"`
}

type Service struct {
	store Store
	cache cache.Cache
}

func NewService(store Store, c cache.Cache) *Service {
	return &Service{store: store, cache: c}
}

// Share publishes a copy of d under its own id with no likes, comments or rating.
func (s *Service) Share(ctx context.Context, d domain.Dish) (domain.PublicDish, error) {
	pd := domain.PublicDish{
		Dish:     d,
		Likes:    []string{},
		Comments: []domain.Comment{},
		SharedAt: time.Now().UTC(),
	}
	if err := s.store.Create(ctx, pd); err != nil {
		return domain.PublicDish{}, err
	}
	s.invalidate(ctx)
	return pd, nil
}

func (s *Service) ToggleLike(ctx context.Context, dishID, userID string) (LikeResult, error) {
	res, err := s.store.ToggleLike(ctx, dishID, userID)
	if err != nil {
		return LikeResult{}, err
	}
	s.invalidate(ctx)
	return res, nil
}

// AddComment stores text under the user's display name. Identical comments are all kept.
func (s *Service) AddComment(ctx context.Context, dishID string, user domain.User, text string) (domain.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Comment{}, ErrEmptyComment
	}
	c := domain.Comment{User: user.DisplayName(), Text: text}
	if err := s.store.AppendComment(ctx, dishID, c); err != nil {
		return domain.Comment{}, err
	}
	s.invalidate(ctx)
	return c, nil
}

// SetRating overwrites the dish's single rating field.
func (s *Service) SetRating(ctx context.Context, dishID string, value int) error {
	if value < 1 || value > 5 {
		return fmt.Errorf("social: %d: %w", value, ErrInvalidRating)
	}
	if err := s.store.SetRating(ctx, dishID, value); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

// List returns every public dish annotated for userID, sorted descending by sortKey.
func (s *Service) List(ctx context.Context, userID, sortKey string) ([]PublicDishView, error) {
	var compare func(a, b PublicDishView) int
	switch sortKey {
	case "", SortByLikes:
		compare = func(a, b PublicDishView) int { return cmp.Compare(b.LikeCount(), a.LikeCount()) }
	case SortByReviews:
		compare = func(a, b PublicDishView) int { return cmp.Compare(b.Rating, a.Rating) }
	default:
		return nil, fmt.Errorf("social: %q: %w", sortKey, ErrInvalidSort)
	}

	dishes, err := s.all(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]PublicDishView, len(dishes))
	for i, d := range dishes {
		views[i] = PublicDishView{PublicDish: d, IsLiked: d.LikedBy(userID)}
	}
	slices.SortStableFunc(views, compare)
	return views, nil
}

func (s *Service) all(ctx context.Context) ([]domain.PublicDish, error) {
	log := logger.FromContext(ctx)

	var dishes []domain.PublicDish
	err := s.cache.Get(ctx, listCacheKey, &dishes)
	if err == nil {
		return dishes, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.Warn("public dishes cache get error", zap.Error(err))
	}

	dishes, err = s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, listCacheKey, dishes); err != nil {
		log.Warn("public dishes cache set error", zap.Error(err))
	}
	return dishes, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, listCacheKey); err != nil {
		logger.FromContext(ctx).Warn("public dishes cache invalidate error", zap.Error(err))
	}
}
