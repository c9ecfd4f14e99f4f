package social

import (
	"context"
	"errors"

	"github.com/fjod/go_grocer/internal/domain"
)

var (
	ErrAlreadyShared = errors.New("dish already shared")
	ErrDishNotFound  = errors.New("public dish not found")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	ErrInvalidSort   = errors.New("unknown sort key")
	ErrEmptyComment  = errors.New("comment is empty")
)

// LikeResult is the like state after a toggle.
type LikeResult struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

// Store persists public dishes. The toggle and append operations are atomic per dish.
type Store interface {
	Create(ctx context.Context, d domain.PublicDish) error
	List(ctx context.Context) ([]domain.PublicDish, error)
	ToggleLike(ctx context.Context, dishID, userID string) (LikeResult, error)
	AppendComment(ctx context.Context, dishID string, c domain.Comment) error
	SetRating(ctx context.Context, dishID string, rating int) error
}
