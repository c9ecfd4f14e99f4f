package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/fjod/go_grocer/internal/domain"
	"github.com/fjod/go_grocer/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Service owns one Store per user. It replaces a process-wide cart singleton
// and is passed explicitly to whoever needs it.
type Service struct {
	repo Repository

	mu     sync.Mutex
	stores map[string]*Store
	sfg    singleflight.Group // one repository load per user at a time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:   repo,
		stores: make(map[string]*Store),
	}
}

func (s *Service) store(ctx context.Context, userID string) (*Store, error) {
	s.mu.Lock()
	st, ok := s.stores[userID]
	s.mu.Unlock()
	if ok {
		return st, nil
	}

	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		ctx := context.WithoutCancel(ctx)

		s.mu.Lock()
		if st, ok := s.stores[userID]; ok {
			s.mu.Unlock()
			return st, nil
		}
		s.mu.Unlock()

		var loaded *Store
		persisted, err := s.repo.GetCart(ctx, userID)
		switch {
		case errors.Is(err, ErrCartNotFound):
			loaded = NewStore()
		case err != nil:
			return nil, fmt.Errorf("cart: load cart: %w", err)
		default:
			loaded = RestoreStore(*persisted)
		}

		s.mu.Lock()
		s.stores[userID] = loaded
		s.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

func (s *Service) GetCart(ctx context.Context, userID string) (domain.Cart, error) {
	st, err := s.store(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}
	return st.Snapshot(userID), nil
}

func (s *Service) AddItem(ctx context.Context, userID string, product domain.Product, quantity int) (domain.Cart, error) {
	return s.mutate(ctx, userID, func(st *Store) bool {
		st.AddToCart(product, quantity)
		return true
	})
}

// Addition is one product and quantity added in a batch.
type Addition struct {
	Product  domain.Product
	Quantity int
}

// AddItems adds every addition and persists the result once.
func (s *Service) AddItems(ctx context.Context, userID string, items []Addition) (domain.Cart, error) {
	return s.mutate(ctx, userID, func(st *Store) bool {
		for _, it := range items {
			st.AddToCart(it.Product, it.Quantity)
		}
		return len(items) > 0
	})
}

func (s *Service) IncrementQuantity(ctx context.Context, userID, productID string) (domain.Cart, error) {
	return s.mutate(ctx, userID, func(st *Store) bool { return st.IncrementQuantity(productID) })
}

func (s *Service) DecrementQuantity(ctx context.Context, userID, productID string) (domain.Cart, error) {
	return s.mutate(ctx, userID, func(st *Store) bool { return st.DecrementQuantity(productID) })
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (domain.Cart, error) {
	return s.mutate(ctx, userID, func(st *Store) bool { return st.RemoveFromCart(productID) })
}

// Clear empties the user's cart. The emptied snapshot is persisted rather than
// deleted so the applied checkout ids survive.
func (s *Service) Clear(ctx context.Context, userID string) error {
	_, err := s.mutate(ctx, userID, func(st *Store) bool {
		if st.Len() == 0 {
			return false
		}
		st.Clear()
		return true
	})
	return err
}

// ApplyCheckout removes a completed checkout's quantities from the cart.
// It reports false when checkoutID was already applied.
func (s *Service) ApplyCheckout(ctx context.Context, userID, checkoutID string, quantities map[string]int) (bool, error) {
	var applied bool
	_, err := s.mutate(ctx, userID, func(st *Store) bool {
		applied = st.ApplyCheckout(checkoutID, quantities)
		return applied
	})
	return applied, err
}

// mutate persists only when fn reports a change.
func (s *Service) mutate(ctx context.Context, userID string, fn func(*Store) bool) (domain.Cart, error) {
	st, err := s.store(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}

	st.writeMu.Lock()
	defer st.writeMu.Unlock()

	if !fn(st) {
		return st.Snapshot(userID), nil
	}
	return s.persist(ctx, userID, st)
}

// persist must be called with st.writeMu held so snapshots reach the repository in order.
func (s *Service) persist(ctx context.Context, userID string, st *Store) (domain.Cart, error) {
	snap := st.Snapshot(userID)
	if err := s.repo.UpsertCart(ctx, &snap); err != nil {
		logger.FromContext(ctx).Error("repo upsert cart error", zap.String("user_id", userID), zap.Error(err))
		return snap, fmt.Errorf("cart: save cart: %w", err)
	}
	return snap, nil
}
