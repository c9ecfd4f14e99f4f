package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/go_grocer/internal/domain"
	"github.com/fjod/go_grocer/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const EventCheckoutCompleted = "checkout.completed"

// Carts is the cart side of checkout.
type Carts interface {
	GetCart(ctx context.Context, userID string) (domain.Cart, error)
	ApplyCheckout(ctx context.Context, userID, checkoutID string, quantities map[string]int) (bool, error)
}

type Service struct {
	repo  Repository
	carts Carts

	// checkouts holds one *sync.Mutex per user so a user's checkouts run one at a time.
	checkouts sync.Map
}

func NewService(repo Repository, carts Carts) *Service {
	return &Service{repo: repo, carts: carts}
}

func (s *Service) lockUser(userID string) func() {
	v, _ := s.checkouts.LoadOrStore(userID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

type checkoutPayload struct {
	CheckoutID  string             `json:"checkout_id"`
	UserID      string             `json:"user_id"`
	Items       []domain.OrderItem `json:"items"`
	TotalAmount string             `json:"total_amount"`
	Currency    string             `json:"currency"`
	CompletedAt time.Time          `json:"completed_at"`
}

// Checkout turns the user's cart into a confirmed order and removes the ordered
// quantities from the cart before returning. Retrying with the same idempotency
// key returns the original order instead of creating another one.
func (s *Service) Checkout(ctx context.Context, userID, currency, idempotencyKey string) (*domain.Order, error) {
	log := logger.FromContext(ctx)

	unlock := s.lockUser(userID)
	defer unlock()

	if idempotencyKey != "" {
		existing, err := s.repo.GetOrderByIdempotencyKey(ctx, userID, idempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, ErrOrderNotFound) {
			return nil, fmt.Errorf("orders: idempotency lookup: %w", err)
		}
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("orders: loading cart: %w", err)
	}
	if len(cart.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	quantities := make(map[string]int, len(cart.Lines))
	order := &domain.Order{
		ID:          uuid.New(),
		UserID:      userID,
		TotalAmount: cart.TotalAmount(),
		Currency:    currency,
		Status:      domain.OrderStatusConfirmed,
		Items:       make([]domain.OrderItem, len(cart.Lines)),
	}
	for i, l := range cart.Lines {
		order.Items[i] = domain.OrderItem{
			ProductID:   l.ProductID,
			ProductName: l.Name,
			Quantity:    l.Quantity,
			UnitPrice:   l.Price,
		}
		quantities[l.ProductID] += l.Quantity
	}

	payload, err := json.Marshal(checkoutPayload{
		CheckoutID:  order.ID.String(),
		UserID:      userID,
		Items:       order.Items,
		TotalAmount: order.TotalAmount.String(),
		Currency:    currency,
		CompletedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkout payload: %w", err)
	}
	event := &OutboxEvent{
		AggregateID: order.ID.String(),
		EventType:   EventCheckoutCompleted,
		Payload:     payload,
	}

	if err := s.repo.CreateOrder(ctx, order, idempotencyKey, event); err != nil {
		if errors.Is(err, ErrDuplicateCheckout) && idempotencyKey != "" {
			return s.repo.GetOrderByIdempotencyKey(ctx, userID, idempotencyKey)
		}
		return nil, fmt.Errorf("orders: creating order: %w", err)
	}
	log.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID),
		zap.String("total_amount", order.TotalAmount.String()))

	// The order is stored; a failed cart update is repaired by the checkout event consumer.
	if _, err := s.carts.ApplyCheckout(context.WithoutCancel(ctx), userID, order.ID.String(), quantities); err != nil {
		log.Error("failed to apply checkout to cart",
			zap.String("order_id", order.ID.String()),
			zap.String("user_id", userID),
			zap.Error(err))
	}
	return order, nil
}

func (s *Service) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	orders, err := s.repo.ListOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("orders: listing orders: %w", err)
	}
	return orders, nil
}
