package orders

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_grocer/internal/domain"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrDuplicateCheckout = errors.New("order for this checkout already exists")
	ErrEmptyCart         = errors.New("cart is empty")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// OutboxEvent is a message waiting to be published to the event bus.
type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

type Repository interface {
	// CreateOrder stores the order and its outbox event in one transaction.
	// A repeated idempotency key for the same user yields ErrDuplicateCheckout.
	CreateOrder(ctx context.Context, order *domain.Order, idempotencyKey string, event *OutboxEvent) error
	GetOrderByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	Close() error
}

// EventStore is the outbox side of the repository used by the poller.
type EventStore interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}
