package orders

import (
	"context"
	"sync"

	"github.com/fjod/go_grocer/internal/domain"
	"github.com/segmentio/kafka-go"
)

type mockRepository struct {
	m         sync.Mutex
	orders    []*domain.Order
	keys      map[string]*domain.Order
	events    []*OutboxEvent
	processed []int64
	createErr error
	listErr   error
	fetchErr  error
	markErr   error
}

func newMockRepository() *mockRepository {
	return &mockRepository{keys: map[string]*domain.Order{}}
}

func (m *mockRepository) CreateOrder(_ context.Context, order *domain.Order, key string, event *OutboxEvent) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if key != "" {
		if _, ok := m.keys[order.UserID+"/"+key]; ok {
			return ErrDuplicateCheckout
		}
		m.keys[order.UserID+"/"+key] = order
	}
	m.orders = append(m.orders, order)
	if event != nil {
		event.ID = int64(len(m.events) + 1)
		m.events = append(m.events, event)
	}
	return nil
}

func (m *mockRepository) GetOrderByIdempotencyKey(_ context.Context, userID, key string) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if o, ok := m.keys[userID+"/"+key]; ok {
		return o, nil
	}
	return nil, ErrOrderNotFound
}

func (m *mockRepository) ListOrdersByUserID(_ context.Context, userID string) ([]*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*domain.Order
	for i := len(m.orders) - 1; i >= 0; i-- {
		if m.orders[i].UserID == userID {
			out = append(out, m.orders[i])
		}
	}
	return out, nil
}

func (m *mockRepository) Close() error { return nil }

func (m *mockRepository) GetUnprocessedEvents(_ context.Context, limit int) ([]*OutboxEvent, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	var out []*OutboxEvent
	for _, e := range m.events {
		done := false
		for _, id := range m.processed {
			if id == e.ID {
				done = true
			}
		}
		if !done && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockRepository) MarkEventAsProcessed(_ context.Context, id int64) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.markErr != nil {
		return m.markErr
	}
	m.processed = append(m.processed, id)
	return nil
}

type mockCarts struct {
	m        sync.Mutex
	carts    map[string]domain.Cart
	getErr   error
	applyErr error
	applied  []string
}

func (c *mockCarts) GetCart(_ context.Context, userID string) (domain.Cart, error) {
	c.m.Lock()
	defer c.m.Unlock()
	if c.getErr != nil {
		return domain.Cart{}, c.getErr
	}
	return c.carts[userID], nil
}

func (c *mockCarts) ApplyCheckout(_ context.Context, userID, checkoutID string, quantities map[string]int) (bool, error) {
	c.m.Lock()
	defer c.m.Unlock()
	if c.applyErr != nil {
		return false, c.applyErr
	}
	c.applied = append(c.applied, checkoutID)

	cart := c.carts[userID]
	var kept []domain.CartLine
	for _, l := range cart.Lines {
		l.Quantity -= quantities[l.ProductID]
		if l.Quantity > 0 {
			kept = append(kept, l)
		}
	}
	cart.Lines = kept
	c.carts[userID] = cart
	return true, nil
}

func (c *mockCarts) refill(userID string, cart domain.Cart) {
	c.m.Lock()
	defer c.m.Unlock()
	c.carts[userID] = cart
}

type mockWriter struct {
	m        sync.Mutex
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.m.Lock()
	defer w.m.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *mockWriter) Close() error {
	w.m.Lock()
	defer w.m.Unlock()
	w.closed = true
	return nil
}
