package cart

import (
	"slices"
	"sync"
	"time"

	"github.com/fjod/go_grocer/internal/domain"
	"github.com/shopspring/decimal"
)

// maxAppliedCheckouts bounds how many checkout ids a cart remembers.
const maxAppliedCheckouts = 20

// Store holds one user's in-progress lines in insertion order,
// with at most one line per product id.
type Store struct {
	// writeMu orders a mutation with the repository write that follows it.
	writeMu sync.Mutex

	mu        sync.RWMutex
	lines     []domain.CartLine
	applied   []string
	createdAt time.Time
}

func NewStore() *Store {
	return &Store{createdAt: time.Now()}
}

// RestoreStore rebuilds a store from a persisted snapshot.
func RestoreStore(c domain.Cart) *Store {
	s := &Store{
		lines:     make([]domain.CartLine, len(c.Lines)),
		applied:   slices.Clone(c.AppliedCheckouts),
		createdAt: c.CreatedAt,
	}
	copy(s.lines, c.Lines)
	if s.createdAt.IsZero() {
		s.createdAt = time.Now()
	}
	return s
}

func (s *Store) indexOf(productID string) int {
	for i := range s.lines {
		if s.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddToCart increments an existing line by quantity or appends a new one.
// Stock is not checked here; callers disable adding out-of-stock products.
func (s *Store) AddToCart(p domain.Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(p.ID); i >= 0 {
		s.lines[i].Quantity += quantity
		return
	}
	s.lines = append(s.lines, domain.CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.Image,
		Scale:     p.Scale,
		Quantity:  quantity,
		AddedAt:   time.Now(),
	})
}

// IncrementQuantity reports whether a line for productID existed.
func (s *Store) IncrementQuantity(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return false
	}
	s.lines[i].Quantity++
	return true
}

// DecrementQuantity never drops a line below 1 and never removes it.
// It reports whether the quantity changed.
func (s *Store) DecrementQuantity(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 || s.lines[i].Quantity <= 1 {
		return false
	}
	s.lines[i].Quantity--
	return true
}

// RemoveFromCart deletes the line regardless of quantity.
func (s *Store) RemoveFromCart(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(productID)
	if i < 0 {
		return false
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	return true
}

func (s *Store) Quantity(productID string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(productID)
	if i < 0 {
		return 0, false
	}
	return s.lines[i].Quantity, true
}

func (s *Store) TotalAmount() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (s *Store) Lines() []domain.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines)
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
}

// ApplyCheckout subtracts the checked-out quantities and drops lines that reach zero.
// Lines added after the checkout survive. A checkout id is applied at most once;
// it reports false for a repeat.
func (s *Store) ApplyCheckout(checkoutID string, quantities map[string]int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.applied, checkoutID) {
		return false
	}

	kept := s.lines[:0]
	for _, l := range s.lines {
		l.Quantity -= quantities[l.ProductID]
		if l.Quantity > 0 {
			kept = append(kept, l)
		}
	}
	clear(s.lines[len(kept):])
	s.lines = kept

	s.applied = append(s.applied, checkoutID)
	if len(s.applied) > maxAppliedCheckouts {
		s.applied = slices.Clone(s.applied[len(s.applied)-maxAppliedCheckouts:])
	}
	return true
}

func (s *Store) Snapshot(userID string) domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := make([]domain.CartLine, len(s.lines))
	copy(lines, s.lines)
	return domain.Cart{
		UserID:           userID,
		Lines:            lines,
		AppliedCheckouts: slices.Clone(s.applied),
		CreatedAt:        s.createdAt,
		UpdatedAt:        time.Now(),
	}
}
