package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_grocer/internal/auth"
	"github.com/fjod/go_grocer/internal/cart"
	"github.com/fjod/go_grocer/internal/catalog"
	"github.com/fjod/go_grocer/internal/composer"
	"github.com/fjod/go_grocer/internal/dish"
	"github.com/fjod/go_grocer/internal/domain"
	"github.com/fjod/go_grocer/internal/orders"
	"github.com/fjod/go_grocer/internal/region"
	"github.com/fjod/go_grocer/internal/social"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var testUser = domain.User{UID: "u1", Name: "Dana"}

type mockCatalog struct {
	products []domain.Product
	err      error
}

func (m *mockCatalog) ListAll(context.Context) ([]domain.Product, error) {
	return m.products, m.err
}

func (m *mockCatalog) ListByCategory(_ context.Context, categoryID string) ([]domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Product
	for _, p := range m.products {
		if p.CategoryID() == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockCatalog) GetProduct(_ context.Context, id string) (domain.Product, error) {
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, fmt.Errorf("catalog: %s: %w", id, catalog.ErrProductNotFound)
}

func (m *mockCatalog) Resolve(_ context.Context, ids []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product)
	for _, p := range m.products {
		for _, id := range ids {
			if p.ID == id {
				out[id] = p
			}
		}
	}
	return out, nil
}

// mockCarts keeps one in-memory store per user.
type mockCarts struct {
	m      sync.Mutex
	stores map[string]*cart.Store
	err    error
}

func newMockCarts() *mockCarts {
	return &mockCarts{stores: make(map[string]*cart.Store)}
}

func (m *mockCarts) store(userID string) *cart.Store {
	m.m.Lock()
	defer m.m.Unlock()
	st, ok := m.stores[userID]
	if !ok {
		st = cart.NewStore()
		m.stores[userID] = st
	}
	return st
}

func (m *mockCarts) GetCart(_ context.Context, userID string) (domain.Cart, error) {
	if m.err != nil {
		return domain.Cart{}, m.err
	}
	return m.store(userID).Snapshot(userID), nil
}

func (m *mockCarts) AddItem(_ context.Context, userID string, p domain.Product, quantity int) (domain.Cart, error) {
	st := m.store(userID)
	st.AddToCart(p, quantity)
	return st.Snapshot(userID), nil
}

func (m *mockCarts) IncrementQuantity(_ context.Context, userID, productID string) (domain.Cart, error) {
	st := m.store(userID)
	st.IncrementQuantity(productID)
	return st.Snapshot(userID), nil
}

func (m *mockCarts) DecrementQuantity(_ context.Context, userID, productID string) (domain.Cart, error) {
	st := m.store(userID)
	st.DecrementQuantity(productID)
	return st.Snapshot(userID), nil
}

func (m *mockCarts) RemoveItem(_ context.Context, userID, productID string) (domain.Cart, error) {
	st := m.store(userID)
	st.RemoveFromCart(productID)
	return st.Snapshot(userID), nil
}

func (m *mockCarts) AddItems(_ context.Context, userID string, items []cart.Addition) (domain.Cart, error) {
	if m.err != nil {
		return domain.Cart{}, m.err
	}
	st := m.store(userID)
	for _, it := range items {
		st.AddToCart(it.Product, it.Quantity)
	}
	return st.Snapshot(userID), nil
}

func (m *mockCarts) Clear(_ context.Context, userID string) error {
	if m.err != nil {
		return m.err
	}
	m.store(userID).Clear()
	return nil
}

type mockOrders struct {
	m        sync.Mutex
	carts    *mockCarts
	byKey    map[string]*domain.Order
	placed   []*domain.Order
	currency string
}

func (m *mockOrders) Checkout(_ context.Context, userID, currency, key string) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.currency = currency
	if o, ok := m.byKey[key]; ok && key != "" {
		return o, nil
	}

	st := m.carts.store(userID)
	c := st.Snapshot(userID)
	if len(c.Lines) == 0 {
		return nil, fmt.Errorf("orders: checkout: %w", orders.ErrEmptyCart)
	}
	o := &domain.Order{
		ID:          uuid.New(),
		UserID:      userID,
		TotalAmount: c.TotalAmount(),
		Currency:    currency,
		Status:      domain.OrderStatusConfirmed,
		CreatedAt:   time.Now(),
	}
	quantities := make(map[string]int)
	for _, l := range c.Lines {
		o.Items = append(o.Items, domain.OrderItem{
			ProductID: l.ProductID, ProductName: l.Name, Quantity: l.Quantity, UnitPrice: l.Price,
		})
		quantities[l.ProductID] += l.Quantity
	}
	st.ApplyCheckout(o.ID.String(), quantities)
	if m.byKey == nil {
		m.byKey = make(map[string]*domain.Order)
	}
	m.byKey[key] = o
	m.placed = append(m.placed, o)
	return o, nil
}

func (m *mockOrders) ListOrders(_ context.Context, userID string) ([]*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var out []*domain.Order
	for i := len(m.placed) - 1; i >= 0; i-- {
		if m.placed[i].UserID == userID {
			out = append(out, m.placed[i])
		}
	}
	return out, nil
}

type mockDishes struct {
	m      sync.Mutex
	dishes map[string]map[string]domain.Dish
	nextID int
	err    error
}

func newMockDishes() *mockDishes {
	return &mockDishes{dishes: make(map[string]map[string]domain.Dish)}
}

func (m *mockDishes) NewID() string {
	m.m.Lock()
	defer m.m.Unlock()
	m.nextID++
	return fmt.Sprintf("dish-%d", m.nextID)
}

func (m *mockDishes) Create(_ context.Context, userID string, d domain.Dish) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.dishes[userID] == nil {
		m.dishes[userID] = make(map[string]domain.Dish)
	}
	if _, ok := m.dishes[userID][d.ID]; ok {
		return dish.ErrDishExists
	}
	m.dishes[userID][d.ID] = d
	return nil
}

func (m *mockDishes) List(_ context.Context, userID string) ([]domain.Dish, error) {
	m.m.Lock()
	defer m.m.Unlock()
	var out []domain.Dish
	for _, d := range m.dishes[userID] {
		out = append(out, d)
	}
	return out, nil
}

func (m *mockDishes) Get(_ context.Context, userID, dishID string) (domain.Dish, error) {
	m.m.Lock()
	defer m.m.Unlock()
	d, ok := m.dishes[userID][dishID]
	if !ok {
		return domain.Dish{}, fmt.Errorf("dish: %s: %w", dishID, dish.ErrDishNotFound)
	}
	return d, nil
}

type mockSocial struct {
	m      sync.Mutex
	public map[string]*domain.PublicDish
	order  []string
}

func newMockSocial() *mockSocial {
	return &mockSocial{public: make(map[string]*domain.PublicDish)}
}

func (m *mockSocial) Share(_ context.Context, d domain.Dish) (domain.PublicDish, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if _, ok := m.public[d.ID]; ok {
		return domain.PublicDish{}, social.ErrAlreadyShared
	}
	pd := &domain.PublicDish{Dish: d, Likes: []string{}, Comments: []domain.Comment{}}
	m.public[d.ID] = pd
	m.order = append(m.order, d.ID)
	return *pd, nil
}

func (m *mockSocial) ToggleLike(_ context.Context, dishID, userID string) (social.LikeResult, error) {
	m.m.Lock()
	defer m.m.Unlock()
	pd, ok := m.public[dishID]
	if !ok {
		return social.LikeResult{}, social.ErrDishNotFound
	}
	for i, id := range pd.Likes {
		if id == userID {
			pd.Likes = append(pd.Likes[:i], pd.Likes[i+1:]...)
			return social.LikeResult{Liked: false, Likes: len(pd.Likes)}, nil
		}
	}
	pd.Likes = append(pd.Likes, userID)
	return social.LikeResult{Liked: true, Likes: len(pd.Likes)}, nil
}

func (m *mockSocial) AddComment(_ context.Context, dishID string, user domain.User, text string) (domain.Comment, error) {
	m.m.Lock()
	defer m.m.Unlock()
	pd, ok := m.public[dishID]
	if !ok {
		return domain.Comment{}, social.ErrDishNotFound
	}
	if text == "" {
		return domain.Comment{}, social.ErrEmptyComment
	}
	c := domain.Comment{User: user.DisplayName(), Text: text}
	pd.Comments = append(pd.Comments, c)
	return c, nil
}

func (m *mockSocial) SetRating(_ context.Context, dishID string, value int) error {
	m.m.Lock()
	defer m.m.Unlock()
	if value < 1 || value > 5 {
		return social.ErrInvalidRating
	}
	pd, ok := m.public[dishID]
	if !ok {
		return social.ErrDishNotFound
	}
	pd.Rating = value
	return nil
}

func (m *mockSocial) List(_ context.Context, userID, sortKey string) ([]social.PublicDishView, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if sortKey != "" && sortKey != social.SortByLikes && sortKey != social.SortByReviews {
		return nil, social.ErrInvalidSort
	}
	var out []social.PublicDishView
	for _, id := range m.order {
		pd := *m.public[id]
		out = append(out, social.PublicDishView{PublicDish: pd, IsLiked: pd.LikedBy(userID)})
	}
	return out, nil
}

type mockRegions struct {
	regions []domain.Region
	dishes  map[string][]domain.Dish
}

func (m *mockRegions) ListRegions(context.Context) ([]domain.Region, error) {
	return m.regions, nil
}

func (m *mockRegions) ListDishes(_ context.Context, regionID string) ([]domain.Dish, error) {
	dishes, ok := m.dishes[regionID]
	if !ok {
		return nil, fmt.Errorf("region: %s: %w", regionID, region.ErrRegionNotFound)
	}
	return dishes, nil
}

func (m *mockRegions) GetDish(_ context.Context, regionID, dishID string) (domain.Dish, error) {
	for _, d := range m.dishes[regionID] {
		if d.ID == dishID {
			return d, nil
		}
	}
	return domain.Dish{}, fmt.Errorf("region: %s/%s: %w", regionID, dishID, region.ErrDishNotFound)
}

// seedRegions holds one dish whose ingredients cover the in-stock, out-of-stock
// and removed-from-catalog cases.
func seedRegions() *mockRegions {
	return &mockRegions{
		regions: []domain.Region{{ID: "med", Name: "Mediterranean", Image: "med.jpg"}},
		dishes: map[string][]domain.Dish{
			"med": {{
				ID:   "shakshuka",
				Name: "Shakshuka",
				Ingredients: []domain.Ingredient{
					{ID: "tomato", Name: "Tomato", Quantity: 4, Price: price("6.50"), Image: "t.png"},
					{ID: "onion", Name: "Red Onion", Quantity: 1, Price: price("3.5")},
					{ID: "pepper", Name: "Pepper", Quantity: 2, Price: price("4")},
				},
			}},
		},
	}
}

type mockUploader struct {
	m           sync.Mutex
	err         error
	dishID      string
	contentType string
	size        int
}

func (m *mockUploader) Upload(_ context.Context, dishID, contentType string, data []byte) (string, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.dishID, m.contentType, m.size = dishID, contentType, len(data)
	return "https://storage.googleapis.com/test-public/dishes/" + dishID, nil
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var seedProducts = []domain.Product{
	{ID: "tomato", Name: "Tomato", Price: price("6.9"), Image: "tomato.png", Stock: 40, Category: domain.CategoryRef("vegetables"), Scale: true},
	{ID: "onion", Name: "Red Onion", Price: price("3.5"), Image: "onion.png", Stock: 0, Category: domain.CategoryRef("vegetables")},
	{ID: "feta", Name: "Feta Cheese", Price: price("18.90"), Image: "feta.png", Stock: 5, Category: domain.CategoryRef("dairy")},
	{ID: "a", Name: "Product A", Price: price("10"), Stock: 10, Category: domain.CategoryRef("misc")},
}

type testEnv struct {
	handler  http.Handler
	catalog  *mockCatalog
	carts    *mockCarts
	orders   *mockOrders
	dishes   *mockDishes
	social   *mockSocial
	regions  *mockRegions
	media    *mockUploader
	sessions *composer.Sessions
}

func setupRouter(t *testing.T, user domain.User) *testEnv {
	t.Helper()

	carts := newMockCarts()
	env := &testEnv{
		catalog:  &mockCatalog{products: seedProducts},
		carts:    carts,
		orders:   &mockOrders{carts: carts},
		dishes:   newMockDishes(),
		social:   newMockSocial(),
		regions:  seedRegions(),
		media:    &mockUploader{},
		sessions: composer.NewSessions(time.Minute),
	}
	t.Cleanup(func() { _ = env.sessions.Close() })

	env.handler = NewRouter(Services{
		Catalog:  env.catalog,
		Carts:    env.carts,
		Orders:   env.orders,
		Dishes:   env.dishes,
		Social:   env.social,
		Regions:  env.regions,
		Media:    env.media,
		Sessions: env.sessions,
	}, RouterConfig{
		Logger:         zap.NewNop(),
		Auth:           auth.MockMiddleware(user),
		RequestTimeout: 5 * time.Second,
		Currency:       "ILS",
	})
	return env
}
