package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fjod/go_grocer/internal/composer"
	"github.com/fjod/go_grocer/internal/domain"
	"github.com/fjod/go_grocer/pkg/circuitbreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func TestHealth_NoAuthRequired(t *testing.T) {
	env := setupRouter(t, domain.User{})

	rec := do(t, env.handler, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestAPI_Unauthenticated(t *testing.T) {
	env := setupRouter(t, domain.User{})

	rec := do(t, env.handler, http.MethodGet, "/api/v1/cart", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decode[ErrorResponse](t, rec).Code)
}

func TestProducts_ListAllFormatsMoney(t *testing.T) {
	env := setupRouter(t, testUser)

	rec := do(t, env.handler, http.MethodGet, "/api/v1/products", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	products := decode[[]ProductResponse](t, rec)
	require.Len(t, products, len(seedProducts))
	assert.Equal(t, "6.90", products[0].Price)
	assert.Equal(t, "vegetables", products[0].CategoryID)
	assert.False(t, products[1].InStock)
}

func TestProducts_ListByCategory(t *testing.T) {
	env := setupRouter(t, testUser)

	rec := do(t, env.handler, http.MethodGet, "/api/v1/categories/dairy/products", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	products := decode[[]ProductResponse](t, rec)
	require.Len(t, products, 1)
	assert.Equal(t, "feta", products[0].ID)
}

func TestProducts_CatalogUnavailable(t *testing.T) {
	env := setupRouter(t, testUser)
	env.catalog.err = circuitbreaker.ErrUnavailable

	rec := do(t, env.handler, http.MethodGet, "/api/v1/products", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCart_Walkthrough(t *testing.T) {
	env := setupRouter(t, testUser)
	h := env.handler

	rec := do(t, h, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "a", Quantity: 2})
	require.Equal(t, http.StatusCreated, rec.Code)
	c := decode[CartResponse](t, rec)
	assert.Equal(t, "20.00", c.TotalAmount)

	rec = do(t, h, http.MethodPost, "/api/v1/cart/items/a/increment", nil)
	c = decode[CartResponse](t, rec)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 3, c.Items[0].Quantity)
	assert.Equal(t, "30.00", c.TotalAmount)

	for i := 0; i < 5; i++ {
		rec = do(t, h, http.MethodPost, "/api/v1/cart/items/a/decrement", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	c = decode[CartResponse](t, rec)
	assert.Equal(t, 1, c.Items[0].Quantity)
	assert.Equal(t, "10.00", c.TotalAmount)

	rec = do(t, h, http.MethodDelete, "/api/v1/cart/items/a", nil)
	c = decode[CartResponse](t, rec)
	assert.Empty(t, c.Items)
	assert.Equal(t, "0.00", c.TotalAmount)
}

func TestCart_AddItemValidation(t *testing.T) {
	env := setupRouter(t, testUser)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"missing product", AddItemRequestDTO{Quantity: 1}, http.StatusBadRequest, "invalid_product_id"},
		{"too many", AddItemRequestDTO{ProductID: "a", Quantity: 100}, http.StatusBadRequest, "invalid_quantity"},
		{"unknown product", AddItemRequestDTO{ProductID: "nope"}, http.StatusNotFound, "not_found"},
		{"out of stock", AddItemRequestDTO{ProductID: "onion"}, http.StatusConflict, "out_of_stock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, env.handler, http.MethodPost, "/api/v1/cart/items", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Code)
		})
	}
}

func TestCart_InvalidJSON(t *testing.T) {
	env := setupRouter(t, testUser)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCart_InternalErrorHidesCause(t *testing.T) {
	env := setupRouter(t, testUser)
	env.carts.err = errors.New("mongo: connection refused to 10.0.0.7")

	rec := do(t, env.handler, http.MethodGet, "/api/v1/cart", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "internal server error", resp.Error)
	assert.NotContains(t, resp.Error, "10.0.0.7")
}

func TestCheckout_ClearsCartAndIsIdempotent(t *testing.T) {
	env := setupRouter(t, testUser)
	h := env.handler

	do(t, h, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "feta", Quantity: 2})

	checkout := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
		req.Header.Set(idempotencyHeader, "key-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := checkout()
	require.Equal(t, http.StatusCreated, rec.Code)
	first := decode[OrderResponse](t, rec)
	assert.Equal(t, "37.80", first.TotalAmount)
	assert.Equal(t, "ILS", first.Currency)
	require.Len(t, first.Items, 1)
	assert.Equal(t, "18.90", first.Items[0].UnitPrice)

	cart := decode[CartResponse](t, do(t, h, http.MethodGet, "/api/v1/cart", nil))
	assert.Empty(t, cart.Items)

	second := decode[OrderResponse](t, checkout())
	assert.Equal(t, first.ID, second.ID)

	list := decode[[]OrderResponse](t, do(t, h, http.MethodGet, "/api/v1/orders", nil))
	assert.Len(t, list, 1)
}

func TestCheckout_EmptyCart(t *testing.T) {
	env := setupRouter(t, testUser)

	rec := do(t, env.handler, http.MethodPost, "/api/v1/checkout", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "empty_cart", decode[ErrorResponse](t, rec).Code)
}

func composeURL(id, suffix string) string {
	return "/api/v1/composer/" + id + suffix
}

func startComposer(t *testing.T, h http.Handler) ComposerResponse {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/v1/composer", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	return decode[ComposerResponse](t, rec)
}

func uploadImage(t *testing.T, h http.Handler, sessionID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPut, composeURL(sessionID, "/image"),
		bytes.NewReader([]byte("\x89PNG\r\n\x1a\nrest-of-image")))
	req.Header.Set("Content-Type", "image/png")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestComposer_FullFlow(t *testing.T) {
	env := setupRouter(t, testUser)
	h := env.handler

	started := startComposer(t, h)
	id := started.SessionID
	assert.Equal(t, composer.StateSelectingIngredients, started.State)

	rec := do(t, h, http.MethodPost, composeURL(id, "/proceed"), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "validation_error", resp.Code)
	assert.Equal(t, composer.MsgMissingFields, resp.Error)

	require.Equal(t, http.StatusOK, do(t, h, http.MethodPut, composeURL(id, "/name"), SetNameRequestDTO{Name: "Shakshuka"}).Code)

	rec = uploadImage(t, h, id)
	require.Equal(t, http.StatusOK, rec.Code)
	draft := decode[ComposerResponse](t, rec)
	assert.Equal(t, "https://storage.googleapis.com/test-public/dishes/"+started.DishID, draft.Image)
	assert.Equal(t, started.DishID, env.media.dishID)

	rec = do(t, h, http.MethodPost, composeURL(id, "/ingredients/tomato/toggle"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[ToggleResponse](t, rec).Selected)

	rec = do(t, h, http.MethodPut, composeURL(id, "/ingredients/tomato/quantity"), map[string]any{"quantity": "abc"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[ComposerResponse](t, rec).Ingredients[0].Quantity)

	rec = do(t, h, http.MethodPut, composeURL(id, "/ingredients/tomato/quantity"), map[string]any{"quantity": 4})
	assert.Equal(t, 4, decode[ComposerResponse](t, rec).Ingredients[0].Quantity)

	rec = do(t, h, http.MethodPost, composeURL(id, "/ingredients/tomato/decrement"), nil)
	assert.Equal(t, 3, decode[ComposerResponse](t, rec).Ingredients[0].Quantity)

	rec = do(t, h, http.MethodPost, composeURL(id, "/proceed"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, composer.StateEnteringSteps, decode[ComposerResponse](t, rec).State)

	rec = do(t, h, http.MethodPost, composeURL(id, "/save"), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, composer.MsgNoSteps, decode[ErrorResponse](t, rec).Error)

	rec = do(t, h, http.MethodPost, composeURL(id, "/steps"), AddStepRequestDTO{Text: "Chop the tomatoes"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, composeURL(id, "/save"), nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	saved := decode[DishResponse](t, rec)
	assert.Equal(t, started.DishID, saved.ID)
	assert.Equal(t, "Dana", saved.AuthorName)
	require.Len(t, saved.Ingredients, 1)
	assert.Equal(t, IngredientResponse{ID: "tomato", Name: "Tomato", Quantity: 3, Price: "6.90", Image: "tomato.png"}, saved.Ingredients[0])

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, composeURL(id, ""), nil).Code)

	list := decode[[]DishResponse](t, do(t, h, http.MethodGet, "/api/v1/dishes", nil))
	assert.Len(t, list, 1)
}

func TestComposer_SearchMarksSelection(t *testing.T) {
	env := setupRouter(t, testUser)
	h := env.handler
	id := startComposer(t, h).SessionID

	do(t, h, http.MethodPost, composeURL(id, "/ingredients/onion/toggle"), nil)

	rec := do(t, h, http.MethodGet, composeURL(id, "/ingredients?q=ON"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	options := decode[[]IngredientOption](t, rec)
	require.Len(t, options, 1)
	assert.Equal(t, "onion", options[0].ID)
	assert.True(t, options[0].Selected)
	assert.Equal(t, 1, options[0].Quantity)
}

func TestComposer_ToggleTwiceRestores(t *testing.T) {
	env := setupRouter(t, testUser)
	h := env.handler
	id := startComposer(t, h).SessionID

	do(t, h, http.MethodPost, composeURL(id, "/ingredients/tomato/toggle"), nil)
	rec := do(t, h, http.MethodPost, composeURL(id, "/ingredients/tomato/toggle"), nil)

	resp := decode[ToggleResponse](t, rec)
	assert.False(t, resp.Selected)
	assert.Empty(t, resp.Ingredients)
}

func TestComposer_ImageRejections(t *testing.T) {
	env := setupRouter(t, testUser)
	id := startComposer(t, env.handler).SessionID

	req := httptest.NewRequest(http.MethodPut, composeURL(id, "/image"),
		bytes.NewReader(make([]byte, MaxImageBytes+1)))
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestComposer_OtherUsersSessionNotFound(t *testing.T) {
	env := setupRouter(t, testUser)
	id, _ := env.sessions.Start("someone-else", "d1")

	rec := do(t, env.handler, http.MethodGet, composeURL(id, ""), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestComposer_AbandonThenInvalid(t *testing.T) {
	env := setupRouter(t, testUser)
	h := env.handler
	id := startComposer(t, h).SessionID

	rec := do(t, h, http.MethodDelete, composeURL(id, ""), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, env.sessions.Len())

	rec = do(t, h, http.MethodPut, composeURL(id, "/name"), SetNameRequestDTO{Name: "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestComposer_StepsBeforeProceedIsConflict(t *testing.T) {
	env := setupRouter(t, testUser)
	id := startComposer(t, env.handler).SessionID

	rec := do(t, env.handler, http.MethodPost, composeURL(id, "/steps"), AddStepRequestDTO{Text: "Boil"})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_state", decode[ErrorResponse](t, rec).Code)
}

func seedDish(t *testing.T, env *testEnv) domain.Dish {
	t.Helper()
	d := domain.Dish{ID: "d1", Name: "Salad", AuthorID: testUser.UID, AuthorName: testUser.Name}
	require.NoError(t, env.dishes.Create(t.Context(), testUser.UID, d))
	return d
}

func TestShare_Twice(t *testing.T) {
	env := setupRouter(t, testUser)
	seedDish(t, env)

	rec := do(t, env.handler, http.MethodPost, "/api/v1/dishes/d1/share", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 0, decode[PublicDishResponse](t, rec).Likes)

	rec = do(t, env.handler, http.MethodPost, "/api/v1/dishes/d1/share", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestShare_UnknownDish(t *testing.T) {
	env := setupRouter(t, testUser)

	rec := do(t, env.handler, http.MethodPost, "/api/v1/dishes/missing/share", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicDishes_LikeCommentRate(t *testing.T) {
	env := setupRouter(t, testUser)
	h := env.handler
	seedDish(t, env)
	do(t, h, http.MethodPost, "/api/v1/dishes/d1/share", nil)

	rec := do(t, h, http.MethodPost, "/api/v1/public-dishes/d1/like", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	like := decode[map[string]any](t, rec)
	assert.Equal(t, true, like["liked"])

	list := decode[[]PublicDishResponse](t, do(t, h, http.MethodGet, "/api/v1/public-dishes?sort=likes", nil))
	require.Len(t, list, 1)
	assert.True(t, list[0].IsLiked)
	assert.Equal(t, 1, list[0].Likes)

	rec = do(t, h, http.MethodPost, "/api/v1/public-dishes/d1/like", nil)
	assert.Equal(t, false, decode[map[string]any](t, rec)["liked"])

	rec = do(t, h, http.MethodPost, "/api/v1/public-dishes/d1/comments", CommentRequestDTO{Text: "Tasty"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, domain.Comment{User: "Dana", Text: "Tasty"}, decode[domain.Comment](t, rec))

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPut, "/api/v1/public-dishes/d1/rating", RatingRequestDTO{Rating: 4}).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPut, "/api/v1/public-dishes/d1/rating", RatingRequestDTO{Rating: 6}).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/v1/public-dishes/nope/like", nil).Code)
}

func TestPublicDishes_InvalidSort(t *testing.T) {
	env := setupRouter(t, testUser)

	rec := do(t, env.handler, http.MethodGet, "/api/v1/public-dishes?sort=newest", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCart_Clear(t *testing.T) {
	env := setupRouter(t, testUser)
	h := env.handler
	do(t, h, http.MethodPost, "/api/v1/cart/items", AddItemRequestDTO{ProductID: "a", Quantity: 2})

	rec := do(t, h, http.MethodDelete, "/api/v1/cart", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	c := decode[CartResponse](t, do(t, h, http.MethodGet, "/api/v1/cart", nil))
	assert.Empty(t, c.Items)
}

func TestRegions_ListAndDishes(t *testing.T) {
	env := setupRouter(t, testUser)
	h := env.handler

	regions := decode[[]RegionResponse](t, do(t, h, http.MethodGet, "/api/v1/regions", nil))
	assert.Equal(t, []RegionResponse{{ID: "med", Name: "Mediterranean", Image: "med.jpg"}}, regions)

	rec := do(t, h, http.MethodGet, "/api/v1/regions/med/dishes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dishes := decode[[]DishResponse](t, rec)
	require.Len(t, dishes, 1)
	assert.Equal(t, "shakshuka", dishes[0].ID)
	assert.Equal(t, "6.50", dishes[0].Ingredients[0].Price)

	rec = do(t, h, http.MethodGet, "/api/v1/regions/med/dishes/shakshuka", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Shakshuka", decode[DishResponse](t, rec).Name)
}

func TestRegions_NotFound(t *testing.T) {
	env := setupRouter(t, testUser)

	rec := do(t, env.handler, http.MethodGet, "/api/v1/regions/atlantis/dishes", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "region not found", decode[ErrorResponse](t, rec).Error)

	rec = do(t, env.handler, http.MethodPost, "/api/v1/regions/med/dishes/ghost/cart", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegionDish_AddToCartUsesSnapshotAndSkipsUnavailable(t *testing.T) {
	env := setupRouter(t, testUser)
	h := env.handler

	rec := do(t, h, http.MethodPost, "/api/v1/regions/med/dishes/shakshuka/cart", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[DishCartResponse](t, rec)

	assert.Equal(t, []string{"onion", "pepper"}, resp.Skipped)
	require.Len(t, resp.Cart.Items, 1)
	line := resp.Cart.Items[0]
	assert.Equal(t, "tomato", line.ProductID)
	assert.Equal(t, 4, line.Quantity)
	assert.Equal(t, "6.50", line.Price)
	assert.True(t, line.Scale)
	assert.Equal(t, "26.00", resp.Cart.TotalAmount)

	// adding the dish again stacks onto the same line
	resp = decode[DishCartResponse](t, do(t, h, http.MethodPost, "/api/v1/regions/med/dishes/shakshuka/cart", nil))
	assert.Equal(t, 8, resp.Cart.Items[0].Quantity)
}

func TestDish_AddOwnDishToCart(t *testing.T) {
	env := setupRouter(t, testUser)
	d := domain.Dish{
		ID:   "d2",
		Name: "Greek Salad",
		Ingredients: []domain.Ingredient{
			{ID: "feta", Name: "Feta Cheese", Quantity: 2, Price: price("17.00")},
			{ID: "a", Name: "Product A", Quantity: 1, Price: price("10")},
		},
	}
	require.NoError(t, env.dishes.Create(t.Context(), testUser.UID, d))

	rec := do(t, env.handler, http.MethodPost, "/api/v1/dishes/d2/cart", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[DishCartResponse](t, rec)
	assert.Empty(t, resp.Skipped)
	assert.Len(t, resp.Cart.Items, 2)
	assert.Equal(t, "44.00", resp.Cart.TotalAmount)

	rec = do(t, env.handler, http.MethodPost, "/api/v1/dishes/missing/cart", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
