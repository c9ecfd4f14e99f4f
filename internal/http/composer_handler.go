package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/fjod/go_grocer/internal/composer"
	"github.com/fjod/go_grocer/internal/domain"
	"github.com/go-chi/chi/v5"
)

// MaxImageBytes bounds raw image uploads.
const MaxImageBytes = 5 << 20

type ComposerHandler struct {
	sessions *composer.Sessions
	catalog  Catalog
	dishes   Dishes
	media    Uploader
	timeout  time.Duration
}

func NewComposerHandler(sessions *composer.Sessions, catalog Catalog, dishes Dishes, media Uploader, timeout time.Duration) *ComposerHandler {
	return &ComposerHandler{
		sessions: sessions,
		catalog:  catalog,
		dishes:   dishes,
		media:    media,
		timeout:  timeout,
	}
}

type ComposerResponse struct {
	SessionID string `json:"session_id"`
	composer.Draft
}

type SetNameRequestDTO struct {
	Name string `json:"name"`
}

// SetQuantityRequestDTO takes the quantity as typed; numbers and strings are both accepted.
type SetQuantityRequestDTO struct {
	Quantity json.RawMessage `json:"quantity"`
}

type AddStepRequestDTO struct {
	Text string `json:"text"`
}

type ToggleResponse struct {
	ComposerResponse
	Selected bool `json:"selected"`
}

type IngredientOption struct {
	ProductResponse
	Selected bool `json:"selected"`
	Quantity int  `json:"quantity"`
}

func (h *ComposerHandler) Start(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	id, c := h.sessions.Start(user.UID, h.dishes.NewID())
	respondJSON(w, http.StatusCreated, ComposerResponse{SessionID: id, Draft: c.Draft()})
}

func (h *ComposerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, c, _, ok := h.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, ComposerResponse{SessionID: id, Draft: c.Draft()})
}

// Abandon discards the session.
func (h *ComposerHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.sessions.Delete(chi.URLParam(r, "sessionID"), user.UID); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ComposerHandler) SetName(w http.ResponseWriter, r *http.Request) {
	var req SetNameRequestDTO
	h.update(w, r, &req, func(c *composer.Composer) error {
		return c.SetName(req.Name)
	})
}

// UploadImage stores the raw request body as the dish image and records its public URL.
func (h *ComposerHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, c, _, ok := h.session(w, r)
	if !ok {
		return
	}
	if c.State() != composer.StateSelectingIngredients {
		handleError(w, r, composer.ErrInvalidState)
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxImageBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "image_too_large", "image exceeds 5MB")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "could not read image")
		return
	}

	url, err := h.media.Upload(ctx, c.DishID(), r.Header.Get("Content-Type"), data)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := c.SetImage(url); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ComposerResponse{SessionID: id, Draft: c.Draft()})
}

// SearchIngredients lists catalog products whose name contains q, marking the selected ones.
func (h *ComposerHandler) SearchIngredients(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	_, c, _, ok := h.session(w, r)
	if !ok {
		return
	}

	products, err := h.catalog.ListAll(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}

	quantities := make(map[string]int)
	for _, s := range c.Draft().Ingredients {
		quantities[s.ProductID] = s.Quantity
	}

	matches := composer.Search(products, r.URL.Query().Get("q"))
	resp := make([]IngredientOption, len(matches))
	for i, p := range matches {
		q, isSelected := quantities[p.ID]
		resp[i] = IngredientOption{ProductResponse: toProductResponse(p), Selected: isSelected, Quantity: q}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *ComposerHandler) ToggleIngredient(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, c, _, ok := h.session(w, r)
	if !ok {
		return
	}
	productID := chi.URLParam(r, "productID")

	// Deselecting needs no catalog lookup, so products removed from the catalog can still be dropped.
	product := domain.Product{ID: productID}
	if !selected(c.Draft(), productID) {
		p, err := h.catalog.GetProduct(ctx, productID)
		if err != nil {
			handleError(w, r, err)
			return
		}
		product = p
	}

	sel, err := c.ToggleIngredient(product)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ToggleResponse{
		ComposerResponse: ComposerResponse{SessionID: id, Draft: c.Draft()},
		Selected:         sel,
	})
}

func (h *ComposerHandler) IncrementQuantity(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, nil, func(c *composer.Composer) error {
		return c.IncrementQuantity(chi.URLParam(r, "productID"))
	})
}

func (h *ComposerHandler) DecrementQuantity(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, nil, func(c *composer.Composer) error {
		return c.DecrementQuantity(chi.URLParam(r, "productID"))
	})
}

func (h *ComposerHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req SetQuantityRequestDTO
	h.update(w, r, &req, func(c *composer.Composer) error {
		text := strings.Trim(string(req.Quantity), `"`)
		return c.SetQuantity(chi.URLParam(r, "productID"), text)
	})
}

func (h *ComposerHandler) ProceedToSteps(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, nil, func(c *composer.Composer) error {
		return c.ProceedToSteps()
	})
}

func (h *ComposerHandler) AddStep(w http.ResponseWriter, r *http.Request) {
	var req AddStepRequestDTO
	h.update(w, r, &req, func(c *composer.Composer) error {
		return c.AddStep(req.Text)
	})
}

// Save persists the dish and closes the session.
func (h *ComposerHandler) Save(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, c, user, ok := h.session(w, r)
	if !ok {
		return
	}

	d, err := c.Save(ctx, h.catalog, h.dishes, user)
	if err != nil {
		handleError(w, r, err)
		return
	}
	_ = h.sessions.Delete(id, user.UID)
	respondJSON(w, http.StatusCreated, toDishResponse(d))
}

func (h *ComposerHandler) session(w http.ResponseWriter, r *http.Request) (string, *composer.Composer, domain.User, bool) {
	user, ok := currentUser(w, r)
	if !ok {
		return "", nil, domain.User{}, false
	}
	id := chi.URLParam(r, "sessionID")
	c, err := h.sessions.Get(id, user.UID)
	if err != nil {
		handleError(w, r, err)
		return "", nil, domain.User{}, false
	}
	return id, c, user, true
}

// update decodes an optional JSON body into req, applies fn and responds with the draft.
func (h *ComposerHandler) update(w http.ResponseWriter, r *http.Request, req any, fn func(*composer.Composer) error) {
	id, c, _, ok := h.session(w, r)
	if !ok {
		return
	}
	if req != nil {
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
			return
		}
	}
	if err := fn(c); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ComposerResponse{SessionID: id, Draft: c.Draft()})
}

func selected(d composer.Draft, productID string) bool {
	return slices.ContainsFunc(d.Ingredients, func(s composer.Selection) bool {
		return s.ProductID == productID
	})
}
