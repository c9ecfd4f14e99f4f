package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type DishHandler struct {
	dishes  Dishes
	social  Social
	toCart  dishCart
	timeout time.Duration
}

func NewDishHandler(dishes Dishes, social Social, carts Carts, catalog Catalog, timeout time.Duration) *DishHandler {
	return &DishHandler{
		dishes:  dishes,
		social:  social,
		toCart:  dishCart{carts: carts, catalog: catalog},
		timeout: timeout,
	}
}

func (h *DishHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	list, err := h.dishes.List(ctx, user.UID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, toDishResponses(list))
}

func (h *DishHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	d, err := h.dishes.Get(ctx, user.UID, chi.URLParam(r, "dishID"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toDishResponse(d))
}

// Share publishes one of the caller's own dishes.
func (h *DishHandler) Share(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	d, err := h.dishes.Get(ctx, user.UID, chi.URLParam(r, "dishID"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	pd, err := h.social.Share(ctx, d)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toPublicDishResponse(pd, false))
}

// AddToCart puts the ingredients of one of the caller's dishes into their cart.
func (h *DishHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	d, err := h.dishes.Get(ctx, user.UID, chi.URLParam(r, "dishID"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp, err := h.toCart.add(ctx, user.UID, d)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}
