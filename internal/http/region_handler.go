package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_grocer/internal/domain"
	"github.com/go-chi/chi/v5"
)

type RegionResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

type RegionHandler struct {
	regions Regions
	toCart  dishCart
	timeout time.Duration
}

func NewRegionHandler(regions Regions, carts Carts, catalog Catalog, timeout time.Duration) *RegionHandler {
	return &RegionHandler{
		regions: regions,
		toCart:  dishCart{carts: carts, catalog: catalog},
		timeout: timeout,
	}
}

func (h *RegionHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	regions, err := h.regions.ListRegions(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := make([]RegionResponse, len(regions))
	for i, rg := range regions {
		resp[i] = RegionResponse(rg)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *RegionHandler) ListDishes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	dishes, err := h.regions.ListDishes(ctx, chi.URLParam(r, "regionID"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toDishResponses(dishes))
}

func (h *RegionHandler) GetDish(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	d, err := h.dish(ctx, r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toDishResponse(d))
}

// AddToCart puts a regional dish's ingredients into the caller's cart.
func (h *RegionHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	d, err := h.dish(ctx, r)
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

func (h *RegionHandler) dish(ctx context.Context, r *http.Request) (domain.Dish, error) {
	return h.regions.GetDish(ctx, chi.URLParam(r, "regionID"), chi.URLParam(r, "dishID"))
}
