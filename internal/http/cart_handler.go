package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fjod/go_grocer/internal/domain"
	"github.com/go-chi/chi/v5"
)

const maxLineQuantity = 99

type CartHandler struct {
	carts   Carts
	catalog Catalog
	timeout time.Duration
}

func NewCartHandler(carts Carts, catalog Catalog, timeout time.Duration) *CartHandler {
	return &CartHandler{carts: carts, catalog: catalog, timeout: timeout}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.GetCart(ctx, user.UID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(cart))
}

// AddItem adds the catalog product to the cart. A missing or non-positive quantity adds one.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity > maxLineQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	product, err := h.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if !product.InStock() {
		respondError(w, http.StatusConflict, "out_of_stock", "product is out of stock")
		return
	}

	cart, err := h.carts.AddItem(ctx, user.UID, product, req.Quantity)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCartResponse(cart))
}

func (h *CartHandler) IncrementQuantity(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, h.carts.IncrementQuantity)
}

func (h *CartHandler) DecrementQuantity(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, h.carts.DecrementQuantity)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, h.carts.RemoveItem)
}

func (h *CartHandler) mutateLine(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, userID, productID string) (domain.Cart, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	cart, err := fn(ctx, user.UID, chi.URLParam(r, "productID"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCartResponse(cart))
}

// ClearCart empties the cart without placing an order.
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.carts.Clear(ctx, user.UID); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
