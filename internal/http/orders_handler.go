package http

import (
	"context"
	"net/http"
	"time"
)

const idempotencyHeader = "Idempotency-Key"

type OrdersHandler struct {
	orders   Orders
	currency string
	timeout  time.Duration
}

func NewOrdersHandler(orders Orders, currency string, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{orders: orders, currency: currency, timeout: timeout}
}

// Checkout places an order for the caller's cart. Repeating the request with the
// same Idempotency-Key returns the order created the first time.
func (h *OrdersHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	order, err := h.orders.Checkout(ctx, user.UID, h.currency, r.Header.Get(idempotencyHeader))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toOrderResponse(order))
}

func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	list, err := h.orders.ListOrders(ctx, user.UID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := make([]OrderResponse, len(list))
	for i, o := range list {
		resp[i] = toOrderResponse(o)
	}
	respondJSON(w, http.StatusOK, resp)
}
