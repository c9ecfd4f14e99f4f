package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_grocer/internal/auth"
	"github.com/fjod/go_grocer/internal/catalog"
	"github.com/fjod/go_grocer/internal/composer"
	"github.com/fjod/go_grocer/internal/dish"
	"github.com/fjod/go_grocer/internal/domain"
	"github.com/fjod/go_grocer/internal/media"
	"github.com/fjod/go_grocer/internal/orders"
	"github.com/fjod/go_grocer/internal/region"
	"github.com/fjod/go_grocer/internal/social"
	"github.com/fjod/go_grocer/pkg/circuitbreaker"
	"github.com/fjod/go_grocer/pkg/logger"
	"go.uber.org/zap"
)

// StatusClientClosedRequest is nginx's status for a client that went away before the response.
const StatusClientClosedRequest = 499

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// currentUser writes a 401 and reports false when the request is unauthenticated.
func currentUser(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
	}
	return u, ok
}

// handleError maps domain errors to HTTP responses. Unknown errors are logged
// and reported without detail.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *composer.ValidationError
	if errors.As(err, &validation) {
		respondError(w, http.StatusBadRequest, "validation_error", validation.Message)
		return
	}

	if errors.Is(err, context.Canceled) {
		logger.FromContext(r.Context()).Debug("request canceled by client",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path))
		respondError(w, StatusClientClosedRequest, "client_closed_request", "request canceled")
		return
	}

	var status int
	var code string

	switch {
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, dish.ErrDishNotFound),
		errors.Is(err, social.ErrDishNotFound),
		errors.Is(err, composer.ErrSessionNotFound),
		errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, region.ErrRegionNotFound),
		errors.Is(err, region.ErrDishNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, social.ErrAlreadyShared),
		errors.Is(err, dish.ErrDishExists),
		errors.Is(err, orders.ErrDuplicateCheckout):
		status, code = http.StatusConflict, "already_exists"
	case errors.Is(err, composer.ErrInvalidState):
		status, code = http.StatusConflict, "invalid_state"
	case errors.Is(err, orders.ErrEmptyCart):
		status, code = http.StatusBadRequest, "empty_cart"
	case errors.Is(err, social.ErrInvalidRating),
		errors.Is(err, social.ErrInvalidSort),
		errors.Is(err, social.ErrEmptyComment),
		errors.Is(err, media.ErrEmptyImage):
		status, code = http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, media.ErrUnsupportedImage):
		status, code = http.StatusUnsupportedMediaType, "unsupported_media_type"
	case errors.Is(err, circuitbreaker.ErrUnavailable):
		status, code = http.StatusServiceUnavailable, "service_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		status, code = http.StatusGatewayTimeout, "timeout"
	default:
		logger.FromContext(r.Context()).Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondError(w, status, code, errorMessage(err))
}

// errorMessage strips wrapping context so internal identifiers do not leak.
func errorMessage(err error) string {
	for _, sentinel := range []error{
		catalog.ErrProductNotFound, dish.ErrDishNotFound, social.ErrDishNotFound,
		composer.ErrSessionNotFound, orders.ErrOrderNotFound, social.ErrAlreadyShared,
		dish.ErrDishExists, orders.ErrDuplicateCheckout, composer.ErrInvalidState,
		orders.ErrEmptyCart, social.ErrInvalidRating, social.ErrInvalidSort,
		social.ErrEmptyComment, media.ErrEmptyImage, media.ErrUnsupportedImage,
		region.ErrRegionNotFound, region.ErrDishNotFound, circuitbreaker.ErrUnavailable,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
