package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type SocialHandler struct {
	social  Social
	timeout time.Duration
}

func NewSocialHandler(social Social, timeout time.Duration) *SocialHandler {
	return &SocialHandler{social: social, timeout: timeout}
}

type CommentRequestDTO struct {
	Text string `json:"text"`
}

type RatingRequestDTO struct {
	Rating int `json:"rating"`
}

func (h *SocialHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	views, err := h.social.List(ctx, user.UID, r.URL.Query().Get("sort"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toPublicDishResponses(views))
}

func (h *SocialHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	res, err := h.social.ToggleLike(ctx, chi.URLParam(r, "dishID"), user.UID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *SocialHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req CommentRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	c, err := h.social.AddComment(ctx, chi.URLParam(r, "dishID"), user, req.Text)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (h *SocialHandler) SetRating(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if _, ok := currentUser(w, r); !ok {
		return
	}

	var req RatingRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.social.SetRating(ctx, chi.URLParam(r, "dishID"), req.Rating); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, req)
}
