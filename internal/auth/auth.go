package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/fjod/go_grocer/internal/domain"
	"github.com/fjod/go_grocer/pkg/logger"
	"go.uber.org/zap"
)

type ctxKey struct{}

// TokenVerifier checks Firebase ID tokens. *auth.Client satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// NewFirebaseVerifier builds a Firebase Auth client for projectID using application default credentials.
func NewFirebaseVerifier(ctx context.Context, projectID string) (*fbauth.Client, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("auth: initializing firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth: initializing firebase auth: %w", err)
	}
	return client, nil
}

func WithUser(ctx context.Context, u domain.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func UserFromContext(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(domain.User)
	return u, ok && u.UID != ""
}

// Middleware authenticates requests with a Firebase ID token in the Authorization header.
func Middleware(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			token, err := v.VerifyIDToken(r.Context(), strings.TrimSpace(raw))
			if err != nil {
				logger.FromContext(r.Context()).Info("rejected id token", zap.Error(err))
				unauthorized(w, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userFromToken(token))))
		})
	}
}

// MockMiddleware authenticates every request as u. Development only.
func MockMiddleware(u domain.User) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

func userFromToken(t *fbauth.Token) domain.User {
	u := domain.User{UID: t.UID}
	if name, ok := t.Claims["name"].(string); ok {
		u.Name = name
	}
	if email, ok := t.Claims["email"].(string); ok {
		u.Email = email
	}
	return u
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
		"code":  "unauthorized",
	})
}
