package controllers

import (
	"context"
	"net/http"

	"github.com/hiveflow/hiveflow/internal/core"
	"github.com/hiveflow/hiveflow/internal/domain"
)

// UserRepo is the slice of the user repository the auth layer needs.
type UserRepo interface {
	FindByApiKey(apiKey string) (*domain.User, error)
}

type AuthController struct {
	UserRepo UserRepo
}

func NewAuthController(userRepo UserRepo) *AuthController {
	return &AuthController{UserRepo: userRepo}
}

// RequireAuth authenticates the request via the X-API-Key header and puts
// the caller's user id and username on the request context. Every resource
// handler scopes queries by that user id.
func (wc *AuthController) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		u, err := wc.UserRepo.FindByApiKey(apiKey)
		if err != nil || u == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), core.CtxKeyUserID, u.ID)
		ctx = context.WithValue(ctx, core.CtxKeyUsername, u.Username)
		next(w, r.WithContext(ctx))
	}
}

// ownerFromContext returns the authenticated user's id, empty when the
// request never passed through RequireAuth.
func ownerFromContext(r *http.Request) string {
	if v := r.Context().Value(core.CtxKeyUserID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
