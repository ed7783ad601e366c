package controllers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hiveflow/hiveflow/internal/core"
	"github.com/hiveflow/hiveflow/internal/domain"
	"github.com/hiveflow/hiveflow/internal/models"
)

type UsersController struct {
	AuthController
	Repo  UserStore
	Clock core.Clock
}

func NewUsersController(userRepo UserStore, clock core.Clock) *UsersController {
	return &UsersController{
		Repo:  userRepo,
		Clock: clock,
		AuthController: AuthController{
			UserRepo: userRepo,
		},
	}
}

// handleCreateUser creates a new user with a bcrypt password hash and a
// generated API key. The key is returned in this response and never again.
func (c *UsersController) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Username) == "" || len(req.Password) < 8 {
		http.Error(w, "username and a password of at least 8 characters are required", http.StatusBadRequest)
		return
	}

	if existing, err := c.Repo.FindByUsername(req.Username); err == nil && existing != nil {
		http.Error(w, "username already taken", http.StatusConflict)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("Failed to hash password", "error", err)
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}

	apiKey := uuid.NewString()
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: string(hash),
		ApiKey:       sql.NullString{String: apiKey, Valid: true},
		Enabled:      true,
		Created:      c.Clock.Now().UTC(),
	}
	if err := c.Repo.Save(user); err != nil {
		slog.Error("Failed to create user", "error", err)
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}
	slog.InfoContext(r.Context(), "User created", "user_id", user.ID, "username", user.Username)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(models.CreateUserResponse{
		ID:       user.ID,
		Username: user.Username,
		ApiKey:   apiKey,
	})
}

// handleRotateApiKey replaces the calling user's API key. The old key stops
// working immediately.
func (c *UsersController) handleRotateApiKey(w http.ResponseWriter, r *http.Request) {
	userID := ownerFromContext(r)
	apiKey := uuid.NewString()
	if err := c.Repo.UpdateApiKey(userID, apiKey); err != nil {
		slog.Error("Failed to rotate api key", "user_id", userID, "error", err)
		http.Error(w, "failed to rotate api key", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"apiKey": apiKey})
}
