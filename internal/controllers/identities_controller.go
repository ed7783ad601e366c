package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hiveflow/hiveflow/internal/core"
	"github.com/hiveflow/hiveflow/internal/domain"
	"github.com/hiveflow/hiveflow/internal/models"
	"github.com/hiveflow/hiveflow/internal/util"
)

type IdentitiesController struct {
	AuthController
	IdentityRepo IdentityStore
	Clock        core.Clock
}

func NewIdentitiesController(identityRepo IdentityStore, clock core.Clock, userRepo UserRepo) *IdentitiesController {
	return &IdentitiesController{
		IdentityRepo: identityRepo,
		Clock:        clock,
		AuthController: AuthController{
			UserRepo: userRepo,
		},
	}
}

func (c *IdentitiesController) handleListIdentities(w http.ResponseWriter, r *http.Request) {
	channel := r.URL.Query().Get("channel")
	idents, err := c.IdentityRepo.FindByOwnerAndChannel(ownerFromContext(r), channel)
	if err != nil {
		slog.Error("Failed to list identities", "error", err)
		http.Error(w, "failed to list identities", http.StatusInternalServerError)
		return
	}
	apiResults := make([]models.IdentityApiResponse, 0, len(idents))
	for i := range idents {
		apiResults = append(apiResults, mapIdentityToApiIdentity(&idents[i]))
	}
	util.WriteJSONResponse(w, http.StatusOK, apiResults)
}

func (c *IdentitiesController) handleCreateIdentity(w http.ResponseWriter, r *http.Request) {
	req, err := util.DecodeJSONBody[models.CreateIdentityRequest](r)
	if err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Channel) == "" || strings.TrimSpace(req.Address) == "" {
		http.Error(w, "channel and address are required", http.StatusBadRequest)
		return
	}

	ident := &domain.Identity{
		ID:      uuid.NewString(),
		OwnerID: ownerFromContext(r),
		Channel: req.Channel,
		Address: req.Address,
		Created: c.Clock.Now().UTC(),
	}
	if err := c.IdentityRepo.Save(ident); err != nil {
		slog.Error("Failed to save identity", "error", err)
		http.Error(w, "failed to create identity", http.StatusInternalServerError)
		return
	}
	util.WriteJSONResponse(w, http.StatusCreated, mapIdentityToApiIdentity(ident))
}

func (c *IdentitiesController) handleDeleteIdentity(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	if err := c.IdentityRepo.Delete(id, ownerFromContext(r)); err != nil {
		slog.Error("Failed to delete identity", "identity_id", id, "error", err)
		http.Error(w, "failed to delete identity", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func mapIdentityToApiIdentity(ident *domain.Identity) models.IdentityApiResponse {
	return models.IdentityApiResponse{
		ID:      ident.ID,
		Channel: ident.Channel,
		Address: ident.Address,
		Created: ident.Created,
	}
}
