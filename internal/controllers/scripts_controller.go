package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hiveflow/hiveflow/internal/core"
	"github.com/hiveflow/hiveflow/internal/domain"
	"github.com/hiveflow/hiveflow/internal/models"
)

type ScriptsController struct {
	AuthController
	ScriptRepo ScriptStore
	Clock      core.Clock
}

func NewScriptsController(scriptRepo ScriptStore, clock core.Clock, userRepo UserRepo) *ScriptsController {
	return &ScriptsController{
		ScriptRepo: scriptRepo,
		Clock:      clock,
		AuthController: AuthController{
			UserRepo: userRepo,
		},
	}
}

func (c *ScriptsController) handleListScripts(w http.ResponseWriter, r *http.Request) {
	scripts, err := c.ScriptRepo.FindByOwner(ownerFromContext(r))
	if err != nil {
		slog.Error("Failed to list scripts", "error", err)
		http.Error(w, "failed to list scripts", http.StatusInternalServerError)
		return
	}
	apiResults := make([]models.ScriptApiResponse, 0, len(*scripts))
	for i := range *scripts {
		apiResults = append(apiResults, mapScriptToApiScript(&(*scripts)[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(apiResults)
}

func (c *ScriptsController) handleGetScriptById(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	script, err := c.ScriptRepo.FindByID(id, ownerFromContext(r))
	if err != nil || script == nil {
		http.Error(w, "script not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(mapScriptToApiScript(script))
}

func (c *ScriptsController) handleCreateScript(w http.ResponseWriter, r *http.Request) {
	var req models.CreateScriptRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Source) == "" {
		http.Error(w, "name and source are required", http.StatusBadRequest)
		return
	}

	now := c.Clock.Now().UTC()
	script := &domain.Script{
		ID:       uuid.NewString(),
		OwnerID:  ownerFromContext(r),
		Name:     req.Name,
		Source:   req.Source,
		Created:  now,
		Modified: now,
	}
	if err := c.ScriptRepo.Save(script); err != nil {
		slog.Error("Failed to save script", "error", err)
		http.Error(w, "failed to create script", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(mapScriptToApiScript(script))
}

func (c *ScriptsController) handleUpdateScript(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	script, err := c.ScriptRepo.FindByID(id, ownerFromContext(r))
	if err != nil || script == nil {
		http.Error(w, "script not found", http.StatusNotFound)
		return
	}

	var req models.CreateScriptRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if req.Name != "" {
		script.Name = req.Name
	}
	if req.Source != "" {
		script.Source = req.Source
	}
	script.Modified = c.Clock.Now().UTC()

	if err := c.ScriptRepo.Update(script); err != nil {
		slog.Error("Failed to update script", "script_id", script.ID, "error", err)
		http.Error(w, "failed to update script", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(mapScriptToApiScript(script))
}

func (c *ScriptsController) handleDeleteScript(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	if err := c.ScriptRepo.Delete(id, ownerFromContext(r)); err != nil {
		slog.Error("Failed to delete script", "script_id", id, "error", err)
		http.Error(w, "failed to delete script", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func mapScriptToApiScript(script *domain.Script) models.ScriptApiResponse {
	return models.ScriptApiResponse{
		ID:       script.ID,
		Name:     script.Name,
		Source:   script.Source,
		Created:  script.Created,
		Modified: script.Modified,
	}
}
