package controllers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hiveflow/hiveflow/internal/core"
	"github.com/hiveflow/hiveflow/internal/domain"
	"github.com/hiveflow/hiveflow/internal/engine"
	"github.com/hiveflow/hiveflow/internal/models"
)

// WorkflowsController holds dependencies for workflow HTTP endpoints,
// including the manual trigger.
type WorkflowsController struct {
	AuthController
	WorkflowRepo WorkflowStore
	Engine       WorkflowExecutor
	Clock        core.Clock
}

func NewWorkflowsController(workflowRepo WorkflowStore, eng WorkflowExecutor, clock core.Clock, userRepo UserRepo) *WorkflowsController {
	return &WorkflowsController{
		WorkflowRepo: workflowRepo,
		Engine:       eng,
		Clock:        clock,
		AuthController: AuthController{
			UserRepo: userRepo,
		},
	}
}

func (c *WorkflowsController) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	ownerID := ownerFromContext(r)
	workflows, err := c.WorkflowRepo.FindByOwner(ownerID)
	if err != nil {
		slog.Error("Failed to list workflows", "error", err)
		http.Error(w, "failed to list workflows", http.StatusInternalServerError)
		return
	}

	apiResults := make([]models.WorkflowApiResponse, 0, len(*workflows))
	for i := range *workflows {
		apiResults = append(apiResults, mapWorkflowToApiWorkflow(&(*workflows)[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(apiResults)
}

func (c *WorkflowsController) handleGetWorkflowById(w http.ResponseWriter, r *http.Request) {
	wf := c.loadOwnedWorkflow(w, r)
	if wf == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(mapWorkflowToApiWorkflow(wf))
}

func (c *WorkflowsController) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	var req models.CreateWorkflowRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	stepsJSON, err := models.EncodeSteps(req.Steps)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := c.Clock.Now().UTC()
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	wf := &domain.Workflow{
		ID:          uuid.NewString(),
		OwnerID:     ownerFromContext(r),
		Name:        req.Name,
		Description: req.Description,
		Steps:       stepsJSON,
		Active:      active,
		Created:     now,
		Modified:    now,
	}
	if err := c.WorkflowRepo.Save(wf); err != nil {
		slog.Error("Failed to save workflow", "error", err)
		http.Error(w, "failed to create workflow", http.StatusInternalServerError)
		return
	}
	slog.InfoContext(r.Context(), "Workflow created", "workflow_id", wf.ID, "name", wf.Name, "steps", len(req.Steps))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(mapWorkflowToApiWorkflow(wf))
}

func (c *WorkflowsController) handleUpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	wf := c.loadOwnedWorkflow(w, r)
	if wf == nil {
		return
	}

	var req models.UpdateWorkflowRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			http.Error(w, "name cannot be empty", http.StatusBadRequest)
			return
		}
		wf.Name = *req.Name
	}
	if req.Description != nil {
		wf.Description = *req.Description
	}
	if req.Steps != nil {
		stepsJSON, err := models.EncodeSteps(*req.Steps)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		wf.Steps = stepsJSON
	}
	if req.Active != nil {
		wf.Active = *req.Active
	}
	wf.Modified = c.Clock.Now().UTC()

	if err := c.WorkflowRepo.Update(wf); err != nil {
		slog.Error("Failed to update workflow", "workflow_id", wf.ID, "error", err)
		http.Error(w, "failed to update workflow", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(mapWorkflowToApiWorkflow(wf))
}

func (c *WorkflowsController) handleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	wf := c.loadOwnedWorkflow(w, r)
	if wf == nil {
		return
	}
	if err := c.WorkflowRepo.Delete(wf.ID); err != nil {
		slog.Error("Failed to delete workflow", "workflow_id", wf.ID, "error", err)
		http.Error(w, "failed to delete workflow", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleTriggerWorkflow runs the workflow synchronously and returns the run
// result. A failed run is still a 200; only engine-level errors map to
// error statuses.
func (c *WorkflowsController) handleTriggerWorkflow(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	result, err := c.Engine.ExecuteWorkflow(r.Context(), id, ownerFromContext(r))
	if err != nil {
		var notFound *engine.NotFoundError
		var denied *engine.AccessDeniedError
		var cfg *engine.ConfigurationError
		switch {
		case errors.As(err, &notFound):
			http.Error(w, "workflow not found", http.StatusNotFound)
		case errors.As(err, &denied):
			http.Error(w, "forbidden", http.StatusForbidden)
		case errors.As(err, &cfg):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		default:
			slog.Error("Failed to execute workflow", "workflow_id", id, "error", err)
			http.Error(w, "failed to execute workflow", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

// loadOwnedWorkflow fetches the path workflow and enforces ownership. A
// workflow belonging to another user reads as not found.
func (c *WorkflowsController) loadOwnedWorkflow(w http.ResponseWriter, r *http.Request) *domain.Workflow {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return nil
	}
	wf, err := c.WorkflowRepo.FindByID(id)
	if err != nil || wf == nil || wf.OwnerID != ownerFromContext(r) {
		http.Error(w, "workflow not found", http.StatusNotFound)
		return nil
	}
	return wf
}

func mapWorkflowToApiWorkflow(wf *domain.Workflow) models.WorkflowApiResponse {
	steps, err := models.DecodeSteps(wf.Steps)
	if err != nil {
		slog.Warn("Failed to decode stored steps", "workflow_id", wf.ID, "error", err)
		steps = []models.StepDefinition{}
	}
	return models.WorkflowApiResponse{
		ID:          wf.ID,
		Name:        wf.Name,
		Description: wf.Description,
		Steps:       steps,
		Active:      wf.Active,
		Created:     wf.Created,
		Modified:    wf.Modified,
	}
}
