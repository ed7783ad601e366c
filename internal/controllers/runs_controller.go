package controllers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hiveflow/hiveflow/internal/domain"
	"github.com/hiveflow/hiveflow/internal/models"
)

type RunsController struct {
	AuthController
	RunRepo      RunStore
	WorkflowRepo WorkflowStore
}

func NewRunsController(runRepo RunStore, workflowRepo WorkflowStore, userRepo UserRepo) *RunsController {
	return &RunsController{
		RunRepo:      runRepo,
		WorkflowRepo: workflowRepo,
		AuthController: AuthController{
			UserRepo: userRepo,
		},
	}
}

func (c *RunsController) handleGetRunById(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	run, err := c.RunRepo.FindByID(id)
	if err != nil || run == nil || run.OwnerID != ownerFromContext(r) {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(mapRunToApiRun(run))
}

// handleListRunsForWorkflow returns the most recent runs of one workflow,
// newest first. Limit defaults to 50, capped at 1000.
func (c *RunsController) handleListRunsForWorkflow(w http.ResponseWriter, r *http.Request) {
	workflowID := r.PathValue("id")
	if workflowID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	wf, err := c.WorkflowRepo.FindByID(workflowID)
	if err != nil || wf == nil || wf.OwnerID != ownerFromContext(r) {
		http.Error(w, "workflow not found", http.StatusNotFound)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if limit > 1000 {
		slog.Warn("limit cannot be greater than 1000")
		http.Error(w, "limit cannot be greater than 1000", http.StatusBadRequest)
		return
	}

	runs, err := c.RunRepo.FindByWorkflowID(workflowID, limit)
	if err != nil {
		slog.Error("Failed to list runs", "workflow_id", workflowID, "error", err)
		http.Error(w, "failed to list runs", http.StatusInternalServerError)
		return
	}

	apiResults := make([]models.RunApiResponse, 0, len(*runs))
	for i := range *runs {
		apiResults = append(apiResults, mapRunToApiRun(&(*runs)[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(apiResults)
}

func mapRunToApiRun(run *domain.WorkflowRun) models.RunApiResponse {
	steps := []models.StepResult{}
	if run.StepResults.Valid && run.StepResults.String != "" {
		decoded, err := models.DecodeStepResults(run.StepResults.String)
		if err != nil {
			slog.Warn("Failed to parse step results", "run_id", run.ID, "error", err)
		} else {
			steps = decoded
		}
	}
	api := models.RunApiResponse{
		ID:         run.ID,
		WorkflowID: run.WorkflowID,
		Status:     run.Status,
		Steps:      steps,
		Started:    run.Started,
	}
	if run.Completed.Valid {
		t := run.Completed.Time
		api.Completed = &t
	}
	if run.Error.Valid {
		api.Error = run.Error.String
	}
	return api
}
