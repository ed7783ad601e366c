package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hiveflow/hiveflow/internal/core"
	"github.com/hiveflow/hiveflow/internal/domain"
	"github.com/hiveflow/hiveflow/internal/models"
)

// Engine runs workflows: it iterates the declared step sequence, drives the
// resolver and dispatcher per step, enforces fail-fast semantics and
// persists the run record. Safe for concurrent invocation across distinct
// runs; a single run always executes its steps sequentially.
type Engine struct {
	workflows  WorkflowRepo
	runs       RunRepo
	resolver   *Resolver
	dispatcher *Dispatcher
	clock      core.Clock
}

func NewEngine(workflows WorkflowRepo, runs RunRepo, resolver *Resolver, dispatcher *Dispatcher, clock core.Clock) *Engine {
	return &Engine{
		workflows:  workflows,
		runs:       runs,
		resolver:   resolver,
		dispatcher: dispatcher,
		clock:      clock,
	}
}

// ExecuteWorkflow runs the workflow from its first step to a terminal
// status. Only not-found, access-denied, configuration and run-creation
// persistence errors propagate; per-step failures are recorded on the run.
func (e *Engine) ExecuteWorkflow(ctx context.Context, workflowID string, ownerID string) (*models.WorkflowRunResult, error) {
	wf, err := e.workflows.FindByID(workflowID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Kind: "workflow", ID: workflowID}
		}
		return nil, &PersistenceError{Op: "load workflow", Err: err}
	}
	if wf.OwnerID != ownerID {
		return nil, &AccessDeniedError{Kind: "workflow", ID: workflowID}
	}

	steps, err := models.DecodeSteps(wf.Steps)
	if err != nil {
		cfgErr := &ConfigurationError{Reason: "stored step sequence is invalid", Err: err}
		// The run still gets a record: failed, zero executed steps.
		e.persistInvalidRun(ctx, wf, cfgErr)
		return nil, cfgErr
	}

	started := e.clock.Now().UTC()
	run := &domain.WorkflowRun{
		ID:         uuid.NewString(),
		WorkflowID: wf.ID,
		OwnerID:    wf.OwnerID,
		Status:     string(models.RunStatusRunning),
		Started:    started,
	}
	if err := e.runs.Save(run); err != nil {
		return nil, &PersistenceError{Op: "create run", Err: err}
	}
	slog.InfoContext(ctx, "Run started", "run_id", run.ID, "workflow_id", wf.ID, "steps", len(steps))

	results := make([]models.StepResult, 0, len(steps))
	outputs := make(map[string]any, len(steps))
	status := models.RunStatusCompleted
	var runErr string

	for i, step := range steps {
		result := e.executeStep(ctx, wf.OwnerID, step, outputs)
		results = append(results, result)

		if result.Status == models.StepStatusFailed {
			// Fail fast: later steps are assumed dependent on this one.
			for _, remaining := range steps[i+1:] {
				results = append(results, models.StepResult{
					StepID: remaining.ID,
					Status: models.StepStatusSkipped,
				})
			}
			status = models.RunStatusFailed
			runErr = result.Error
			slog.WarnContext(ctx, "Run failed, skipping remaining steps",
				"run_id", run.ID, "failed_step", step.ID, "skipped", len(steps)-i-1)
			break
		}
		outputs[step.ID] = result.Output
	}

	completed := e.clock.Now().UTC()
	encoded, err := models.EncodeStepResults(results)
	if err != nil {
		// Output values always came from JSON, so this should not happen.
		encoded = "[]"
		slog.ErrorContext(ctx, "Failed to encode step results", "run_id", run.ID, "error", err)
	}
	run.Status = string(status)
	run.StepResults = sql.NullString{String: encoded, Valid: true}
	run.Completed = sql.NullTime{Time: completed, Valid: true}
	if runErr != "" {
		run.Error = sql.NullString{String: runErr, Valid: true}
	}
	if err := e.runs.Update(run); err != nil {
		return nil, &PersistenceError{Op: "finalize run", Err: err}
	}

	slog.InfoContext(ctx, "Run finished", "run_id", run.ID, "status", status,
		"duration_ms", completed.Sub(started).Milliseconds())
	return &models.WorkflowRunResult{
		RunID:      run.ID,
		WorkflowID: wf.ID,
		Status:     status,
		Steps:      results,
		DurationMs: completed.Sub(started).Milliseconds(),
		Error:      runErr,
	}, nil
}

// executeStep resolves inputs and dispatches one step. Resolution failures
// are contained the same way dispatch failures are.
func (e *Engine) executeStep(ctx context.Context, ownerID string, step models.StepDefinition, outputs map[string]any) models.StepResult {
	start := e.clock.Now()
	rc := &ResolveContext{OwnerID: ownerID, Outputs: outputs}
	inputs, err := e.resolver.ResolveAll(ctx, step.Inputs, rc)
	if err != nil {
		slog.WarnContext(ctx, "Input resolution failed", "step_id", step.ID, "error", err)
		return models.StepResult{
			StepID:     step.ID,
			Status:     models.StepStatusFailed,
			DurationMs: e.clock.Now().Sub(start).Milliseconds(),
			Error:      fmt.Sprintf("resolve inputs: %v", err),
		}
	}
	return e.dispatcher.Execute(ctx, ownerID, step, inputs)
}

// persistInvalidRun records a failed run with zero executed steps for a
// workflow whose stored steps cannot be deserialized.
func (e *Engine) persistInvalidRun(ctx context.Context, wf *domain.Workflow, cfgErr error) {
	now := e.clock.Now().UTC()
	run := &domain.WorkflowRun{
		ID:          uuid.NewString(),
		WorkflowID:  wf.ID,
		OwnerID:     wf.OwnerID,
		Status:      string(models.RunStatusFailed),
		StepResults: sql.NullString{String: "[]", Valid: true},
		Started:     now,
		Completed:   sql.NullTime{Time: now, Valid: true},
		Error:       sql.NullString{String: cfgErr.Error(), Valid: true},
	}
	if err := e.runs.Save(run); err != nil {
		slog.ErrorContext(ctx, "Failed to persist invalid-configuration run", "workflow_id", wf.ID, "error", err)
	}
}
