package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hiveflow/hiveflow/internal/models"
)

// Dispatcher executes one resolved step against the collaborator matching
// its kind. It is the failure-containment boundary between engine iteration
// and unreliable external calls: any error or panic raised by a
// collaborator becomes a failed StepResult and never propagates.
type Dispatcher struct {
	scripts    ScriptRepo
	runner     ScriptRunner
	skills     SkillResolver
	model      ModelExecutor
	channels   ChannelClient
	identities IdentityRepo
}

func NewDispatcher(scripts ScriptRepo, runner ScriptRunner, skills SkillResolver, model ModelExecutor,
	channels ChannelClient, identities IdentityRepo) *Dispatcher {
	return &Dispatcher{
		scripts:    scripts,
		runner:     runner,
		skills:     skills,
		model:      model,
		channels:   channels,
		identities: identities,
	}
}

// Execute runs one step and always returns a result, completed or failed.
func (d *Dispatcher) Execute(ctx context.Context, ownerID string, step models.StepDefinition, inputs map[string]any) (result models.StepResult) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "Step panicked", "step_id", step.ID, "kind", step.Kind, "panic", rec)
			result = failedResult(step.ID, start, fmt.Errorf("panic: %v", rec))
		}
	}()

	switch step.Kind {
	case models.StepKindScript:
		return d.executeScript(ctx, ownerID, step, inputs, start)
	case models.StepKindSkill:
		return d.executeSkill(ctx, ownerID, step, inputs, start)
	case models.StepKindNotify:
		return d.executeNotify(ctx, ownerID, step, inputs, start)
	default:
		return failedResult(step.ID, start, fmt.Errorf("unknown step kind %q", step.Kind))
	}
}

func (d *Dispatcher) executeScript(ctx context.Context, ownerID string, step models.StepDefinition, inputs map[string]any, start time.Time) models.StepResult {
	script, err := d.scripts.FindByID(step.Target, ownerID)
	if err != nil {
		return failedResult(step.ID, start, fmt.Errorf("load script %s: %w", step.Target, err))
	}

	res := d.runner.Execute(ctx, script.Source, inputs)
	if !res.Success {
		return models.StepResult{
			StepID:     step.ID,
			Status:     models.StepStatusFailed,
			DurationMs: res.DurationMs,
			Error:      (&StepExecutionError{StepID: step.ID, Err: fmt.Errorf("%s", res.Error)}).Error(),
		}
	}
	return models.StepResult{
		StepID:     step.ID,
		Status:     models.StepStatusCompleted,
		DurationMs: res.DurationMs,
		Output:     anyMap(res.Output),
	}
}

func (d *Dispatcher) executeSkill(ctx context.Context, ownerID string, step models.StepDefinition, inputs map[string]any, start time.Time) models.StepResult {
	content, err := d.skills.Resolve(ctx, step.Target, ownerID)
	if err != nil {
		return failedResult(step.ID, start, fmt.Errorf("resolve skill %s: %w", step.Target, err))
	}

	reply, err := d.model.Execute(ctx, content, inputs, step.Tools)
	if err != nil {
		return failedResult(step.ID, start, err)
	}
	return models.StepResult{
		StepID:     step.ID,
		Status:     models.StepStatusCompleted,
		DurationMs: time.Since(start).Milliseconds(),
		Output:     reply,
	}
}

func (d *Dispatcher) executeNotify(ctx context.Context, ownerID string, step models.StepDefinition, inputs map[string]any, start time.Time) models.StepResult {
	recipient, err := d.resolveRecipient(ownerID, step)
	if err != nil {
		return failedResult(step.ID, start, err)
	}

	ack, err := d.channels.Send(ctx, step.Target, recipient, inputs)
	if err != nil {
		return failedResult(step.ID, start, err)
	}
	return models.StepResult{
		StepID:     step.ID,
		Status:     models.StepStatusCompleted,
		DurationMs: time.Since(start).Milliseconds(),
		Output:     ack,
	}
}

// resolveRecipient picks, in order: the declared identity id, the declared
// raw address, then the owner's single linked identity on the channel.
func (d *Dispatcher) resolveRecipient(ownerID string, step models.StepDefinition) (string, error) {
	if step.Recipient != nil && step.Recipient.IdentityID != "" {
		ident, err := d.identities.FindByID(step.Recipient.IdentityID, ownerID)
		if err != nil {
			return "", fmt.Errorf("lookup identity %s: %w", step.Recipient.IdentityID, err)
		}
		return ident.Address, nil
	}
	if step.Recipient != nil && step.Recipient.Address != "" {
		return step.Recipient.Address, nil
	}
	linked, err := d.identities.FindByOwnerAndChannel(ownerID, step.Target)
	if err != nil {
		return "", fmt.Errorf("lookup identities for channel %s: %w", step.Target, err)
	}
	if len(linked) != 1 {
		return "", &NoRecipientError{Channel: step.Target}
	}
	return linked[0].Address, nil
}

func failedResult(stepID string, start time.Time, err error) models.StepResult {
	return models.StepResult{
		StepID:     stepID,
		Status:     models.StepStatusFailed,
		DurationMs: time.Since(start).Milliseconds(),
		Error:      (&StepExecutionError{StepID: stepID, Err: err}).Error(),
	}
}

// anyMap keeps a nil script output out of the result so JSON omits it.
func anyMap(m map[string]any) any {
	if m == nil {
		return nil
	}
	return m
}
