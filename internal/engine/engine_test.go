package engine

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hiveflow/hiveflow/internal/domain"
	"github.com/hiveflow/hiveflow/internal/models"
)

// Mock repos and collaborators for engine tests

type MockWorkflowRepo struct {
	FindByIDFunc func(id string) (*domain.Workflow, error)
}

func (m *MockWorkflowRepo) FindByID(id string) (*domain.Workflow, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(id)
	}
	return nil, sql.ErrNoRows
}

type MockRunRepo struct {
	SaveFunc   func(run *domain.WorkflowRun) error
	UpdateFunc func(run *domain.WorkflowRun) error

	Saved   []*domain.WorkflowRun
	Updated []*domain.WorkflowRun
}

func (m *MockRunRepo) Save(run *domain.WorkflowRun) error {
	copied := *run
	m.Saved = append(m.Saved, &copied)
	if m.SaveFunc != nil {
		return m.SaveFunc(run)
	}
	return nil
}

func (m *MockRunRepo) Update(run *domain.WorkflowRun) error {
	copied := *run
	m.Updated = append(m.Updated, &copied)
	if m.UpdateFunc != nil {
		return m.UpdateFunc(run)
	}
	return nil
}

type MockScriptRepo struct {
	FindByIDFunc func(id string, ownerID string) (*domain.Script, error)
}

func (m *MockScriptRepo) FindByID(id string, ownerID string) (*domain.Script, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(id, ownerID)
	}
	return &domain.Script{ID: id, OwnerID: ownerID, Source: "func Run(inputs map[string]any) (map[string]any, error) { return nil, nil }"}, nil
}

type MockRunner struct {
	ExecuteFunc func(ctx context.Context, source string, inputs map[string]any) ScriptResult
}

func (m *MockRunner) Execute(ctx context.Context, source string, inputs map[string]any) ScriptResult {
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, source, inputs)
	}
	return ScriptResult{Success: true, Output: map[string]any{}}
}

type MockSkillResolver struct {
	ResolveFunc func(ctx context.Context, name string, ownerID string) (string, error)
}

func (m *MockSkillResolver) Resolve(ctx context.Context, name string, ownerID string) (string, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, name, ownerID)
	}
	return "skill content", nil
}

type MockModelExecutor struct {
	ExecuteFunc func(ctx context.Context, skillContent string, inputs map[string]any, tools []string) (any, error)
}

func (m *MockModelExecutor) Execute(ctx context.Context, skillContent string, inputs map[string]any, tools []string) (any, error) {
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, skillContent, inputs, tools)
	}
	return map[string]any{"reply": "ok"}, nil
}

type MockVault struct {
	DecryptFunc func(ctx context.Context, ownerID string, name string) (string, error)
}

func (m *MockVault) Decrypt(ctx context.Context, ownerID string, name string) (string, error) {
	if m.DecryptFunc != nil {
		return m.DecryptFunc(ctx, ownerID, name)
	}
	return "", &CredentialNotFoundError{Name: name}
}

type MockChannelClient struct {
	SendFunc func(ctx context.Context, channel string, recipient string, message map[string]any) (any, error)
}

func (m *MockChannelClient) Send(ctx context.Context, channel string, recipient string, message map[string]any) (any, error) {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, channel, recipient, message)
	}
	return map[string]any{"delivered": true}, nil
}

type MockIdentityRepo struct {
	FindByIDFunc              func(id string, ownerID string) (*domain.Identity, error)
	FindByOwnerAndChannelFunc func(ownerID string, channel string) ([]domain.Identity, error)
}

func (m *MockIdentityRepo) FindByID(id string, ownerID string) (*domain.Identity, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(id, ownerID)
	}
	return nil, sql.ErrNoRows
}

func (m *MockIdentityRepo) FindByOwnerAndChannel(ownerID string, channel string) ([]domain.Identity, error) {
	if m.FindByOwnerAndChannelFunc != nil {
		return m.FindByOwnerAndChannelFunc(ownerID, channel)
	}
	return nil, nil
}

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time                         { return c.now }
func (c *fixedClock) After(d time.Duration) <-chan time.Time { return time.After(0) }
func (c *fixedClock) Sleep(d time.Duration)                  {}

type engineFixture struct {
	workflows *MockWorkflowRepo
	runs      *MockRunRepo
	scripts   *MockScriptRepo
	runner    *MockRunner
	vault     *MockVault
	engine    *Engine
}

func newEngineFixture() *engineFixture {
	f := &engineFixture{
		workflows: &MockWorkflowRepo{},
		runs:      &MockRunRepo{},
		scripts:   &MockScriptRepo{},
		runner:    &MockRunner{},
		vault:     &MockVault{},
	}
	resolver := NewResolver(f.vault)
	dispatcher := NewDispatcher(f.scripts, f.runner, &MockSkillResolver{}, &MockModelExecutor{}, &MockChannelClient{}, &MockIdentityRepo{})
	f.engine = NewEngine(f.workflows, f.runs, resolver, dispatcher, &fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)})
	return f
}

func storedWorkflow(t *testing.T, ownerID string, steps []models.StepDefinition) *domain.Workflow {
	t.Helper()
	raw, err := models.EncodeSteps(steps)
	if err != nil {
		t.Fatalf("encode steps: %v", err)
	}
	return &domain.Workflow{ID: "wf-1", OwnerID: ownerID, Name: "test", Steps: raw, Active: true}
}

func TestExecuteWorkflowAllStepsSucceed(t *testing.T) {
	f := newEngineFixture()
	wf := storedWorkflow(t, "user-1", []models.StepDefinition{
		{ID: "step1", Kind: models.StepKindScript, Target: "script-1"},
		{ID: "step2", Kind: models.StepKindScript, Target: "script-2", Inputs: map[string]models.InputMapping{
			"rows": {Kind: models.InputReference, StepID: "step1", Path: "result.rows"},
		}},
	})
	f.workflows.FindByIDFunc = func(id string) (*domain.Workflow, error) { return wf, nil }

	var step2Inputs map[string]any
	f.runner.ExecuteFunc = func(ctx context.Context, source string, inputs map[string]any) ScriptResult {
		if _, ok := inputs["rows"]; ok {
			step2Inputs = inputs
			return ScriptResult{Success: true, Output: map[string]any{"count": 3}}
		}
		return ScriptResult{Success: true, Output: map[string]any{
			"result": map[string]any{"rows": []any{1, 2, 3}},
		}}
	}

	result, err := f.engine.ExecuteWorkflow(context.Background(), "wf-1", "user-1")
	if err != nil {
		t.Fatalf("ExecuteWorkflow returned error: %v", err)
	}
	if result.Status != models.RunStatusCompleted {
		t.Errorf("status = %s, want completed", result.Status)
	}
	if len(result.Steps) != 2 {
		t.Fatalf("got %d step results, want 2", len(result.Steps))
	}
	for _, step := range result.Steps {
		if step.Status != models.StepStatusCompleted {
			t.Errorf("step %s status = %s, want completed", step.StepID, step.Status)
		}
	}
	rows, ok := step2Inputs["rows"].([]any)
	if !ok || len(rows) != 3 {
		t.Errorf("step2 rows input = %v, want the referenced slice", step2Inputs["rows"])
	}

	if len(f.runs.Saved) != 1 || len(f.runs.Updated) != 1 {
		t.Fatalf("saved=%d updated=%d, want 1 and 1", len(f.runs.Saved), len(f.runs.Updated))
	}
	if f.runs.Saved[0].Status != string(models.RunStatusRunning) {
		t.Errorf("initial run status = %s, want running", f.runs.Saved[0].Status)
	}
	final := f.runs.Updated[0]
	if final.Status != string(models.RunStatusCompleted) {
		t.Errorf("final run status = %s, want completed", final.Status)
	}
	if !final.Completed.Valid {
		t.Error("completed timestamp not set on final run")
	}
}

func TestExecuteWorkflowFailFast(t *testing.T) {
	f := newEngineFixture()
	wf := storedWorkflow(t, "user-1", []models.StepDefinition{
		{ID: "step1", Kind: models.StepKindScript, Target: "s1"},
		{ID: "step2", Kind: models.StepKindScript, Target: "s2"},
		{ID: "step3", Kind: models.StepKindScript, Target: "s3"},
		{ID: "step4", Kind: models.StepKindScript, Target: "s4"},
	})
	f.workflows.FindByIDFunc = func(id string) (*domain.Workflow, error) { return wf, nil }
	f.runner.ExecuteFunc = func(ctx context.Context, source string, inputs map[string]any) ScriptResult {
		if strings.Contains(source, "s2") {
			return ScriptResult{Success: false, Error: "boom"}
		}
		return ScriptResult{Success: true, Output: map[string]any{}}
	}
	f.scripts.FindByIDFunc = func(id string, ownerID string) (*domain.Script, error) {
		return &domain.Script{ID: id, OwnerID: ownerID, Source: "source of " + id}, nil
	}

	result, err := f.engine.ExecuteWorkflow(context.Background(), "wf-1", "user-1")
	if err != nil {
		t.Fatalf("ExecuteWorkflow returned error: %v", err)
	}
	if result.Status != models.RunStatusFailed {
		t.Errorf("status = %s, want failed", result.Status)
	}
	if result.Error == "" {
		t.Error("run error is empty, want the failed step's error")
	}
	if len(result.Steps) != 4 {
		t.Fatalf("got %d step results, want 4", len(result.Steps))
	}
	wantStatuses := []models.StepStatus{
		models.StepStatusCompleted,
		models.StepStatusFailed,
		models.StepStatusSkipped,
		models.StepStatusSkipped,
	}
	for i, want := range wantStatuses {
		if result.Steps[i].Status != want {
			t.Errorf("step %d status = %s, want %s", i+1, result.Steps[i].Status, want)
		}
	}
	if f.runs.Updated[0].Status != string(models.RunStatusFailed) {
		t.Errorf("final run status = %s, want failed", f.runs.Updated[0].Status)
	}
}

func TestExecuteWorkflowCredentialNeverPersisted(t *testing.T) {
	const secret = "hunter2-synthetic-secret"
	f := newEngineFixture()
	wf := storedWorkflow(t, "user-1", []models.StepDefinition{
		{ID: "step1", Kind: models.StepKindScript, Target: "script-1", Inputs: map[string]models.InputMapping{
			"token": {Kind: models.InputCredential, Name: "api-token"},
		}},
	})
	f.workflows.FindByIDFunc = func(id string) (*domain.Workflow, error) { return wf, nil }
	f.vault.DecryptFunc = func(ctx context.Context, ownerID string, name string) (string, error) {
		return secret, nil
	}

	var seenToken string
	f.runner.ExecuteFunc = func(ctx context.Context, source string, inputs map[string]any) ScriptResult {
		seenToken, _ = inputs["token"].(string)
		return ScriptResult{Success: true, Output: map[string]any{"status": "sent"}}
	}

	result, err := f.engine.ExecuteWorkflow(context.Background(), "wf-1", "user-1")
	if err != nil {
		t.Fatalf("ExecuteWorkflow returned error: %v", err)
	}
	if seenToken != secret {
		t.Errorf("script saw token %q, want the decrypted credential", seenToken)
	}
	if result.Status != models.RunStatusCompleted {
		t.Errorf("status = %s, want completed", result.Status)
	}

	for _, run := range append(f.runs.Saved, f.runs.Updated...) {
		if run.StepResults.Valid && strings.Contains(run.StepResults.String, secret) {
			t.Errorf("persisted run record contains the credential plaintext: %s", run.StepResults.String)
		}
		if run.Error.Valid && strings.Contains(run.Error.String, secret) {
			t.Error("persisted run error contains the credential plaintext")
		}
	}
}

func TestExecuteWorkflowNotFound(t *testing.T) {
	f := newEngineFixture()
	f.workflows.FindByIDFunc = func(id string) (*domain.Workflow, error) { return nil, sql.ErrNoRows }

	_, err := f.engine.ExecuteWorkflow(context.Background(), "missing", "user-1")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err = %v, want *NotFoundError", err)
	}
	if len(f.runs.Saved) != 0 {
		t.Error("no run record should be created for a missing workflow")
	}
}

func TestExecuteWorkflowAccessDenied(t *testing.T) {
	f := newEngineFixture()
	wf := storedWorkflow(t, "owner-a", []models.StepDefinition{
		{ID: "step1", Kind: models.StepKindScript, Target: "s1"},
	})
	f.workflows.FindByIDFunc = func(id string) (*domain.Workflow, error) { return wf, nil }

	_, err := f.engine.ExecuteWorkflow(context.Background(), "wf-1", "owner-b")
	var denied *AccessDeniedError
	if !errors.As(err, &denied) {
		t.Fatalf("err = %v, want *AccessDeniedError", err)
	}
	if len(f.runs.Saved) != 0 {
		t.Error("no run record should be created on access denial")
	}
}

func TestExecuteWorkflowInvalidStepsProducesFailedRun(t *testing.T) {
	f := newEngineFixture()
	wf := &domain.Workflow{ID: "wf-1", OwnerID: "user-1", Steps: `{"not":"an array"}`}
	f.workflows.FindByIDFunc = func(id string) (*domain.Workflow, error) { return wf, nil }

	_, err := f.engine.ExecuteWorkflow(context.Background(), "wf-1", "user-1")
	var cfg *ConfigurationError
	if !errors.As(err, &cfg) {
		t.Fatalf("err = %v, want *ConfigurationError", err)
	}
	if len(f.runs.Saved) != 1 {
		t.Fatalf("saved %d runs, want 1 failed zero-step run", len(f.runs.Saved))
	}
	run := f.runs.Saved[0]
	if run.Status != string(models.RunStatusFailed) {
		t.Errorf("run status = %s, want failed", run.Status)
	}
	if run.StepResults.String != "[]" {
		t.Errorf("step results = %s, want empty list", run.StepResults.String)
	}
	if !run.Error.Valid || run.Error.String == "" {
		t.Error("run error should describe the configuration problem")
	}
}

func TestExecuteWorkflowRunCreationFailureIsFatal(t *testing.T) {
	f := newEngineFixture()
	wf := storedWorkflow(t, "user-1", []models.StepDefinition{
		{ID: "step1", Kind: models.StepKindScript, Target: "s1"},
	})
	f.workflows.FindByIDFunc = func(id string) (*domain.Workflow, error) { return wf, nil }
	f.runs.SaveFunc = func(run *domain.WorkflowRun) error { return errors.New("disk full") }

	_, err := f.engine.ExecuteWorkflow(context.Background(), "wf-1", "user-1")
	var persistence *PersistenceError
	if !errors.As(err, &persistence) {
		t.Fatalf("err = %v, want *PersistenceError", err)
	}
}

func TestExecuteWorkflowResolutionFailureFailsStep(t *testing.T) {
	f := newEngineFixture()
	wf := storedWorkflow(t, "user-1", []models.StepDefinition{
		{ID: "step1", Kind: models.StepKindScript, Target: "s1", Inputs: map[string]models.InputMapping{
			"data": {Kind: models.InputReference, StepID: "ghost", Path: "x"},
		}},
		{ID: "step2", Kind: models.StepKindScript, Target: "s2"},
	})
	f.workflows.FindByIDFunc = func(id string) (*domain.Workflow, error) { return wf, nil }

	result, err := f.engine.ExecuteWorkflow(context.Background(), "wf-1", "user-1")
	if err != nil {
		t.Fatalf("ExecuteWorkflow returned error: %v", err)
	}
	if result.Status != models.RunStatusFailed {
		t.Errorf("status = %s, want failed", result.Status)
	}
	if result.Steps[0].Status != models.StepStatusFailed {
		t.Errorf("step1 status = %s, want failed", result.Steps[0].Status)
	}
	if result.Steps[1].Status != models.StepStatusSkipped {
		t.Errorf("step2 status = %s, want skipped", result.Steps[1].Status)
	}
}
