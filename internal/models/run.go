package models

import "encoding/json"

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

type StepStatus string

const (
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepResult records the outcome of one step. Resolved inputs are never
// copied here, so decrypted credentials cannot leak into the run record.
type StepResult struct {
	StepID     string     `json:"stepId"`
	Status     StepStatus `json:"status"`
	DurationMs int64      `json:"durationMs"`
	Output     any        `json:"output,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// WorkflowRunResult is the summary returned to the caller of a run.
type WorkflowRunResult struct {
	RunID      string       `json:"runId"`
	WorkflowID string       `json:"workflowId"`
	Status     RunStatus    `json:"status"`
	Steps      []StepResult `json:"steps"`
	DurationMs int64        `json:"durationMs"`
	Error      string       `json:"error,omitempty"`
}

// EncodeStepResults serializes step results for the run record column.
func EncodeStepResults(results []StepResult) (string, error) {
	data, err := json.Marshal(results)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeStepResults parses the step_results column of a persisted run.
func DecodeStepResults(raw string) ([]StepResult, error) {
	if raw == "" {
		return nil, nil
	}
	var results []StepResult
	if err := json.Unmarshal([]byte(raw), &results); err != nil {
		return nil, err
	}
	return results, nil
}
