package domain

import (
	"database/sql"
	"time"
)

// WorkflowRun is one execution attempt of a workflow. A run is created with
// status running before any step executes and transitions exactly once to
// completed or failed, after which the record is never mutated again.
type WorkflowRun struct {
	ID          string
	WorkflowID  string
	OwnerID     string
	Status      string
	StepResults sql.NullString
	Started     time.Time
	Completed   sql.NullTime
	Error       sql.NullString
}
