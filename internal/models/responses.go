package models

import "time"

// WorkflowApiResponse is the API shape of a stored workflow, with the step
// sequence decoded.
type WorkflowApiResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Steps       []StepDefinition `json:"steps"`
	Active      bool             `json:"active"`
	Created     time.Time        `json:"created"`
	Modified    time.Time        `json:"modified"`
}

// RunApiResponse is the API shape of a workflow run record.
type RunApiResponse struct {
	ID         string       `json:"id"`
	WorkflowID string       `json:"workflowId"`
	Status     string       `json:"status"`
	Steps      []StepResult `json:"steps"`
	Started    time.Time    `json:"started"`
	Completed  *time.Time   `json:"completed,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// ScheduleApiResponse is the API shape of a schedule.
type ScheduleApiResponse struct {
	ID         string     `json:"id"`
	WorkflowID string     `json:"workflowId"`
	CronExpr   string     `json:"cronExpr"`
	Timezone   string     `json:"timezone"`
	Active     bool       `json:"active"`
	LastRunAt  *time.Time `json:"lastRunAt,omitempty"`
	NextRunAt  *time.Time `json:"nextRunAt,omitempty"`
	Created    time.Time  `json:"created"`
	Modified   time.Time  `json:"modified"`
}

// ScriptApiResponse is the API shape of a stored script.
type ScriptApiResponse struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Source   string    `json:"source"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

// SkillApiResponse is the API shape of a stored skill.
type SkillApiResponse struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Content  string    `json:"content"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

// IdentityApiResponse is the API shape of a linked channel identity.
type IdentityApiResponse struct {
	ID      string    `json:"id"`
	Channel string    `json:"channel"`
	Address string    `json:"address"`
	Created time.Time `json:"created"`
}

// CreateUserResponse returns the generated API key exactly once, at
// creation time. The key is not retrievable afterwards.
type CreateUserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	ApiKey   string `json:"apiKey"`
}
