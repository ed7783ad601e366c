package models

// CreateWorkflowRequest is the API payload for creating a workflow.
type CreateWorkflowRequest struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Steps       []StepDefinition `json:"steps"`
	Active      *bool            `json:"active,omitempty"`
}

// UpdateWorkflowRequest carries partial workflow updates.
type UpdateWorkflowRequest struct {
	Name        *string           `json:"name,omitempty"`
	Description *string           `json:"description,omitempty"`
	Steps       *[]StepDefinition `json:"steps,omitempty"`
	Active      *bool             `json:"active,omitempty"`
}

// CreateScheduleRequest is the API payload for creating a schedule. The cron
// expression is validated before any storage write.
type CreateScheduleRequest struct {
	WorkflowID string `json:"workflowId"`
	CronExpr   string `json:"cronExpr"`
	Timezone   string `json:"timezone"`
	Active     *bool  `json:"active,omitempty"`
}

// UpdateScheduleRequest carries partial schedule updates.
type UpdateScheduleRequest struct {
	CronExpr *string `json:"cronExpr,omitempty"`
	Timezone *string `json:"timezone,omitempty"`
	Active   *bool   `json:"active,omitempty"`
}

// CreateScriptRequest is the API payload for storing a script.
type CreateScriptRequest struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// CreateSkillRequest is the API payload for storing a skill.
type CreateSkillRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// CreateCredentialRequest carries a plaintext secret to be sealed at rest.
type CreateCredentialRequest struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CreateIdentityRequest links a channel address to the calling user.
type CreateIdentityRequest struct {
	Channel string `json:"channel"`
	Address string `json:"address"`
}

// CreateUserRequest is the API payload for creating a user.
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
