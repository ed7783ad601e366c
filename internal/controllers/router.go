package controllers

import "net/http"

// RegisterRoutes wires the HTTP routes for this controller.
func (c *WorkflowsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/workflows", c.RequireAuth(c.handleListWorkflows))
	mux.HandleFunc("POST /api/workflows", c.RequireAuth(c.handleCreateWorkflow))
	mux.HandleFunc("GET /api/workflows/{id}", c.RequireAuth(c.handleGetWorkflowById))
	mux.HandleFunc("PUT /api/workflows/{id}", c.RequireAuth(c.handleUpdateWorkflow))
	mux.HandleFunc("DELETE /api/workflows/{id}", c.RequireAuth(c.handleDeleteWorkflow))
	mux.HandleFunc("POST /api/workflows/{id}/run", c.RequireAuth(c.handleTriggerWorkflow))
}

func (c *RunsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/runs/{id}", c.RequireAuth(c.handleGetRunById))
	mux.HandleFunc("GET /api/workflows/{id}/runs", c.RequireAuth(c.handleListRunsForWorkflow))
}

func (c *SchedulesController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/schedules", c.RequireAuth(c.handleListSchedules))
	mux.HandleFunc("POST /api/schedules", c.RequireAuth(c.handleCreateSchedule))
	mux.HandleFunc("GET /api/schedules/{id}", c.RequireAuth(c.handleGetScheduleById))
	mux.HandleFunc("PUT /api/schedules/{id}", c.RequireAuth(c.handleUpdateSchedule))
	mux.HandleFunc("DELETE /api/schedules/{id}", c.RequireAuth(c.handleDeleteSchedule))
}

func (c *ScriptsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/scripts", c.RequireAuth(c.handleListScripts))
	mux.HandleFunc("POST /api/scripts", c.RequireAuth(c.handleCreateScript))
	mux.HandleFunc("GET /api/scripts/{id}", c.RequireAuth(c.handleGetScriptById))
	mux.HandleFunc("PUT /api/scripts/{id}", c.RequireAuth(c.handleUpdateScript))
	mux.HandleFunc("DELETE /api/scripts/{id}", c.RequireAuth(c.handleDeleteScript))
}

func (c *SkillsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/skills", c.RequireAuth(c.handleListSkills))
	mux.HandleFunc("POST /api/skills", c.RequireAuth(c.handleCreateSkill))
	mux.HandleFunc("GET /api/skills/{name}", c.RequireAuth(c.handleGetSkillByName))
	mux.HandleFunc("PUT /api/skills/{name}", c.RequireAuth(c.handleUpdateSkill))
	mux.HandleFunc("DELETE /api/skills/{name}", c.RequireAuth(c.handleDeleteSkill))
}

func (c *CredentialsController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/credentials", c.RequireAuth(c.handleListCredentials))
	mux.HandleFunc("POST /api/credentials", c.RequireAuth(c.handleCreateCredential))
	mux.HandleFunc("DELETE /api/credentials/{name}", c.RequireAuth(c.handleDeleteCredential))
}

func (c *IdentitiesController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/identities", c.RequireAuth(c.handleListIdentities))
	mux.HandleFunc("POST /api/identities", c.RequireAuth(c.handleCreateIdentity))
	mux.HandleFunc("DELETE /api/identities/{id}", c.RequireAuth(c.handleDeleteIdentity))
}

func (c *UsersController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/users", c.RequireAuth(c.handleCreateUser))
	mux.HandleFunc("POST /api/users/apikey", c.RequireAuth(c.handleRotateApiKey))
}
