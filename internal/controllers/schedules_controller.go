package controllers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hiveflow/hiveflow/internal/core"
	"github.com/hiveflow/hiveflow/internal/domain"
	"github.com/hiveflow/hiveflow/internal/models"
	"github.com/hiveflow/hiveflow/internal/scheduler"
)

// SchedulesController manages cron schedules and keeps the live scheduler in
// step with every mutation. Cron expressions are validated before anything
// is written to storage.
type SchedulesController struct {
	AuthController
	ScheduleRepo ScheduleStore
	WorkflowRepo WorkflowStore
	Scheduler    ScheduleRegistrar
	Clock        core.Clock
}

func NewSchedulesController(scheduleRepo ScheduleStore, workflowRepo WorkflowStore, sched ScheduleRegistrar, clock core.Clock, userRepo UserRepo) *SchedulesController {
	return &SchedulesController{
		ScheduleRepo: scheduleRepo,
		WorkflowRepo: workflowRepo,
		Scheduler:    sched,
		Clock:        clock,
		AuthController: AuthController{
			UserRepo: userRepo,
		},
	}
}

func (c *SchedulesController) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := c.ScheduleRepo.FindByOwner(ownerFromContext(r))
	if err != nil {
		slog.Error("Failed to list schedules", "error", err)
		http.Error(w, "failed to list schedules", http.StatusInternalServerError)
		return
	}
	apiResults := make([]models.ScheduleApiResponse, 0, len(*schedules))
	for i := range *schedules {
		apiResults = append(apiResults, mapScheduleToApiSchedule(&(*schedules)[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(apiResults)
}

func (c *SchedulesController) handleGetScheduleById(w http.ResponseWriter, r *http.Request) {
	sched := c.loadOwnedSchedule(w, r)
	if sched == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(mapScheduleToApiSchedule(sched))
}

func (c *SchedulesController) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req models.CreateScheduleRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if req.WorkflowID == "" || strings.TrimSpace(req.CronExpr) == "" || req.Timezone == "" {
		http.Error(w, "workflowId, cronExpr and timezone are required", http.StatusBadRequest)
		return
	}
	if !scheduler.IsValidCron(req.CronExpr) {
		http.Error(w, "invalid cron expression", http.StatusBadRequest)
		return
	}

	ownerID := ownerFromContext(r)
	wf, err := c.WorkflowRepo.FindByID(req.WorkflowID)
	if err != nil || wf == nil || wf.OwnerID != ownerID {
		http.Error(w, "workflow not found", http.StatusNotFound)
		return
	}

	next, ok := c.Scheduler.NextRunTime(req.CronExpr, req.Timezone)
	if !ok {
		http.Error(w, "invalid timezone", http.StatusBadRequest)
		return
	}

	now := c.Clock.Now().UTC()
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	sched := &domain.Schedule{
		ID:         uuid.NewString(),
		WorkflowID: req.WorkflowID,
		OwnerID:    ownerID,
		CronExpr:   req.CronExpr,
		Timezone:   req.Timezone,
		Active:     active,
		NextRunAt:  sql.NullTime{Time: next.UTC(), Valid: true},
		Created:    now,
		Modified:   now,
	}
	if err := c.ScheduleRepo.Save(sched); err != nil {
		slog.Error("Failed to save schedule", "error", err)
		http.Error(w, "failed to create schedule", http.StatusInternalServerError)
		return
	}
	if err := c.Scheduler.AddSchedule(sched); err != nil {
		slog.Error("Failed to register schedule", "schedule_id", sched.ID, "error", err)
	}
	slog.InfoContext(r.Context(), "Schedule created", "schedule_id", sched.ID,
		"workflow_id", sched.WorkflowID, "cron", sched.CronExpr, "timezone", sched.Timezone)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(mapScheduleToApiSchedule(sched))
}

func (c *SchedulesController) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	sched := c.loadOwnedSchedule(w, r)
	if sched == nil {
		return
	}

	var req models.UpdateScheduleRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	if req.CronExpr != nil {
		if !scheduler.IsValidCron(*req.CronExpr) {
			http.Error(w, "invalid cron expression", http.StatusBadRequest)
			return
		}
		sched.CronExpr = *req.CronExpr
	}
	if req.Timezone != nil {
		sched.Timezone = *req.Timezone
	}
	if req.Active != nil {
		sched.Active = *req.Active
	}

	next, ok := c.Scheduler.NextRunTime(sched.CronExpr, sched.Timezone)
	if !ok {
		http.Error(w, "invalid timezone", http.StatusBadRequest)
		return
	}
	sched.NextRunAt = sql.NullTime{Time: next.UTC(), Valid: true}
	sched.Modified = c.Clock.Now().UTC()

	if err := c.ScheduleRepo.Update(sched); err != nil {
		slog.Error("Failed to update schedule", "schedule_id", sched.ID, "error", err)
		http.Error(w, "failed to update schedule", http.StatusInternalServerError)
		return
	}
	// AddSchedule replaces any registered entry; an inactive schedule just
	// gets its entry removed.
	if err := c.Scheduler.AddSchedule(sched); err != nil {
		slog.Error("Failed to re-register schedule", "schedule_id", sched.ID, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(mapScheduleToApiSchedule(sched))
}

func (c *SchedulesController) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	sched := c.loadOwnedSchedule(w, r)
	if sched == nil {
		return
	}
	if err := c.ScheduleRepo.Delete(sched.ID); err != nil {
		slog.Error("Failed to delete schedule", "schedule_id", sched.ID, "error", err)
		http.Error(w, "failed to delete schedule", http.StatusInternalServerError)
		return
	}
	c.Scheduler.RemoveSchedule(sched.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (c *SchedulesController) loadOwnedSchedule(w http.ResponseWriter, r *http.Request) *domain.Schedule {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return nil
	}
	sched, err := c.ScheduleRepo.FindByID(id)
	if err != nil || sched == nil || sched.OwnerID != ownerFromContext(r) {
		http.Error(w, "schedule not found", http.StatusNotFound)
		return nil
	}
	return sched
}

func mapScheduleToApiSchedule(sched *domain.Schedule) models.ScheduleApiResponse {
	api := models.ScheduleApiResponse{
		ID:         sched.ID,
		WorkflowID: sched.WorkflowID,
		CronExpr:   sched.CronExpr,
		Timezone:   sched.Timezone,
		Active:     sched.Active,
		Created:    sched.Created,
		Modified:   sched.Modified,
	}
	if sched.LastRunAt.Valid {
		t := sched.LastRunAt.Time
		api.LastRunAt = &t
	}
	if sched.NextRunAt.Valid {
		t := sched.NextRunAt.Time
		api.NextRunAt = &t
	}
	return api
}
