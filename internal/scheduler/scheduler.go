package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	cronlib "github.com/robfig/cron/v3"

	"github.com/hiveflow/hiveflow/internal/core"
	"github.com/hiveflow/hiveflow/internal/domain"
	"github.com/hiveflow/hiveflow/internal/models"
)

// Executor is the engine entry point the scheduler drives on each tick.
type Executor interface {
	ExecuteWorkflow(ctx context.Context, workflowID string, ownerID string) (*models.WorkflowRunResult, error)
}

// ScheduleRepo defines the schedule persistence the scheduler needs,
// matching repository.ScheduleRepository.
type ScheduleRepo interface {
	FindAllActive() (*[]domain.Schedule, error)
	UpdateRunTimes(id string, lastRunAt time.Time, nextRunAt sql.NullTime) error
}

// cronParser supports standard 5-field cron and descriptors like "@daily".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// Scheduler owns the set of live recurring triggers: one cancellable cron
// entry per active schedule, confined to this process. All mutation of the
// entry map goes through its methods under one mutex.
type Scheduler struct {
	schedules ScheduleRepo
	executor  Executor
	clock     core.Clock

	mu      sync.Mutex
	cron    *cronlib.Cron
	entries map[string]cronlib.EntryID
}

func NewScheduler(schedules ScheduleRepo, executor Executor, clock core.Clock) *Scheduler {
	return &Scheduler{
		schedules: schedules,
		executor:  executor,
		clock:     clock,
		cron:      cronlib.New(cronlib.WithParser(cronParser)),
		entries:   make(map[string]cronlib.EntryID),
	}
}

// Start loads every active schedule from storage and registers one timer
// per schedule, then starts the timer loop. Intended to run once at boot.
// Registration failures are aggregated; the valid schedules still start.
func (s *Scheduler) Start() error {
	active, err := s.schedules.FindAllActive()
	if err != nil {
		return fmt.Errorf("load active schedules: %w", err)
	}

	var result *multierror.Error
	for i := range *active {
		sched := (*active)[i]
		if err := s.AddSchedule(&sched); err != nil {
			slog.Error("Failed to register schedule", "schedule_id", sched.ID, "error", err)
			result = multierror.Append(result, fmt.Errorf("schedule %s: %w", sched.ID, err))
		}
	}

	s.mu.Lock()
	s.cron.Start()
	count := len(s.entries)
	s.mu.Unlock()

	slog.Info("Cron scheduler started", "schedules", count)
	return result.ErrorOrNil()
}

// Stop cancels and clears every registered timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entryID := range s.entries {
		s.cron.Remove(entryID)
		delete(s.entries, id)
	}
	s.cron.Stop()
	slog.Info("Cron scheduler stopped")
}

// ReloadSchedules resyncs every timer from storage after bulk external
// changes.
func (s *Scheduler) ReloadSchedules() error {
	s.Stop()
	return s.Start()
}

// AddSchedule registers or replaces the timer for one schedule. Any
// existing timer for the id is removed first, so at most one live timer
// exists per schedule. An inactive schedule just has its timer removed.
func (s *Scheduler) AddSchedule(sched *domain.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.entries[sched.ID]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, sched.ID)
	}
	if !sched.Active {
		return nil
	}

	spec, err := parseInLocation(sched.CronExpr, sched.Timezone)
	if err != nil {
		return fmt.Errorf("parse cron %q in %q: %w", sched.CronExpr, sched.Timezone, err)
	}

	scheduleID := sched.ID
	workflowID := sched.WorkflowID
	ownerID := sched.OwnerID
	cronExpr := sched.CronExpr
	timezone := sched.Timezone
	entryID := s.cron.Schedule(spec, cronlib.FuncJob(func() {
		s.tick(scheduleID, workflowID, ownerID, cronExpr, timezone)
	}))
	s.entries[sched.ID] = entryID
	return nil
}

// RemoveSchedule cancels the live timer for a schedule id. Idempotent.
func (s *Scheduler) RemoveSchedule(scheduleID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entryID, ok := s.entries[scheduleID]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, scheduleID)
	}
}

// RegisteredScheduleIDs lists the schedule ids with a live timer.
func (s *Scheduler) RegisteredScheduleIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	return ids
}

// tick executes the schedule's workflow and reconciles the bookkeeping
// columns. Nothing that happens here stops future ticks: engine errors are
// logged, next-fire computation failures leave nextRunAt stale with a
// warning, and persistence failures are logged and swallowed.
func (s *Scheduler) tick(scheduleID, workflowID, ownerID, cronExpr, timezone string) {
	ctx := context.Background()
	slog.InfoContext(ctx, "Schedule fired", "schedule_id", scheduleID, "workflow_id", workflowID)

	result, err := s.executor.ExecuteWorkflow(ctx, workflowID, ownerID)
	if err != nil {
		slog.ErrorContext(ctx, "Scheduled run failed to execute", "schedule_id", scheduleID, "workflow_id", workflowID, "error", err)
	} else {
		slog.InfoContext(ctx, "Scheduled run finished", "schedule_id", scheduleID, "run_id", result.RunID, "status", result.Status)
	}

	now := s.clock.Now().UTC()
	var nextRunAt sql.NullTime
	if next, ok := nextAfter(cronExpr, timezone, now); ok {
		nextRunAt = sql.NullTime{Time: next, Valid: true}
	} else {
		slog.WarnContext(ctx, "Could not compute next run time, leaving stale value",
			"schedule_id", scheduleID, "cron", cronExpr, "timezone", timezone)
	}
	if err := s.schedules.UpdateRunTimes(scheduleID, now, nextRunAt); err != nil {
		slog.ErrorContext(ctx, "Failed to persist schedule run times", "schedule_id", scheduleID, "error", err)
	}
}

// IsValidCron reports whether the expression parses. Used to reject
// malformed expressions before they ever reach storage.
func IsValidCron(expr string) bool {
	_, err := cronParser.Parse(expr)
	return err == nil
}

// NextRunTime computes the next fire instant after now, evaluated in the
// given IANA timezone. Returns false rather than an error on any parse
// failure.
func (s *Scheduler) NextRunTime(expr string, timezone string) (time.Time, bool) {
	return nextAfter(expr, timezone, s.clock.Now())
}

func nextAfter(expr string, timezone string, after time.Time) (time.Time, bool) {
	spec, err := parseInLocation(expr, timezone)
	if err != nil {
		return time.Time{}, false
	}
	// Next returns the zero time when no fire exists within the library's
	// search horizon; that must not be persisted as a real nextRunAt.
	next := spec.Next(after)
	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}

func parseInLocation(expr string, timezone string) (cronlib.Schedule, error) {
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return cronParser.Parse(fmt.Sprintf("CRON_TZ=%s %s", timezone, expr))
}
