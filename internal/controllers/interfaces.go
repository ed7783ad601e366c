package controllers

import (
	"context"
	"time"

	"github.com/hiveflow/hiveflow/internal/domain"
	"github.com/hiveflow/hiveflow/internal/models"
)

// The store interfaces below are the slices of the repositories each
// controller needs; repository.* satisfies them.

type WorkflowStore interface {
	FindByID(id string) (*domain.Workflow, error)
	FindByOwner(ownerID string) (*[]domain.Workflow, error)
	Save(wf *domain.Workflow) error
	Update(wf *domain.Workflow) error
	Delete(id string) error
}

type RunStore interface {
	FindByID(id string) (*domain.WorkflowRun, error)
	FindByWorkflowID(workflowID string, limit int) (*[]domain.WorkflowRun, error)
}

type ScheduleStore interface {
	FindByID(id string) (*domain.Schedule, error)
	FindByOwner(ownerID string) (*[]domain.Schedule, error)
	Save(s *domain.Schedule) error
	Update(s *domain.Schedule) error
	Delete(id string) error
}

type ScriptStore interface {
	FindByID(id string, ownerID string) (*domain.Script, error)
	FindByOwner(ownerID string) (*[]domain.Script, error)
	Save(s *domain.Script) error
	Update(s *domain.Script) error
	Delete(id string, ownerID string) error
}

type SkillStore interface {
	FindByName(name string, ownerID string) (*domain.Skill, error)
	FindByOwner(ownerID string) (*[]domain.Skill, error)
	Save(s *domain.Skill) error
	Update(s *domain.Skill) error
	Delete(name string, ownerID string) error
}

type CredentialStore interface {
	ListNames(ownerID string) ([]string, error)
}

type IdentityStore interface {
	FindByOwnerAndChannel(ownerID string, channel string) ([]domain.Identity, error)
	Save(ident *domain.Identity) error
	Delete(id string, ownerID string) error
}

type UserStore interface {
	UserRepo
	FindByUsername(username string) (*domain.User, error)
	Save(u *domain.User) error
	UpdateApiKey(id string, apiKey string) error
}

// WorkflowExecutor is the engine entry point the trigger endpoint drives.
type WorkflowExecutor interface {
	ExecuteWorkflow(ctx context.Context, workflowID string, ownerID string) (*models.WorkflowRunResult, error)
}

// CredentialVault is the sealing surface the credentials endpoints use.
type CredentialVault interface {
	Store(ctx context.Context, ownerID string, name string, value string) error
	Delete(ctx context.Context, ownerID string, name string) error
}

// ScheduleRegistrar keeps live cron timers in step with schedule mutations.
type ScheduleRegistrar interface {
	AddSchedule(sched *domain.Schedule) error
	RemoveSchedule(scheduleID string)
	NextRunTime(expr string, timezone string) (time.Time, bool)
}
