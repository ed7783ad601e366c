package engine

import (
	"context"

	"github.com/hiveflow/hiveflow/internal/domain"
)

// WorkflowRepo defines the interface for workflow reads, matching repository.WorkflowRepository.
type WorkflowRepo interface {
	FindByID(id string) (*domain.Workflow, error)
}

// RunRepo defines the interface for run persistence.
type RunRepo interface {
	Save(run *domain.WorkflowRun) error
	Update(run *domain.WorkflowRun) error
}

// ScriptRepo defines owner-scoped script reads.
type ScriptRepo interface {
	FindByID(id string, ownerID string) (*domain.Script, error)
}

// IdentityRepo defines identity reads for notify recipient resolution.
type IdentityRepo interface {
	FindByID(id string, ownerID string) (*domain.Identity, error)
	FindByOwnerAndChannel(ownerID string, channel string) ([]domain.Identity, error)
}

// ScriptResult is the uniform outcome of one script execution. Runners
// never return an error; failures are reported in the result itself.
type ScriptResult struct {
	Success    bool
	Output     map[string]any
	Error      string
	DurationMs int64
}

// ScriptRunner executes user script source within a bounded timeout.
type ScriptRunner interface {
	Execute(ctx context.Context, source string, inputs map[string]any) ScriptResult
}

// SkillResolver maps a skill name to AI-usable content for an owner.
type SkillResolver interface {
	Resolve(ctx context.Context, name string, ownerID string) (string, error)
}

// ModelExecutor runs skill content against a model, constrained to the
// step's tool allowlist.
type ModelExecutor interface {
	Execute(ctx context.Context, skillContent string, inputs map[string]any, tools []string) (any, error)
}

// Vault decrypts a named credential scoped by owner. Implementations must
// return a *CredentialNotFoundError when no such credential exists.
type Vault interface {
	Decrypt(ctx context.Context, ownerID string, name string) (string, error)
}

// ChannelClient delivers a message to a recipient on a named channel and
// returns the delivery acknowledgment.
type ChannelClient interface {
	Send(ctx context.Context, channel string, recipient string, message map[string]any) (any, error)
}
