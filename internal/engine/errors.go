package engine

import "fmt"

// NotFoundError reports a missing record at an engine entry point.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// AccessDeniedError reports an ownership mismatch. The check lives in the
// engine itself, not only at the API layer.
type AccessDeniedError struct {
	Kind string
	ID   string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied to %s %s", e.Kind, e.ID)
}

// ConfigurationError reports stored state that cannot be interpreted, such
// as a step sequence that does not deserialize into valid definitions.
type ConfigurationError struct {
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ReferenceError reports a reference input that names a step with no
// recorded output, or a path that cannot be traversed into that output.
type ReferenceError struct {
	StepID string
	Path   string
	Reason string
}

func (e *ReferenceError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("cannot resolve reference %s.%s: %s", e.StepID, e.Path, e.Reason)
	}
	return fmt.Sprintf("cannot resolve reference %s: %s", e.StepID, e.Reason)
}

// CredentialNotFoundError reports a credential input naming a secret the
// owner does not have.
type CredentialNotFoundError struct {
	Name string
}

func (e *CredentialNotFoundError) Error() string {
	return fmt.Sprintf("credential not found: %s", e.Name)
}

// NoRecipientError reports a notify step with no declared recipient and no
// single linked identity on the channel to fall back to.
type NoRecipientError struct {
	Channel string
}

func (e *NoRecipientError) Error() string {
	return fmt.Sprintf("no recipient for channel %s: none declared and no single linked identity", e.Channel)
}

// StepExecutionError wraps a collaborator failure captured by the
// dispatcher. It is recorded on the step result and never propagates.
type StepExecutionError struct {
	StepID string
	Err    error
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.StepID, e.Err)
}

func (e *StepExecutionError) Unwrap() error { return e.Err }

// PersistenceError reports a storage failure. Fatal when creating the run
// record, logged and swallowed in scheduler bookkeeping.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
