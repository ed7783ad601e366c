package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hiveflow/hiveflow/internal/models"
)

// ResolveContext holds what a step is allowed to see when its inputs are
// resolved: the run owner and the outputs of steps that already completed.
// Outputs is append-only and only gains a key after the step succeeds, so a
// reference to a later step is unresolvable by construction.
type ResolveContext struct {
	OwnerID string
	Outputs map[string]any
}

// Resolver turns declared input mappings into concrete values immediately
// before a step runs.
type Resolver struct {
	vault Vault
}

func NewResolver(vault Vault) *Resolver {
	return &Resolver{vault: vault}
}

// Resolve produces the concrete value for one input mapping.
func (r *Resolver) Resolve(ctx context.Context, mapping models.InputMapping, rc *ResolveContext) (any, error) {
	switch mapping.Kind {
	case models.InputStatic:
		return mapping.Value, nil
	case models.InputReference:
		output, ok := rc.Outputs[mapping.StepID]
		if !ok {
			return nil, &ReferenceError{StepID: mapping.StepID, Path: mapping.Path, Reason: "step has no recorded output"}
		}
		if mapping.Path == "" {
			return output, nil
		}
		value, err := traversePath(output, mapping.Path)
		if err != nil {
			return nil, &ReferenceError{StepID: mapping.StepID, Path: mapping.Path, Reason: err.Error()}
		}
		return value, nil
	case models.InputCredential:
		secret, err := r.vault.Decrypt(ctx, rc.OwnerID, mapping.Name)
		if err != nil {
			return nil, err
		}
		return secret, nil
	default:
		return nil, &ConfigurationError{Reason: fmt.Sprintf("unknown input mapping kind %q", mapping.Kind)}
	}
}

// ResolveAll resolves every declared parameter of a step. The returned map
// is handed to the dispatcher only and is never persisted.
func (r *Resolver) ResolveAll(ctx context.Context, inputs map[string]models.InputMapping, rc *ResolveContext) (map[string]any, error) {
	resolved := make(map[string]any, len(inputs))
	for name, mapping := range inputs {
		value, err := r.Resolve(ctx, mapping, rc)
		if err != nil {
			return nil, fmt.Errorf("input %q: %w", name, err)
		}
		resolved[name] = value
	}
	return resolved, nil
}

// traversePath walks a dot path into a JSON-like value tree. Map segments
// are looked up by key; slice segments must be decimal indexes.
func traversePath(value any, path string) (any, error) {
	current := value
	for _, segment := range strings.Split(path, ".") {
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[segment]
			if !ok {
				return nil, fmt.Errorf("key %q is absent", segment)
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil {
				return nil, fmt.Errorf("segment %q is not a valid index", segment)
			}
			if idx < 0 || idx >= len(v) {
				return nil, fmt.Errorf("index %d out of range", idx)
			}
			current = v[idx]
		default:
			return nil, fmt.Errorf("segment %q cannot be traversed into a scalar", segment)
		}
	}
	return current, nil
}
