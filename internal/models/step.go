package models

import (
	"encoding/json"
	"fmt"
)

// StepKind discriminates the three unit-of-work variants.
type StepKind string

const (
	StepKindScript StepKind = "script"
	StepKindSkill  StepKind = "skill"
	StepKindNotify StepKind = "notify"
)

// InputKind discriminates the source of a step parameter value.
type InputKind string

const (
	InputStatic     InputKind = "static"
	InputReference  InputKind = "reference"
	InputCredential InputKind = "credential"
)

// InputMapping is the tagged variant describing where a parameter value
// comes from: a literal, a dot-path into a prior step's output, or a named
// credential resolved from the vault at execution time.
type InputMapping struct {
	Kind   InputKind
	Value  any    // static literal
	StepID string // reference source step
	Path   string // reference dot path, may be empty for the whole output
	Name   string // credential name
}

type staticWire struct {
	Type  InputKind `json:"type"`
	Value any       `json:"value"`
}

type referenceWire struct {
	Type   InputKind `json:"type"`
	StepID string    `json:"stepId"`
	Path   string    `json:"path,omitempty"`
}

type credentialWire struct {
	Type InputKind `json:"type"`
	Name string    `json:"name"`
}

func (m InputMapping) MarshalJSON() ([]byte, error) {
	switch m.Kind {
	case InputStatic:
		return json.Marshal(staticWire{Type: m.Kind, Value: m.Value})
	case InputReference:
		return json.Marshal(referenceWire{Type: m.Kind, StepID: m.StepID, Path: m.Path})
	case InputCredential:
		return json.Marshal(credentialWire{Type: m.Kind, Name: m.Name})
	default:
		return nil, fmt.Errorf("unknown input mapping kind: %q", m.Kind)
	}
}

func (m *InputMapping) UnmarshalJSON(data []byte) error {
	var wire struct {
		Type   InputKind       `json:"type"`
		Value  json.RawMessage `json:"value"`
		StepID string          `json:"stepId"`
		Path   string          `json:"path"`
		Name   string          `json:"name"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch wire.Type {
	case InputStatic:
		var value any
		if len(wire.Value) > 0 {
			if err := json.Unmarshal(wire.Value, &value); err != nil {
				return fmt.Errorf("static input value: %w", err)
			}
		}
		*m = InputMapping{Kind: InputStatic, Value: value}
	case InputReference:
		if wire.StepID == "" {
			return fmt.Errorf("reference input requires a stepId")
		}
		*m = InputMapping{Kind: InputReference, StepID: wire.StepID, Path: wire.Path}
	case InputCredential:
		if wire.Name == "" {
			return fmt.Errorf("credential input requires a name")
		}
		*m = InputMapping{Kind: InputCredential, Name: wire.Name}
	default:
		return fmt.Errorf("unknown input mapping kind: %q", wire.Type)
	}
	return nil
}

// Recipient is the declared target of a notify step. Either field may be
// empty; when both are, the owner's single linked identity for the channel
// is used instead.
type Recipient struct {
	IdentityID string `json:"identityId,omitempty"`
	Address    string `json:"address,omitempty"`
}

// StepDefinition is one unit of work within a workflow. Target is
// kind-specific: a script id, a skill name or a channel name.
type StepDefinition struct {
	ID        string                  `json:"id"`
	Kind      StepKind                `json:"kind"`
	Target    string                  `json:"target"`
	Label     string                  `json:"label,omitempty"`
	Tools     []string                `json:"tools,omitempty"` //skill steps only
	Recipient *Recipient              `json:"recipient,omitempty"`
	Inputs    map[string]InputMapping `json:"inputs,omitempty"`
}

// ValidateSteps checks a step sequence in full: unique non-empty ids, known
// kinds, non-empty targets and tool allowlists on skill steps only.
func ValidateSteps(steps []StepDefinition) error {
	seen := make(map[string]bool, len(steps))
	for i, step := range steps {
		if step.ID == "" {
			return fmt.Errorf("step %d has no id", i+1)
		}
		if seen[step.ID] {
			return fmt.Errorf("duplicate step id %q", step.ID)
		}
		seen[step.ID] = true
		switch step.Kind {
		case StepKindScript, StepKindSkill, StepKindNotify:
		default:
			return fmt.Errorf("step %q has unknown kind %q", step.ID, step.Kind)
		}
		if step.Target == "" {
			return fmt.Errorf("step %q has no target", step.ID)
		}
		if len(step.Tools) > 0 && step.Kind != StepKindSkill {
			return fmt.Errorf("step %q declares a tool allowlist but is not a skill step", step.ID)
		}
	}
	return nil
}

// DecodeSteps converts the stored JSON step column into the typed model,
// validating it in full. Nothing past this boundary operates on raw JSON.
func DecodeSteps(raw string) ([]StepDefinition, error) {
	var steps []StepDefinition
	if err := json.Unmarshal([]byte(raw), &steps); err != nil {
		return nil, fmt.Errorf("step sequence is not valid JSON: %w", err)
	}
	if err := ValidateSteps(steps); err != nil {
		return nil, err
	}
	return steps, nil
}

// EncodeSteps validates a step sequence and produces the JSON wire form
// stored in the workflow steps column. An invalid sequence never reaches
// storage; it is rejected here, at the write boundary.
func EncodeSteps(steps []StepDefinition) (string, error) {
	if err := ValidateSteps(steps); err != nil {
		return "", err
	}
	data, err := json.Marshal(steps)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
