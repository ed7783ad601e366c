package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestStepDefinitionRoundTrip(t *testing.T) {
	steps := []StepDefinition{
		{
			ID:     "fetch",
			Kind:   StepKindScript,
			Target: "script-1",
			Label:  "Fetch rows",
			Inputs: map[string]InputMapping{
				"limit": {Kind: InputStatic, Value: float64(10)},
				"token": {Kind: InputCredential, Name: "api-token"},
			},
		},
		{
			ID:     "summarize",
			Kind:   StepKindSkill,
			Target: "summarize",
			Tools:  []string{"web_search"},
			Inputs: map[string]InputMapping{
				"rows": {Kind: InputReference, StepID: "fetch", Path: "result.rows"},
			},
		},
		{
			ID:        "send",
			Kind:      StepKindNotify,
			Target:    "webhook",
			Recipient: &Recipient{Address: "https://example.com/hook"},
			Inputs: map[string]InputMapping{
				"summary": {Kind: InputReference, StepID: "summarize"},
			},
		},
	}

	encoded, err := EncodeSteps(steps)
	if err != nil {
		t.Fatalf("EncodeSteps: %v", err)
	}
	decoded, err := DecodeSteps(encoded)
	if err != nil {
		t.Fatalf("DecodeSteps: %v", err)
	}

	reencoded, err := EncodeSteps(decoded)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if encoded != reencoded {
		t.Errorf("round trip changed the wire form:\n first: %s\nsecond: %s", encoded, reencoded)
	}

	if decoded[0].Inputs["limit"].Value != float64(10) {
		t.Errorf("static value = %v, want 10", decoded[0].Inputs["limit"].Value)
	}
	if decoded[1].Inputs["rows"].StepID != "fetch" || decoded[1].Inputs["rows"].Path != "result.rows" {
		t.Errorf("reference mapping = %+v", decoded[1].Inputs["rows"])
	}
	if decoded[0].Inputs["token"].Name != "api-token" {
		t.Errorf("credential mapping = %+v", decoded[0].Inputs["token"])
	}
}

// Falsy static values must survive serialization; omitting them would turn
// false and 0 into absent values on reload.
func TestStaticInputKeepsFalsyValues(t *testing.T) {
	for _, value := range []any{false, float64(0), ""} {
		m := InputMapping{Kind: InputStatic, Value: value}
		data, err := json.Marshal(m)
		if err != nil {
			t.Fatalf("marshal %v: %v", value, err)
		}
		var back InputMapping
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if back.Value != value {
			t.Errorf("value %v round-tripped to %v", value, back.Value)
		}
	}
}

func TestInputMappingRejectsInvalidWire(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"unknown type", `{"type":"magic","value":1}`},
		{"reference without stepId", `{"type":"reference","path":"a.b"}`},
		{"credential without name", `{"type":"credential"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var m InputMapping
			if err := json.Unmarshal([]byte(tc.data), &m); err == nil {
				t.Errorf("unmarshal %s succeeded, want error", tc.data)
			}
		})
	}
}

func TestDecodeStepsValidation(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{"not json", `{{{`, "not valid JSON"},
		{"not an array", `{"id":"a"}`, "not valid JSON"},
		{"missing id", `[{"kind":"script","target":"s"}]`, "no id"},
		{"duplicate ids", `[{"id":"a","kind":"script","target":"s"},{"id":"a","kind":"script","target":"s"}]`, "duplicate step id"},
		{"unknown kind", `[{"id":"a","kind":"teleport","target":"s"}]`, "unknown kind"},
		{"missing target", `[{"id":"a","kind":"script"}]`, "no target"},
		{"tools on non-skill", `[{"id":"a","kind":"script","target":"s","tools":["web_search"]}]`, "not a skill step"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeSteps(tc.raw)
			if err == nil {
				t.Fatalf("DecodeSteps(%s) succeeded, want error", tc.raw)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %q, want it to mention %q", err.Error(), tc.wantErr)
			}
		})
	}

	steps, err := DecodeSteps(`[{"id":"a","kind":"skill","target":"summarize","tools":["web_search"]}]`)
	if err != nil {
		t.Fatalf("valid sequence rejected: %v", err)
	}
	if len(steps) != 1 || steps[0].Kind != StepKindSkill {
		t.Errorf("decoded = %+v", steps)
	}
}

// EncodeSteps is the write boundary; an invalid sequence must be rejected
// there, never stored and discovered at run time.
func TestEncodeStepsRejectsInvalidSequences(t *testing.T) {
	cases := []struct {
		name    string
		steps   []StepDefinition
		wantErr string
	}{
		{
			"duplicate ids",
			[]StepDefinition{
				{ID: "a", Kind: StepKindScript, Target: "s1"},
				{ID: "a", Kind: StepKindScript, Target: "s2"},
			},
			"duplicate step id",
		},
		{
			"unknown kind",
			[]StepDefinition{{ID: "a", Kind: "teleport", Target: "s"}},
			"unknown kind",
		},
		{
			"missing target",
			[]StepDefinition{{ID: "a", Kind: StepKindScript}},
			"no target",
		},
		{
			"tools on non-skill",
			[]StepDefinition{{ID: "a", Kind: StepKindNotify, Target: "webhook", Tools: []string{"web_search"}}},
			"not a skill step",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := EncodeSteps(tc.steps)
			if err == nil {
				t.Fatalf("EncodeSteps succeeded, want error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %q, want it to mention %q", err.Error(), tc.wantErr)
			}
		})
	}
}

func TestStepResultsRoundTrip(t *testing.T) {
	results := []StepResult{
		{StepID: "step1", Status: StepStatusCompleted, DurationMs: 12, Output: map[string]any{"n": float64(1)}},
		{StepID: "step2", Status: StepStatusFailed, DurationMs: 3, Error: "step step2 failed: boom"},
		{StepID: "step3", Status: StepStatusSkipped},
	}
	encoded, err := EncodeStepResults(results)
	if err != nil {
		t.Fatalf("EncodeStepResults: %v", err)
	}
	decoded, err := DecodeStepResults(encoded)
	if err != nil {
		t.Fatalf("DecodeStepResults: %v", err)
	}
	if len(decoded) != 3 {
		t.Fatalf("decoded %d results, want 3", len(decoded))
	}
	if decoded[1].Error != results[1].Error {
		t.Errorf("error = %q", decoded[1].Error)
	}
	if decoded[2].Output != nil || decoded[2].Error != "" {
		t.Errorf("skipped step carries output or error: %+v", decoded[2])
	}
}
