package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hiveflow/hiveflow/internal/models"
)

func TestResolveStatic(t *testing.T) {
	r := NewResolver(&MockVault{})
	rc := &ResolveContext{OwnerID: "user-1", Outputs: map[string]any{}}

	for _, value := range []any{"hello", float64(0), false, nil} {
		got, err := r.Resolve(context.Background(), models.InputMapping{Kind: models.InputStatic, Value: value}, rc)
		require.NoError(t, err)
		assert.Equal(t, value, got)
	}
}

func TestResolveReferencePath(t *testing.T) {
	r := NewResolver(&MockVault{})
	rc := &ResolveContext{
		OwnerID: "user-1",
		Outputs: map[string]any{
			"step1": map[string]any{
				"result": map[string]any{"rows": []any{1, 2, 3}},
			},
		},
	}

	got, err := r.Resolve(context.Background(), models.InputMapping{
		Kind: models.InputReference, StepID: "step1", Path: "result.rows",
	}, rc)
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2, 3}, got)

	// empty path yields the whole output
	whole, err := r.Resolve(context.Background(), models.InputMapping{
		Kind: models.InputReference, StepID: "step1",
	}, rc)
	require.NoError(t, err)
	assert.Equal(t, rc.Outputs["step1"], whole)

	// index segments traverse slices
	second, err := r.Resolve(context.Background(), models.InputMapping{
		Kind: models.InputReference, StepID: "step1", Path: "result.rows.1",
	}, rc)
	require.NoError(t, err)
	assert.Equal(t, 2, second)
}

func TestResolveReferenceErrors(t *testing.T) {
	r := NewResolver(&MockVault{})
	rc := &ResolveContext{
		OwnerID: "user-1",
		Outputs: map[string]any{
			"step1": map[string]any{"value": "scalar"},
		},
	}

	cases := []struct {
		name    string
		mapping models.InputMapping
	}{
		{"unknown step", models.InputMapping{Kind: models.InputReference, StepID: "ghost", Path: "x"}},
		{"missing key", models.InputMapping{Kind: models.InputReference, StepID: "step1", Path: "absent"}},
		{"traverse into scalar", models.InputMapping{Kind: models.InputReference, StepID: "step1", Path: "value.deeper"}},
		{"bad index", models.InputMapping{Kind: models.InputReference, StepID: "step1", Path: "value.notanumber"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), tc.mapping, rc)
			var refErr *ReferenceError
			require.ErrorAs(t, err, &refErr)
		})
	}
}

func TestResolveCredential(t *testing.T) {
	vault := &MockVault{
		DecryptFunc: func(ctx context.Context, ownerID string, name string) (string, error) {
			if ownerID == "user-1" && name == "api-token" {
				return "opened", nil
			}
			return "", &CredentialNotFoundError{Name: name}
		},
	}
	r := NewResolver(vault)
	rc := &ResolveContext{OwnerID: "user-1", Outputs: map[string]any{}}

	got, err := r.Resolve(context.Background(), models.InputMapping{Kind: models.InputCredential, Name: "api-token"}, rc)
	require.NoError(t, err)
	assert.Equal(t, "opened", got)

	_, err = r.Resolve(context.Background(), models.InputMapping{Kind: models.InputCredential, Name: "unknown"}, rc)
	var notFound *CredentialNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "unknown", notFound.Name)
}

func TestResolveAllNamesFailingInput(t *testing.T) {
	r := NewResolver(&MockVault{})
	rc := &ResolveContext{OwnerID: "user-1", Outputs: map[string]any{}}

	inputs := map[string]models.InputMapping{
		"greeting": {Kind: models.InputStatic, Value: "hi"},
		"data":     {Kind: models.InputReference, StepID: "ghost"},
	}
	_, err := r.ResolveAll(context.Background(), inputs, rc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `input "data"`)

	var refErr *ReferenceError
	assert.True(t, errors.As(err, &refErr))
}
