package runner

import (
	"context"
	"strings"
	"testing"
	"time"
)

const echoScript = `
func Run(inputs map[string]any) (map[string]any, error) {
	return map[string]any{"echo": inputs["msg"]}, nil
}
`

func TestExecuteRunsScript(t *testing.T) {
	r := New(5 * time.Second)

	res := r.Execute(context.Background(), echoScript, map[string]any{"msg": "hello"})
	if !res.Success {
		t.Fatalf("script failed: %s", res.Error)
	}
	if res.Output["echo"] != "hello" {
		t.Errorf("output = %v, want the echoed input", res.Output)
	}
}

func TestExecuteScriptError(t *testing.T) {
	r := New(5 * time.Second)

	src := `
import "errors"

func Run(inputs map[string]any) (map[string]any, error) {
	return nil, errors.New("intentional failure")
}
`
	res := r.Execute(context.Background(), src, nil)
	if res.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(res.Error, "intentional failure") {
		t.Errorf("error = %q", res.Error)
	}
}

func TestExecuteRejectsInvalidSource(t *testing.T) {
	r := New(5 * time.Second)

	res := r.Execute(context.Background(), "this is not go", nil)
	if res.Success {
		t.Fatal("expected failure for invalid source")
	}
}

func TestExecuteRequiresRunFunction(t *testing.T) {
	r := New(5 * time.Second)

	res := r.Execute(context.Background(), `func Other() {}`, nil)
	if res.Success {
		t.Fatal("expected failure when Run is absent")
	}
	if !strings.Contains(res.Error, "Run") {
		t.Errorf("error = %q, want it to name the required function", res.Error)
	}
}

func TestExecuteContainsScriptPanic(t *testing.T) {
	r := New(5 * time.Second)

	src := `
func Run(inputs map[string]any) (map[string]any, error) {
	panic("script exploded")
}
`
	res := r.Execute(context.Background(), src, nil)
	if res.Success {
		t.Fatal("expected failure for a panicking script")
	}
	if !strings.Contains(res.Error, "panic") {
		t.Errorf("error = %q", res.Error)
	}
}

func TestExecuteTimesOut(t *testing.T) {
	r := New(100 * time.Millisecond)

	src := `
import "time"

func Run(inputs map[string]any) (map[string]any, error) {
	time.Sleep(10 * time.Second)
	return nil, nil
}
`
	start := time.Now()
	res := r.Execute(context.Background(), src, nil)
	if res.Success {
		t.Fatal("expected a timeout failure")
	}
	if !strings.Contains(res.Error, "timeout") {
		t.Errorf("error = %q", res.Error)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Execute did not return promptly on timeout")
	}
}

func TestExecuteHonorsContextCancellation(t *testing.T) {
	r := New(10 * time.Second)

	src := `
import "time"

func Run(inputs map[string]any) (map[string]any, error) {
	time.Sleep(10 * time.Second)
	return nil, nil
}
`
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	res := r.Execute(ctx, src, nil)
	if res.Success {
		t.Fatal("expected a cancellation failure")
	}
	if !strings.Contains(res.Error, "cancelled") {
		t.Errorf("error = %q", res.Error)
	}
}
