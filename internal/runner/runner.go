package runner

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/hiveflow/hiveflow/internal/engine"
)

const runFuncName = "Run"

// Runner executes user script source in an embedded interpreter. A script
// must define Run(inputs map[string]any) (map[string]any, error). Execute
// always returns within the configured timeout and never propagates a
// script error or panic.
type Runner struct {
	timeout time.Duration
}

func New(timeout time.Duration) *Runner {
	return &Runner{timeout: timeout}
}

// Execute implements engine.ScriptRunner.
func (r *Runner) Execute(ctx context.Context, source string, inputs map[string]any) engine.ScriptResult {
	start := time.Now()
	done := make(chan engine.ScriptResult, 1)

	go func() {
		done <- runScript(source, inputs, start)
	}()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		return failure(start, fmt.Sprintf("script cancelled: %v", ctx.Err()))
	case <-time.After(r.timeout):
		// The interpreter goroutine keeps running to completion; yaegi has
		// no preemption, so the timeout only unblocks the caller.
		slog.Warn("Script exceeded timeout", "timeout", r.timeout.String())
		return failure(start, fmt.Sprintf("script exceeded timeout of %s", r.timeout))
	}
}

func runScript(source string, inputs map[string]any, start time.Time) (result engine.ScriptResult) {
	defer func() {
		if rec := recover(); rec != nil {
			result = failure(start, fmt.Sprintf("script panic: %v", rec))
		}
	}()

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return failure(start, fmt.Sprintf("interpreter setup: %v", err))
	}
	if _, err := i.Eval(source); err != nil {
		return failure(start, fmt.Sprintf("script does not compile: %v", err))
	}

	fnValue, err := i.Eval(runFuncName)
	if err != nil {
		return failure(start, fmt.Sprintf("script must define %s(inputs map[string]any) (map[string]any, error): %v", runFuncName, err))
	}
	output, callErr := invokeRunFunc(fnValue, inputs)
	if callErr != nil {
		return failure(start, callErr.Error())
	}
	return engine.ScriptResult{
		Success:    true,
		Output:     output,
		DurationMs: time.Since(start).Milliseconds(),
	}
}

func invokeRunFunc(value reflect.Value, inputs map[string]any) (map[string]any, error) {
	if !value.IsValid() || value.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s is not a function", runFuncName)
	}
	if value.Type().NumIn() != 1 {
		return nil, fmt.Errorf("%s must take exactly one parameter", runFuncName)
	}

	if inputs == nil {
		inputs = map[string]any{}
	}
	results := value.Call([]reflect.Value{reflect.ValueOf(inputs)})
	if len(results) != 2 {
		return nil, fmt.Errorf("%s must return (map[string]any, error)", runFuncName)
	}
	if !results[1].IsNil() {
		if e, ok := results[1].Interface().(error); ok && e != nil {
			return nil, fmt.Errorf("script error: %w", e)
		}
		return nil, fmt.Errorf("%s returned a non-error second value", runFuncName)
	}
	output, ok := results[0].Interface().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s must return map[string]any, got %T", runFuncName, results[0].Interface())
	}
	return output, nil
}

func failure(start time.Time, msg string) engine.ScriptResult {
	return engine.ScriptResult{
		Success:    false,
		Error:      msg,
		DurationMs: time.Since(start).Milliseconds(),
	}
}

var _ engine.ScriptRunner = (*Runner)(nil)
