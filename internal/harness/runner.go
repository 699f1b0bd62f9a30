package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	"github.com/softgrove/graft/internal/dispatch"
)

// Runner executes scenarios against one dispatcher.
type Runner struct {
	dispatcher *dispatch.Dispatcher
}

// NewRunner wraps a dispatcher for scenario execution.
func NewRunner(d *dispatch.Dispatcher) *Runner {
	return &Runner{dispatcher: d}
}

// Report summarizes one scenario run.
type Report struct {
	Scenario string
	Steps    []StepResult

	// Envelopes holds every envelope in step order, suitable for
	// golden-file comparison of a whole run.
	Envelopes []dispatch.Envelope
}

// StepResult records one step's outcome.
type StepResult struct {
	Index    int
	Op       string
	Envelope dispatch.Envelope
	Failures []string
}

// Passed reports whether every step met its expectation.
func (r *Report) Passed() bool {
	for _, step := range r.Steps {
		if len(step.Failures) > 0 {
			return false
		}
	}
	return true
}

// Failures flattens step failures into printable lines.
func (r *Report) Failures() []string {
	var out []string
	for _, step := range r.Steps {
		for _, f := range step.Failures {
			out = append(out, fmt.Sprintf("step %d (%s): %s", step.Index, step.Op, f))
		}
	}
	return out
}

// Run executes every step of one scenario. All steps run even after an
// expectation fails; only a context error stops the run early.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Report, error) {
	report := &Report{Scenario: sc.Name}
	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		actor := step.Actor
		if actor == "" {
			actor = sc.Actor
		}
		env := r.dispatcher.Dispatch(ctx, step.Op, dispatch.Payload(step.Payload), actor)

		result := StepResult{
			Index:    i + 1,
			Op:       step.Op,
			Envelope: env,
			Failures: checkExpect(step.Expect, env),
		}
		report.Steps = append(report.Steps, result)
		report.Envelopes = append(report.Envelopes, env)
	}
	return report, nil
}

// checkExpect compares one envelope against a step expectation.
func checkExpect(exp *Expect, env dispatch.Envelope) []string {
	var failures []string

	if want := exp.wantOK(); env.OK != want {
		detail := ""
		if env.Error != nil {
			detail = fmt.Sprintf(" (%s: %s)", env.Error.Kind, env.Error.Message)
		}
		failures = append(failures, fmt.Sprintf("ok = %v, want %v%s", env.OK, want, detail))
	}

	if exp == nil {
		return failures
	}

	if exp.Error != "" {
		switch {
		case env.Error == nil:
			failures = append(failures, fmt.Sprintf("no error, want kind %q", exp.Error))
		case env.Error.Kind != exp.Error:
			failures = append(failures, fmt.Sprintf("error kind = %q, want %q", env.Error.Kind, exp.Error))
		}
	}

	if len(exp.Result) > 0 {
		got, err := normalize(env.Result)
		if err != nil {
			failures = append(failures, fmt.Sprintf("result not comparable: %v", err))
			return failures
		}
		gotMap, ok := got.(map[string]any)
		if !ok {
			failures = append(failures, fmt.Sprintf("result is %T, want object", env.Result))
			return failures
		}
		for _, f := range matchSubset("result", exp.Result, gotMap) {
			failures = append(failures, f)
		}
	}

	return failures
}

// matchSubset requires every want key to be present and deep-equal in
// got, after both sides pass through JSON normalization. Nested maps
// recurse so an expectation can pin one field of a nested object.
func matchSubset(path string, want map[string]any, got map[string]any) []string {
	keys := make([]string, 0, len(want))
	for key := range want {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var failures []string
	for _, key := range keys {
		wantVal := want[key]
		keyPath := path + "." + key
		gotVal, ok := got[key]
		if !ok {
			failures = append(failures, fmt.Sprintf("%s: missing, want %v", keyPath, wantVal))
			continue
		}
		wantNorm, err := normalize(wantVal)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: expectation not comparable: %v", keyPath, err))
			continue
		}
		if wantMap, ok := wantNorm.(map[string]any); ok {
			if gotMap, ok := gotVal.(map[string]any); ok {
				failures = append(failures, matchSubset(keyPath, wantMap, gotMap)...)
				continue
			}
			failures = append(failures, fmt.Sprintf("%s = %v, want object", keyPath, gotVal))
			continue
		}
		if !reflect.DeepEqual(wantNorm, gotVal) {
			failures = append(failures, fmt.Sprintf("%s = %v, want %v", keyPath, gotVal, wantNorm))
		}
	}
	return failures
}

// normalize round-trips a value through JSON so handler structs, YAML
// maps, and numbers all compare in one representation.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
