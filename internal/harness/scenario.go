package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one YAML test scenario.
type Scenario struct {
	// Name uniquely identifies the scenario in reports.
	Name string `yaml:"name"`

	// Description explains what behavior the scenario pins down.
	Description string `yaml:"description,omitempty"`

	// Actor is the default acting principal for every step.
	Actor string `yaml:"actor,omitempty"`

	// Steps run in order; a failed expectation does not stop the run,
	// so one report shows every divergence.
	Steps []Step `yaml:"steps"`
}

// Step is one dispatched operation plus its expectation.
type Step struct {
	// Op is the verb name.
	Op string `yaml:"op"`

	// Payload is the operation's argument map.
	Payload map[string]any `yaml:"payload,omitempty"`

	// Actor overrides the scenario-level actor for this step.
	Actor string `yaml:"actor,omitempty"`

	// Expect is checked against the envelope. A nil Expect means the
	// step must simply succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the envelope a step must produce.
type Expect struct {
	// OK is the expected envelope status. Defaults to true, or false
	// when Error is set.
	OK *bool `yaml:"ok,omitempty"`

	// Error is the expected error kind for failing steps.
	Error string `yaml:"error,omitempty"`

	// Result is a subset match: every listed key must appear in the
	// envelope result with a deep-equal value; extra result fields are
	// ignored.
	Result map[string]any `yaml:"result,omitempty"`
}

// wantOK resolves the expected status.
func (e *Expect) wantOK() bool {
	if e == nil {
		return true
	}
	if e.OK != nil {
		return *e.OK
	}
	return e.Error == ""
}

// LoadScenario reads and validates one scenario file. Decoding is
// strict so a typo in a step field fails the load, not the assertion.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	if sc.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", path)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s: at least one step is required", path)
	}
	for i, step := range sc.Steps {
		if step.Op == "" {
			return nil, fmt.Errorf("scenario %s: step %d: op is required", path, i+1)
		}
	}
	return &sc, nil
}

// LoadScenarios loads several files, failing on the first bad one.
func LoadScenarios(paths ...string) ([]*Scenario, error) {
	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		sc, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}
