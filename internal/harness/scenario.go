package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario is a conformance scenario: slices to load, actions to dispatch
// and assertions on the resulting trace and state.
type Scenario struct {
	// Name identifies the scenario and its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario checks.
	Description string `yaml:"description"`

	// Specs is the CUE package directory, relative to the scenario file.
	Specs string `yaml:"specs"`

	// Session pins the engine session. Empty means testutil.DefaultSession.
	Session string `yaml:"session,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step dispatches one action through the bound creator tree.
type Step struct {
	// Dispatch is the action reference, "slice.key".
	Dispatch string `yaml:"dispatch"`

	// Payload is passed as the creator's single argument when present.
	// An explicit null is a present payload.
	Payload yaml.Node `yaml:"payload,omitempty"`

	// Expect maps slice names to the expected slice state (subset match)
	// right after this step.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Error, when set, means the dispatch must fail with an error whose
	// text contains this substring.
	Error string `yaml:"error,omitempty"`
}

// HasPayload reports whether the step carries a payload key.
func (s Step) HasPayload() bool {
	return s.Payload.Kind != 0
}

// PayloadValue decodes the payload node.
func (s Step) PayloadValue() (any, error) {
	if !s.HasPayload() {
		return nil, nil
	}
	var v any
	if err := s.Payload.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return v, nil
}

// Assertion validates the trace or the final state.
type Assertion struct {
	Type string `yaml:"type"`

	// Action is an action type ("counter/add") or reference ("counter.add").
	// Used by trace_contains and trace_count.
	Action string `yaml:"action,omitempty"`

	// Payload narrows trace_contains to events whose payload matches
	// (subset match for objects).
	Payload any `yaml:"payload,omitempty"`

	// Actions is the expected relative order (trace_order).
	Actions []string `yaml:"actions,omitempty"`

	// Count is the exact number of committed occurrences (trace_count).
	Count *int `yaml:"count,omitempty"`

	// Slice and Expect describe a final_state check; an empty Slice
	// compares Expect against the whole root state.
	Slice  string `yaml:"slice,omitempty"`
	Expect any    `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads a scenario file. The specs directory is resolved
// relative to the file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario decodes scenario YAML, rejecting unknown fields, and
// resolves a relative specs directory against baseDir.
func ParseScenario(data []byte, baseDir string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Specs != "" && !filepath.IsAbs(scenario.Specs) && baseDir != "" {
		scenario.Specs = filepath.Join(baseDir, scenario.Specs)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Specs == "" {
		return fmt.Errorf("specs directory is required")
	}
	info, err := os.Stat(s.Specs)
	if err != nil {
		return fmt.Errorf("specs directory not found: %s", s.Specs)
	}
	if !info.IsDir() {
		return fmt.Errorf("specs is not a directory: %s", s.Specs)
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Dispatch == "" {
			return fmt.Errorf("steps[%d]: dispatch is required", i)
		}
		if name, key, ok := strings.Cut(step.Dispatch, "."); !ok || name == "" || key == "" {
			return fmt.Errorf("steps[%d]: dispatch %q must be slice.key", i, step.Dispatch)
		}
		if step.Error != "" && len(step.Expect) > 0 {
			return fmt.Errorf("steps[%d]: error and expect are mutually exclusive", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) < 2 {
			return fmt.Errorf("assertions[%d]: trace_order needs at least two actions", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for trace_count", index)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertFinalState:
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
