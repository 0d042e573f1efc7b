package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/redg/internal/wire"
)

// TraceSnapshot is the golden-file form of a run.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Session      string       `json:"session"`
	Trace        []TraceEvent `json:"trace"`
	StateHash    string       `json:"state_hash,omitempty"`
}

// toCanonicalMap flattens the snapshot into plain values. Absent payloads
// and errors are omitted; a null payload is kept.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		m := map[string]any{
			"seq": ev.Seq,
			"ref": ev.Ref,
		}
		if ev.Type != "" {
			m["type"] = ev.Type
		}
		if ev.HasPayload {
			m["payload"] = ev.Payload
		}
		if ev.Error != "" {
			m["error"] = ev.Error
		}
		trace[i] = m
	}

	out := map[string]any{
		"scenario_name": s.ScenarioName,
		"session":       s.Session,
		"trace":         trace,
	}
	if s.StateHash != "" {
		out["state_hash"] = s.StateHash
	}
	return out
}

// MarshalSnapshot renders a snapshot as canonical JSON.
func MarshalSnapshot(s *TraceSnapshot) ([]byte, error) {
	return wire.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its trace with
// testdata/golden/<scenario.Name>.golden. Regenerate with -update.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := assertSnapshot(t, scenario.Name, NewSnapshot(scenario, result)); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace with a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	return assertSnapshot(t, scenarioName, &TraceSnapshot{
		ScenarioName: scenarioName,
		Session:      result.Session,
		Trace:        result.Trace,
		StateHash:    result.StateHash,
	})
}

func assertSnapshot(t *testing.T, name string, s *TraceSnapshot) error {
	t.Helper()

	data, err := MarshalSnapshot(s)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}

// NewSnapshot builds the snapshot of a finished run.
func NewSnapshot(scenario *Scenario, result *Result) *TraceSnapshot {
	return &TraceSnapshot{
		ScenarioName: scenario.Name,
		Session:      result.Session,
		Trace:        result.Trace,
		StateHash:    result.StateHash,
	}
}

// GoldenPath returns the golden file of a scenario file:
// <dir>/golden/<base>.golden.
func GoldenPath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

// WriteGolden writes the snapshot to path, creating its directory.
func WriteGolden(path string, s *TraceSnapshot) error {
	data, err := MarshalSnapshot(s)
	if err != nil {
		return fmt.Errorf("failed to marshal trace: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// CompareGolden reports whether the snapshot matches the golden file byte
// for byte. A missing file is returned as an fs.ErrNotExist error.
func CompareGolden(path string, s *TraceSnapshot) (bool, error) {
	want, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	got, err := MarshalSnapshot(s)
	if err != nil {
		return false, fmt.Errorf("failed to marshal trace: %w", err)
	}
	return bytes.Equal(want, got), nil
}
