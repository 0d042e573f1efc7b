package harness

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// SuiteOptions controls RunSuite.
type SuiteOptions struct {
	// Filter is a filepath.Match pattern applied to scenario file names
	// without extension. Empty matches everything.
	Filter string

	// Update rewrites golden files instead of comparing against them.
	Update bool
}

// SuiteResult summarises a batch of scenario runs.
type SuiteResult struct {
	Total     int              `json:"total"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Scenarios []ScenarioReport `json:"scenarios"`
}

// ScenarioReport is the outcome of one scenario file.
type ScenarioReport struct {
	Path      string   `json:"path"`
	Name      string   `json:"name"`
	Pass      bool     `json:"pass"`
	Committed int      `json:"committed"`
	Golden    string   `json:"golden,omitempty"` // match | mismatch | missing | updated
	Errors    []string `json:"errors,omitempty"`
}

// FindScenarios expands files and directories into a sorted list of
// .yaml/.yml scenario files. Directories are walked recursively, skipping
// golden/ subdirectories.
func FindScenarios(paths []string, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	var files []string
	add := func(path string) {
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			if ok, _ := filepath.Match(filter, name); !ok {
				return
			}
		}
		files = append(files, path)
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("scenario path not found: %s", root)
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != root && d.Name() == "golden" {
					return filepath.SkipDir
				}
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("error scanning %s: %w", root, err)
		}
	}

	slices.Sort(files)
	return slices.Compact(files), nil
}

// RunSuite loads and runs every scenario file. Scenarios with a golden file
// next to them (see GoldenPath) must also match it; with opts.Update the
// golden file is rewritten instead.
func RunSuite(ctx context.Context, files []string, opts SuiteOptions) *SuiteResult {
	result := &SuiteResult{Scenarios: make([]ScenarioReport, 0, len(files))}

	for _, file := range files {
		report := runScenarioFile(ctx, file, opts)
		result.Total++
		if report.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, report)
	}
	return result
}

func runScenarioFile(ctx context.Context, file string, opts SuiteOptions) ScenarioReport {
	report := ScenarioReport{Path: file, Name: filepath.Base(file)}
	fail := func(format string, args ...any) ScenarioReport {
		report.Pass = false
		report.Errors = append(report.Errors, fmt.Sprintf(format, args...))
		return report
	}

	scenario, err := LoadScenario(file)
	if err != nil {
		return fail("failed to load scenario: %v", err)
	}
	report.Name = scenario.Name

	run, err := RunContext(ctx, scenario)
	if err != nil {
		return fail("execution failed: %v", err)
	}
	report.Pass = run.Pass
	report.Errors = run.Errors
	report.Committed = len(run.Committed())

	golden := GoldenPath(file)
	snapshot := NewSnapshot(scenario, run)
	if opts.Update {
		if err := WriteGolden(golden, snapshot); err != nil {
			return fail("failed to update golden file: %v", err)
		}
		report.Golden = "updated"
		return report
	}

	match, err := CompareGolden(golden, snapshot)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		report.Golden = "missing"
	case err != nil:
		return fail("golden comparison failed: %v", err)
	case !match:
		report.Golden = "mismatch"
		return fail("trace does not match golden file %s (run with --update to regenerate)", golden)
	default:
		report.Golden = "match"
	}
	return report
}
