package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/redg/internal/harness"
)

func TestTestCommandPassing(t *testing.T) {
	out, err := execute(t, testConfig(t), "test", "testdata/scenarios/counter_pass.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ counter_pass (2 committed, golden missing)")
	assert.Contains(t, out, "Results: 1 passed, 0 failed, 1 total")
}

func TestTestCommandFailing(t *testing.T) {
	out, err := execute(t, testConfig(t), "test", "testdata/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ counter_fail")
	assert.Contains(t, out, "✓ counter_pass")
	assert.Contains(t, out, "Results: 1 passed, 1 failed, 2 total")
	assert.Contains(t, out, "Error [E_TEST_FAILED]")
}

func TestTestCommandFilterJSON(t *testing.T) {
	out, err := execute(t, testConfig(t), "test", "testdata/scenarios", "--filter", "*_pass", "--format", "json")
	require.NoError(t, err)

	var result harness.SuiteResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Scenarios, 1)
	assert.Equal(t, "counter_pass", result.Scenarios[0].Name)
	assert.Equal(t, 2, result.Scenarios[0].Committed)
}

func TestTestCommandFailureJSON(t *testing.T) {
	out, err := execute(t, testConfig(t), "test", "testdata/scenarios/counter_fail.yaml", "--format", "json")
	require.Error(t, err)

	var result harness.SuiteResult
	resp := decodeResponse(t, out, &result)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	require.Len(t, result.Scenarios, 1)
	assert.False(t, result.Scenarios[0].Pass)
	assert.NotEmpty(t, result.Scenarios[0].Errors)
}

func TestTestCommandBadPaths(t *testing.T) {
	out, err := execute(t, testConfig(t), "test", "testdata/nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "scenario path not found")

	out, err = execute(t, testConfig(t), "test", "testdata/scenarios", "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "invalid filter pattern")
}

func TestTestCommandNoScenarios(t *testing.T) {
	out, err := execute(t, testConfig(t), "test", "testdata/scenarios", "--filter", "zzz*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}
