package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/redg/internal/config"
	"github.com/roach88/redg/internal/journal"
)

// seedJournal dispatches actions into cfg.DB under session.
func seedJournal(t *testing.T, cfg config.Config, session string, actions ...string) {
	t.Helper()
	args := append([]string{"dispatch", counterSpecs, "--session", session}, actions...)
	_, err := execute(t, cfg, args...)
	require.NoError(t, err)
}

func TestReplayDeterministic(t *testing.T) {
	cfg := testConfig(t)
	seedJournal(t, cfg, "s-1", "counter.inc", "counter.add=3")
	seedJournal(t, cfg, "s-2", "counter.reset")

	out, err := execute(t, cfg, "replay", counterSpecs)
	require.NoError(t, err)
	assert.Contains(t, out, "Replayed 2 session(s)")
	assert.Contains(t, out, "✓ s-1: 2 entries, seq 2")
	assert.Contains(t, out, "✓ s-2: 1 entries, seq 1")
	assert.Contains(t, out, "✓ All sessions replay deterministically")
}

func TestReplayJSON(t *testing.T) {
	cfg := testConfig(t)
	seedJournal(t, cfg, "s-1", "counter.inc")

	dispatched, err := execute(t, cfg, "dispatch", counterSpecs, "counter.inc", "--session", "s-1", "--format", "json")
	require.NoError(t, err)
	var last DispatchResult
	decodeResponse(t, dispatched, &last)

	out, err := execute(t, cfg, "replay", counterSpecs, "--format", "json")
	require.NoError(t, err)

	var result ReplayResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, result.AllDeterministic)
	require.Equal(t, 1, result.TotalSessions)
	s := result.Sessions[0]
	assert.Equal(t, "s-1", s.Session)
	assert.Equal(t, 2, s.Entries)
	assert.Equal(t, int64(2), s.Seq)
	assert.Equal(t, last.StateHash, s.StateHash)
	assert.Empty(t, s.Error)
}

func TestReplaySingleSession(t *testing.T) {
	cfg := testConfig(t)
	seedJournal(t, cfg, "s-1", "counter.inc")
	seedJournal(t, cfg, "s-2", "counter.inc")

	out, err := execute(t, cfg, "replay", counterSpecs, "--session", "s-2", "--format", "json")
	require.NoError(t, err)

	var result ReplayResult
	decodeResponse(t, out, &result)
	require.Len(t, result.Sessions, 1)
	assert.Equal(t, "s-2", result.Sessions[0].Session)
}

func TestReplayDetectsDrift(t *testing.T) {
	cfg := testConfig(t)
	seedJournal(t, cfg, "s-1", "counter.add=1", "counter.inc")

	// drift/ increments by two, so the second entry no longer reproduces.
	out, err := execute(t, cfg, "replay", driftSpecs, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var result ReplayResult
	resp := decodeResponse(t, out, &result)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeDeterminism, resp.Error.Code)
	assert.False(t, result.AllDeterministic)
	require.Len(t, result.Sessions, 1)
	assert.False(t, result.Sessions[0].Deterministic)
	assert.Contains(t, result.Sessions[0].Error, "NON_DETERMINISTIC")
}

func TestReplayDriftText(t *testing.T) {
	cfg := testConfig(t)
	seedJournal(t, cfg, "s-1", "counter.inc")

	out, err := execute(t, cfg, "replay", driftSpecs)
	require.Error(t, err)
	assert.Contains(t, out, "✗ s-1")
	assert.Contains(t, out, "Error [E_DETERMINISM]")
}

func TestReplayEmptyJournal(t *testing.T) {
	cfg := testConfig(t)
	j, err := journal.Open(cfg.DB)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	out, err := execute(t, cfg, "replay", counterSpecs)
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found in journal.")
}

func TestReplayMissingJournal(t *testing.T) {
	cfg := testConfig(t)
	cfg.DB = filepath.Join(t.TempDir(), "missing.db")

	out, err := execute(t, cfg, "replay", counterSpecs)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "journal not found")
}
