package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceListsSessions(t *testing.T) {
	cfg := testConfig(t)
	seedJournal(t, cfg, "alpha", "counter.inc", "counter.inc")
	seedJournal(t, cfg, "beta", "counter.reset")

	out, err := execute(t, cfg, "trace")
	require.NoError(t, err)
	assert.Contains(t, out, "Sessions:")
	assert.Contains(t, out, "alpha (seq 2)")
	assert.Contains(t, out, "beta (seq 1)")

	out, err = execute(t, cfg, "trace", "--format", "json")
	require.NoError(t, err)
	var sessions []SessionSummary
	decodeResponse(t, out, &sessions)
	assert.Equal(t, []SessionSummary{
		{Session: "alpha", LastSeq: 2},
		{Session: "beta", LastSeq: 1},
	}, sessions)
}

func TestTraceTimeline(t *testing.T) {
	cfg := testConfig(t)
	seedJournal(t, cfg, "s-1", "counter.inc", "counter.add=4", "counter.inc")

	out, err := execute(t, cfg, "trace", "--session", "s-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Session: s-1")
	assert.Contains(t, out, "[1] counter/inc\n")
	assert.Contains(t, out, "[2] counter/add 4\n")
	assert.Contains(t, out, "[3] counter/inc\n")
	assert.Contains(t, out, "counter/inc: 2")
	assert.Contains(t, out, "counter/add: 1")
	assert.Contains(t, out, "Last seq: 3")
}

func TestTraceTimelineJSON(t *testing.T) {
	cfg := testConfig(t)
	seedJournal(t, cfg, "s-1", "counter.inc", "counter.add=4")

	out, err := execute(t, cfg, "trace", "--session", "s-1", "--format", "json")
	require.NoError(t, err)

	var result TraceResult
	resp := decodeResponse(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "s-1", result.Session)
	assert.Equal(t, int64(2), result.LastSeq)
	require.Len(t, result.Timeline, 2)

	first, second := result.Timeline[0], result.Timeline[1]
	assert.Equal(t, int64(1), first.Seq)
	assert.False(t, first.HasPayload)
	assert.Nil(t, first.Payload)
	assert.Equal(t, float64(4), second.Payload)
	assert.Len(t, second.ID, 64)
	assert.Len(t, second.StateHash, 64)
	assert.NotEqual(t, first.StateHash, second.StateHash)
	assert.Equal(t, []TypeCount{{Type: "counter/add", Count: 1}, {Type: "counter/inc", Count: 1}}, result.Types)
}

func TestTraceFilterByType(t *testing.T) {
	cfg := testConfig(t)
	seedJournal(t, cfg, "s-1", "counter.inc", "counter.add=4", "counter.inc")

	out, err := execute(t, cfg, "trace", "--session", "s-1", "--type", "counter/inc", "--format", "json")
	require.NoError(t, err)

	var result TraceResult
	decodeResponse(t, out, &result)
	require.Len(t, result.Timeline, 2)
	assert.Equal(t, int64(1), result.Timeline[0].Seq)
	assert.Equal(t, int64(3), result.Timeline[1].Seq)
	assert.Equal(t, int64(3), result.LastSeq)
}

func TestTraceUnknownSession(t *testing.T) {
	cfg := testConfig(t)
	seedJournal(t, cfg, "s-1", "counter.inc")

	out, err := execute(t, cfg, "trace", "--session", "ghost")
	require.NoError(t, err)
	assert.Contains(t, out, "No entries found for session: ghost")

	out, err = execute(t, cfg, "trace", "--session", "s-1", "--type", "counter/reset")
	require.NoError(t, err)
	assert.Contains(t, out, "No counter/reset entries in session: s-1")
}

func TestTraceMissingJournal(t *testing.T) {
	cfg := testConfig(t)
	cfg.DB = filepath.Join(t.TempDir(), "missing.db")

	out, err := execute(t, cfg, "trace", "--session", "s-1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E_DATABASE")
	assert.NoFileExists(t, cfg.DB)
}
