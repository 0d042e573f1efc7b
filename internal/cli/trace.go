package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/redg/internal/journal"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string
	Type     string // optional - filter to one action type
}

// TraceEntry is a single journal entry in the timeline.
type TraceEntry struct {
	Seq        int64  `json:"seq"`
	ID         string `json:"id"`
	Type       string `json:"type"`
	Payload    any    `json:"payload,omitempty"`
	HasPayload bool   `json:"has_payload"`
	StateHash  string `json:"state_hash"`
}

// TypeCount counts entries of one action type.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// TraceResult holds the trace of one session.
type TraceResult struct {
	Session  string       `json:"session"`
	Timeline []TraceEntry `json:"timeline"`
	Types    []TypeCount  `json:"types"`
	LastSeq  int64        `json:"last_seq"`
}

// SessionSummary is one row of the session listing.
type SessionSummary struct {
	Session string `json:"session"`
	LastSeq int64  `json:"last_seq"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the journaled actions of a session",
		Long: `Show the journal of a session in seq order: each committed action with
its payload and the hash of the state it produced.

Without --session the journaled sessions are listed instead.

Examples:
  redg trace --db ./redg.db
  redg trace --db ./redg.db --session 0192...
  redg trace --db ./redg.db --session 0192... --type counter/add
  redg trace --session 0192... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", rootOpts.DB, "path to SQLite journal (env REDG_DB)")
	cmd.Flags().StringVar(&opts.Session, "session", rootOpts.Session, "session to trace (env REDG_SESSION)")
	cmd.Flags().StringVar(&opts.Type, "type", "", "filter to one action type")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	j, err := openJournal(f, opts.Database, true)
	if err != nil {
		return err
	}
	defer closeJournal(j, opts.logger())

	if opts.Session == "" {
		return listSessions(cmd, f, j)
	}

	lastSeq, err := j.LastSeq(ctx, opts.Session)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to read session: "+err.Error(), nil, nil)
	}

	var entries []journal.Entry
	if opts.Type != "" {
		entries, err = j.EntriesOfType(ctx, opts.Session, opts.Type)
	} else {
		entries, err = j.Entries(ctx, opts.Session)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to read entries: "+err.Error(), nil, nil)
	}

	result := TraceResult{
		Session:  opts.Session,
		Timeline: buildTimeline(entries),
		Types:    countTypes(entries),
		LastSeq:  lastSeq,
	}

	if f.JSON() {
		return f.Success(result)
	}
	printTrace(f, result, opts.Type)
	return nil
}

func listSessions(cmd *cobra.Command, f *OutputFormatter, j *journal.Journal) error {
	ctx := commandContext(cmd)

	sessions, err := j.Sessions(ctx)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to list sessions: "+err.Error(), nil, nil)
	}

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		seq, err := j.LastSeq(ctx, s)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to read session: "+err.Error(), nil, nil)
		}
		summaries = append(summaries, SessionSummary{Session: s, LastSeq: seq})
	}

	if f.JSON() {
		return f.Success(summaries)
	}
	if len(summaries) == 0 {
		f.Printf("No sessions found in journal.\n")
		return nil
	}
	f.Printf("Sessions:\n")
	for _, s := range summaries {
		f.Printf("  %s (seq %d)\n", s.Session, s.LastSeq)
	}
	return nil
}

func buildTimeline(entries []journal.Entry) []TraceEntry {
	timeline := make([]TraceEntry, 0, len(entries))
	for _, e := range entries {
		timeline = append(timeline, TraceEntry{
			Seq:        e.Seq,
			ID:         e.ID,
			Type:       e.Record.Type,
			Payload:    e.Record.Payload,
			HasPayload: e.Record.HasPayload,
			StateHash:  e.StateHash,
		})
	}
	return timeline
}

// countTypes counts entries per action type, most frequent first.
func countTypes(entries []journal.Entry) []TypeCount {
	counts := make(map[string]int)
	for _, e := range entries {
		counts[e.Record.Type]++
	}
	out := make([]TypeCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, TypeCount{Type: t, Count: n})
	}
	sort.Slice(out, func(i, k int) bool {
		if out[i].Count != out[k].Count {
			return out[i].Count > out[k].Count
		}
		return out[i].Type < out[k].Type
	})
	return out
}

func printTrace(f *OutputFormatter, r TraceResult, filter string) {
	if len(r.Timeline) == 0 {
		if filter != "" {
			f.Printf("No %s entries in session: %s\n", filter, r.Session)
		} else {
			f.Printf("No entries found for session: %s\n", r.Session)
		}
		return
	}

	f.Printf("Session: %s\n\n", r.Session)
	f.Printf("Timeline:\n")
	for _, e := range r.Timeline {
		line := fmt.Sprintf("  [%d] %s", e.Seq, e.Type)
		if e.HasPayload {
			line += " " + canonicalString(e.Payload)
		}
		f.Printf("%s\n", line)
		f.VerboseLog("      id=%s state=%s", e.ID, e.StateHash)
	}

	f.Printf("\nStats:\n")
	f.Printf("  Entries shown: %d\n", len(r.Timeline))
	for _, t := range r.Types {
		f.Printf("  %s: %d\n", t.Type, t.Count)
	}
	f.Printf("  Last seq: %d\n", r.LastSeq)
}
