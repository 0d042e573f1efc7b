package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/redg/internal/wire"
)

// ErrSeqTaken is returned by Append when the session already holds a
// different entry at the same seq.
var ErrSeqTaken = errors.New("journal: seq already taken in session")

// Entry is one committed dispatch.
type Entry struct {
	ID        string
	Session   string
	Seq       int64
	Record    wire.Record
	StateHash string
}

// NewEntry builds an entry with its content-addressed id.
func NewEntry(session string, seq int64, r wire.Record, stateHash string) (Entry, error) {
	id, err := wire.EntryID(session, seq, r)
	if err != nil {
		return Entry{}, err
	}
	return Entry{ID: id, Session: session, Seq: seq, Record: r, StateHash: stateHash}, nil
}

// Append writes e. Writing an entry whose id already exists is a no-op and
// reports inserted=false.
func (j *Journal) Append(ctx context.Context, e Entry) (inserted bool, err error) {
	recordJSON, err := json.Marshal(e.Record)
	if err != nil {
		return false, fmt.Errorf("append entry: %w", err)
	}

	result, err := j.db.ExecContext(ctx, `
		INSERT INTO entries
		(id, session, seq, action_type, record, state_hash)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID,
		e.Session,
		e.Seq,
		e.Record.Type,
		string(recordJSON),
		e.StateHash,
	)
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.Code == sqlite3.ErrConstraint {
			return false, fmt.Errorf("append entry %s/%d: %w", e.Session, e.Seq, ErrSeqTaken)
		}
		return false, fmt.Errorf("append entry: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("append entry: rows affected: %w", err)
	}
	return n > 0, nil
}

// Entries returns every entry of session in commit order. It returns an
// empty slice, not nil, for an unknown session.
func (j *Journal) Entries(ctx context.Context, session string) ([]Entry, error) {
	return j.query(ctx, `
		SELECT id, session, seq, record, state_hash
		FROM entries
		WHERE session = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, session)
}

// EntriesOfType returns the entries of session whose action type is t.
func (j *Journal) EntriesOfType(ctx context.Context, session, t string) ([]Entry, error) {
	return j.query(ctx, `
		SELECT id, session, seq, record, state_hash
		FROM entries
		WHERE session = ? AND action_type = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, session, t)
}

// Sessions lists the sessions present in the journal, sorted by name.
func (j *Journal) Sessions(ctx context.Context) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT DISTINCT session FROM entries ORDER BY session COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// LastSeq returns the highest seq recorded for session, or 0.
func (j *Journal) LastSeq(ctx context.Context, session string) (int64, error) {
	var seq sql.NullInt64
	err := j.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM entries WHERE session = ?
	`, session).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

func (j *Journal) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e          Entry
			recordJSON string
		)
		if err := rows.Scan(&e.ID, &e.Session, &e.Seq, &recordJSON, &e.StateHash); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if err := json.Unmarshal([]byte(recordJSON), &e.Record); err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}
