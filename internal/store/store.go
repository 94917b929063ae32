package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/xpepper/agentic-tdd-specify-edition/internal/model"
)

// Session statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusAborted   = "aborted"
)

// Store provides persistence for sessions and cycles.
type Store struct {
	db *sql.DB
}

// NewStore creates a store for session/cycle persistence.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// NewSessionID returns a sortable unique session identifier.
func NewSessionID() (string, error) {
	suffix, err := randomHex(3)
	if err != nil {
		return "", err
	}
	ts := time.Now().UTC().Format("20060102-150405")
	return fmt.Sprintf("%s-%s", ts, suffix), nil
}

func randomHex(bytesLen int) (string, error) {
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// CreateSession inserts the session record in running state.
func (s *Store) CreateSession(ctx context.Context, sessionID string, state *model.SessionState) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO sessions(session_id, kata_title, work_dir, status, started_at)
		VALUES(?, ?, ?, ?, ?)`,
		sessionID, state.KataTitle, state.WorkDir, StatusRunning,
		state.StartedAt.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// RecordCycle inserts one settled cycle and refreshes the session counters in
// a single transaction.
func (s *Store) RecordCycle(ctx context.Context, sessionID string, state *model.SessionState, cycle *model.CycleState) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin record cycle: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO cycles(session_id, cycle_number, phase, test_file, commit_count, errors, started_at, completed_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, cycle.Number, string(cycle.Phase),
		nullableString(cycle.TestFilePath), len(cycle.Commits),
		nullableString(strings.Join(cycle.Errors, "; ")),
		cycle.StartedAt.Format(time.RFC3339),
		nullableString(formatTime(cycle.CompletedAt))); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert cycle: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE sessions SET total_cycles=?, total_commits=? WHERE session_id=?`,
		len(state.Cycles), state.TotalCommits, sessionID); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("update session counters: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record cycle: %w", err)
	}
	return nil
}

// FinishSession marks the session terminal with its final counters.
func (s *Store) FinishSession(ctx context.Context, sessionID, status string, state *model.SessionState) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE sessions SET status=?, total_cycles=?, total_commits=?, completed_at=? WHERE session_id=?`,
		status, len(state.Cycles), state.TotalCommits,
		nullableString(formatTime(state.CompletedAt)), sessionID); err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	return nil
}

// SessionRecord is one row of session history.
type SessionRecord struct {
	SessionID    string
	KataTitle    string
	WorkDir      string
	Status       string
	TotalCycles  int
	TotalCommits int
	StartedAt    string
	CompletedAt  string
}

// ListSessions returns session history, newest first.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT session_id, kata_title, work_dir, status, total_cycles, total_commits, started_at, COALESCE(completed_at, '')
		FROM sessions ORDER BY session_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var rec SessionRecord
		if err := rows.Scan(&rec.SessionID, &rec.KataTitle, &rec.WorkDir, &rec.Status,
			&rec.TotalCycles, &rec.TotalCommits, &rec.StartedAt, &rec.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return records, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
