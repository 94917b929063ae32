package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xpepper/agentic-tdd-specify-edition/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db)
}

func completedCycle(number int, commits ...string) *model.CycleState {
	c := model.NewCycleState(number)
	c.TestFilePath = "tests/add.rs"
	c.Commits = commits
	c.MarkComplete()
	return c
}

func TestNewSessionID_Unique(t *testing.T) {
	t.Parallel()

	a, err := NewSessionID()
	require.NoError(t, err)
	b, err := NewSessionID()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^\d{8}-\d{6}-[0-9a-f]{6}$`, a)
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	state := model.NewSessionState("FizzBuzz Kata", "/tmp/kata")

	sessionID, err := NewSessionID()
	require.NoError(t, err)
	require.NoError(t, st.CreateSession(ctx, sessionID, state))

	state.Cycles = append(state.Cycles, completedCycle(1, "sha1", "sha2"))
	state.TotalCommits = 2
	require.NoError(t, st.RecordCycle(ctx, sessionID, state, state.Cycles[0]))

	failed := model.NewCycleState(2)
	failed.MarkFailed("implementer failed")
	state.Cycles = append(state.Cycles, failed)
	require.NoError(t, st.RecordCycle(ctx, sessionID, state, failed))

	state.Finish()
	require.NoError(t, st.FinishSession(ctx, sessionID, StatusCompleted, state))

	records, err := st.ListSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, sessionID, rec.SessionID)
	assert.Equal(t, "FizzBuzz Kata", rec.KataTitle)
	assert.Equal(t, StatusCompleted, rec.Status)
	assert.Equal(t, 2, rec.TotalCycles)
	assert.Equal(t, 2, rec.TotalCommits)
	assert.NotEmpty(t, rec.CompletedAt)
}

func TestListSessions_NewestFirstAndLimited(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	var ids []string
	for i := 0; i < 3; i++ {
		id, err := NewSessionID()
		require.NoError(t, err)
		// Session ids embed a second-resolution timestamp; disambiguate
		// ordering within the same second.
		id = id[:len(id)-1] + string(rune('a'+i))
		ids = append(ids, id)
		require.NoError(t, st.CreateSession(ctx, id, model.NewSessionState("k", ".")))
	}

	records, err := st.ListSessions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, ids[2], records[0].SessionID)
	assert.Equal(t, ids[1], records[1].SessionID)
}

func TestRecordCycle_DuplicateCycleNumberFails(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newTestStore(t)
	state := model.NewSessionState("k", ".")
	id, err := NewSessionID()
	require.NoError(t, err)
	require.NoError(t, st.CreateSession(ctx, id, state))

	cycle := completedCycle(1, "sha")
	state.Cycles = append(state.Cycles, cycle)
	require.NoError(t, st.RecordCycle(ctx, id, state, cycle))
	assert.Error(t, st.RecordCycle(ctx, id, state, cycle))
}

func TestOpen_IsReentrant(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Migrations are idempotent across reopens.
	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	st := NewStore(db)
	_, err = st.ListSessions(context.Background(), 1)
	assert.NoError(t, err)
}
