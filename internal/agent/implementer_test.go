package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xpepper/agentic-tdd-specify-edition/internal/toolchain"
)

const implementerResponse = "FILE: src/lib.rs\n```rust\npub fn add(a: i32, b: i32) -> i32 { a + b }\n```\n"

func TestImplementer_CommitsOnGreen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newSeededRepo(t)
	tc := newGreenToolchain()
	impl := NewImplementer(&fakeClient{response: implementerResponse}, repo.Dir(), tc, repo)

	res := impl.Execute(ctx, testContext())

	require.True(t, res.Success, "message: %s detail: %s", res.Message, res.ErrorDetail)
	require.Len(t, res.Commits, 1)
	require.NotNil(t, res.TestsPassed)
	assert.True(t, *res.TestsPassed)

	head, err := repo.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.Commits[0], head)

	commits, err := repo.RecentCommits(ctx, 1)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Contains(t, commits[0].Message, "feat:")

	status, err := repo.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Clean())
}

func TestImplementer_RedSuiteFailsWithoutCommit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newSeededRepo(t)
	before, err := repo.Head(ctx)
	require.NoError(t, err)

	tc := newGreenToolchain()
	tc.tests = func() toolchain.TestReport {
		return toolchain.TestReport{Passed: false, FailedCount: 1, Output: "assertion failed"}
	}
	impl := NewImplementer(&fakeClient{response: implementerResponse}, repo.Dir(), tc, repo)

	res := impl.Execute(ctx, testContext())

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "still failing")
	assert.Equal(t, "assertion failed", res.TestOutput)
	assert.Empty(t, res.Commits)

	after, err := repo.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestImplementer_GateFailureBlocksCommit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newSeededRepo(t)
	before, err := repo.Head(ctx)
	require.NoError(t, err)

	tc := newGreenToolchain()
	tc.lint = toolchain.GateReport{
		Gate:   toolchain.GateLint,
		Passed: false,
		Issues: []string{"warning: unused import"},
	}
	impl := NewImplementer(&fakeClient{response: implementerResponse}, repo.Dir(), tc, repo)

	res := impl.Execute(ctx, testContext())

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "quality gate")
	assert.Contains(t, res.ErrorDetail, "lint gate failed")
	assert.Empty(t, res.Commits)

	after, err := repo.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestImplementer_UnparseableResponse(t *testing.T) {
	t.Parallel()

	repo := newSeededRepo(t)
	impl := NewImplementer(&fakeClient{response: "no code here"}, repo.Dir(), newGreenToolchain(), repo)

	res := impl.Execute(context.Background(), testContext())

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "unparseable")
}

func TestImplementCommitMessage_TruncatesFileList(t *testing.T) {
	t.Parallel()

	msg := implementCommitMessage(
		[]string{"a.rs", "b.rs", "c.rs", "d.rs", "e.rs"},
		toolchain.TestReport{PassedCount: 7},
	)
	assert.Contains(t, msg, "a.rs, b.rs, c.rs and 2 more")
	assert.Contains(t, msg, "7 tests passing")
}
