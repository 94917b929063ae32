package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xpepper/agentic-tdd-specify-edition/internal/toolchain"
)

const refactorerResponse = "FILE: src/lib.rs\n```rust\npub fn add(augend: i32, addend: i32) -> i32 { augend + addend }\n```\n"

func TestRefactorer_NoChangesIsSuccessfulNoOp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newSeededRepo(t)
	before, err := repo.Head(ctx)
	require.NoError(t, err)

	ref := NewRefactorer(&fakeClient{response: "NO_CHANGES_NEEDED"}, repo.Dir(), newGreenToolchain(), repo)
	res := ref.Execute(ctx, testContext())

	assert.True(t, res.Success)
	assert.Empty(t, res.Commits)
	assert.Empty(t, res.FilesModified)

	after, err := repo.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRefactorer_CommitsOnGreen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newSeededRepo(t)
	ref := NewRefactorer(&fakeClient{response: refactorerResponse}, repo.Dir(), newGreenToolchain(), repo)

	res := ref.Execute(ctx, testContext())

	require.True(t, res.Success, "message: %s detail: %s", res.Message, res.ErrorDetail)
	require.Len(t, res.Commits, 1)

	commits, err := repo.RecentCommits(ctx, 1)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Contains(t, commits[0].Message, "refactor:")
}

func TestRefactorer_RedSuiteRollsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newSeededRepo(t)
	before, err := repo.Head(ctx)
	require.NoError(t, err)

	tc := newGreenToolchain()
	tc.tests = func() toolchain.TestReport {
		return toolchain.TestReport{Passed: false, FailedCount: 1, Output: "broken"}
	}
	ref := NewRefactorer(&fakeClient{response: refactorerResponse}, repo.Dir(), tc, repo)

	res := ref.Execute(ctx, testContext())

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "reverted")

	// Rollback removed the written file and kept the head.
	assert.NoFileExists(t, filepath.Join(repo.Dir(), "src", "lib.rs"))
	after, err := repo.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRefactorer_GateFailureRollsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newSeededRepo(t)
	before, err := repo.Head(ctx)
	require.NoError(t, err)

	tc := newGreenToolchain()
	tc.build = toolchain.CommandOutcome{Success: false, Output: "linker error"}
	ref := NewRefactorer(&fakeClient{response: refactorerResponse}, repo.Dir(), tc, repo)

	res := ref.Execute(ctx, testContext())

	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorDetail, "build gate failed")
	assert.NoFileExists(t, filepath.Join(repo.Dir(), "src", "lib.rs"))

	after, err := repo.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRefactorer_RollbackRestoresTrackedContent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newSeededRepo(t)
	libPath := filepath.Join(repo.Dir(), "src", "lib.rs")
	require.NoError(t, os.MkdirAll(filepath.Dir(libPath), 0o755))
	require.NoError(t, os.WriteFile(libPath, []byte("original\n"), 0o644))
	_, err := repo.StageAndCommit(ctx, []string{"src/lib.rs"}, "feat: original")
	require.NoError(t, err)

	tc := newGreenToolchain()
	tc.tests = func() toolchain.TestReport { return toolchain.TestReport{Passed: false} }
	ref := NewRefactorer(&fakeClient{response: refactorerResponse}, repo.Dir(), tc, repo)

	res := ref.Execute(ctx, testContext())
	assert.False(t, res.Success)

	content, err := os.ReadFile(libPath)
	require.NoError(t, err)
	assert.Equal(t, "original\n", string(content))
}
