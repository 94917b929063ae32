package agent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xpepper/agentic-tdd-specify-edition/internal/toolchain"
)

const testerResponse = "FILE_PATH: tests/add_test.rs\nTEST_CODE:\n```rust\n#[test]\nfn adds() { assert_eq!(2, add(1, 1)); }\n```\n"

func TestTester_WritesAndStagesFailingTest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newSeededRepo(t)
	tc := newGreenToolchain()
	tc.tests = func() toolchain.TestReport {
		return toolchain.TestReport{Passed: false, FailedCount: 1, Total: 1, Output: "1 failed"}
	}
	tester := NewTester(&fakeClient{response: testerResponse}, repo.Dir(), tc, repo)

	res := tester.Execute(ctx, testContext())

	require.True(t, res.Success, "message: %s detail: %s", res.Message, res.ErrorDetail)
	assert.False(t, res.Overshoot)
	assert.Equal(t, []string{filepath.Join("tests", "add_test.rs")}, res.FilesModified)
	require.NotNil(t, res.TestsPassed)
	assert.False(t, *res.TestsPassed)
	assert.Equal(t, "1 failed", res.TestOutput)
	assert.Empty(t, res.Commits)

	status, err := repo.Status(ctx)
	require.NoError(t, err)
	assert.Contains(t, status.Staged, "tests/add_test.rs")
}

func TestTester_OvershootRemovesFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newSeededRepo(t)
	tc := newGreenToolchain()
	tester := NewTester(&fakeClient{response: testerResponse}, repo.Dir(), tc, repo)

	res := tester.Execute(ctx, testContext())

	assert.False(t, res.Success)
	assert.True(t, res.Overshoot)
	require.NotNil(t, res.TestsPassed)
	assert.True(t, *res.TestsPassed)
	assert.NoFileExists(t, filepath.Join(repo.Dir(), "tests", "add_test.rs"))

	status, err := repo.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Clean())
}

func TestTester_OvershootRestoresCommittedTestFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := newSeededRepo(t)
	testFile := filepath.Join(repo.Dir(), "tests", "add_test.rs")
	require.NoError(t, os.MkdirAll(filepath.Dir(testFile), 0o755))
	require.NoError(t, os.WriteFile(testFile, []byte("// committed test\n"), 0o644))
	_, err := repo.StageAndCommit(ctx, []string{"tests/add_test.rs"}, "feat: cycle one")
	require.NoError(t, err)

	tester := NewTester(&fakeClient{response: testerResponse}, repo.Dir(), newGreenToolchain(), repo)
	res := tester.Execute(ctx, testContext())

	assert.True(t, res.Overshoot)
	content, err := os.ReadFile(testFile)
	require.NoError(t, err, "committed test file must survive overshoot cleanup")
	assert.Equal(t, "// committed test\n", string(content))

	status, err := repo.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Clean())
}

func TestTester_UnparseableResponse(t *testing.T) {
	t.Parallel()

	repo := newSeededRepo(t)
	tester := NewTester(&fakeClient{response: "I cannot write a test."}, repo.Dir(), newGreenToolchain(), repo)

	res := tester.Execute(context.Background(), testContext())

	assert.False(t, res.Success)
	assert.False(t, res.Overshoot)
	assert.Contains(t, res.Message, "unparseable")
}

func TestTester_CompletionError(t *testing.T) {
	t.Parallel()

	repo := newSeededRepo(t)
	tester := NewTester(&fakeClient{err: errors.New("rate limited")}, repo.Dir(), newGreenToolchain(), repo)

	res := tester.Execute(context.Background(), testContext())

	assert.False(t, res.Success)
	assert.Contains(t, res.ErrorDetail, "rate limited")
}

func TestTester_PromptCarriesKataAndRetryContext(t *testing.T) {
	t.Parallel()

	repo := newSeededRepo(t)
	client := &fakeClient{response: "nothing useful"}
	tester := NewTester(client, repo.Dir(), newGreenToolchain(), repo)

	actx := testContext()
	actx.LastFailure = "previous attempt wrote no test"
	actx.Attempt = 2
	tester.Execute(context.Background(), actx)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Implement addition.")
	assert.Contains(t, client.prompts[0], "Previous Error (Retry 2)")
	assert.Contains(t, client.prompts[0], "previous attempt wrote no test")
}
