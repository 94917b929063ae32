package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/xpepper/agentic-tdd-specify-edition/internal/gitops"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/llm"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/model"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/respond"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/toolchain"
)

// Tester writes one failing test per cycle and stages it without committing.
type Tester struct {
	base
}

// NewTester builds the tester agent.
func NewTester(client llm.Client, workDir string, tc toolchain.Toolchain, repo *gitops.Repo) *Tester {
	return &Tester{base: newBase(client, workDir, tc, repo)}
}

// Role implements Agent.
func (t *Tester) Role() model.Role { return model.RoleTester }

// SystemPrompt implements Agent.
func (t *Tester) SystemPrompt() string { return testerSystemPrompt }

// BuildUserPrompt implements Agent.
func (t *Tester) BuildUserPrompt(actx model.AgentContext) string {
	return buildUserPrompt(actx, promptOptions{
		includeCommits: true,
		testOutputHead: "Last Test Output",
		task:           testerTask,
	})
}

// Execute asks the model for one new test, writes it, verifies the suite goes
// red and stages the file. A suite that stays green means the behavior
// already exists (overshoot); the written path is restored to its committed
// content, or deleted when no commit holds it, so nothing of the attempt
// leaks into later snapshots.
func (t *Tester) Execute(ctx context.Context, actx model.AgentContext) model.AgentResult {
	start := time.Now()

	response, err := t.complete(ctx, t.SystemPrompt(), t.BuildUserPrompt(actx))
	if err != nil {
		return failed(t.Role(), start, "test creation failed", err)
	}

	path, content, err := respond.ExtractSingle(response)
	if err != nil {
		return failed(t.Role(), start, "test creation failed: unparseable response", err)
	}
	if err := t.writeFile(path, content); err != nil {
		return failed(t.Role(), start, "test creation failed", err)
	}

	report := t.tc.RunTests(ctx, t.workDir)
	if report.Passed {
		// Overshoot. Put the path back the way the last commit has it. The
		// model rewrites complete files, so from cycle two on the path is
		// usually tracked content that must survive, not a new file.
		if restoreErr := t.repo.Restore(ctx, filepath.Clean(path)); restoreErr != nil {
			return failed(t.Role(), start, "overshoot cleanup failed", restoreErr)
		}
		res := failed(t.Role(), start, "overshoot detected: test passed unexpectedly", nil)
		res.FilesModified = []string{filepath.Clean(path)}
		res.TestsPassed = boolPtr(true)
		res.TestOutput = report.Output
		res.Overshoot = true
		return res
	}

	if err := t.repo.Stage(ctx, []string{filepath.Clean(path)}); err != nil {
		return failed(t.Role(), start, "staging test file failed", err)
	}

	return model.AgentResult{
		Role:          t.Role(),
		Success:       true,
		Message:       fmt.Sprintf("test written: %s", path),
		FilesModified: []string{filepath.Clean(path)},
		TestsPassed:   boolPtr(false),
		TestOutput:    report.Output,
		Duration:      time.Since(start),
	}
}
