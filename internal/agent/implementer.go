package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xpepper/agentic-tdd-specify-edition/internal/gitops"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/llm"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/model"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/respond"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/toolchain"
)

// Implementer writes the minimal production code that turns the staged test
// green, then commits test and implementation together.
type Implementer struct {
	base
}

// NewImplementer builds the implementer agent.
func NewImplementer(client llm.Client, workDir string, tc toolchain.Toolchain, repo *gitops.Repo) *Implementer {
	return &Implementer{base: newBase(client, workDir, tc, repo)}
}

// Role implements Agent.
func (i *Implementer) Role() model.Role { return model.RoleImplementer }

// SystemPrompt implements Agent.
func (i *Implementer) SystemPrompt() string { return implementerSystemPrompt }

// BuildUserPrompt implements Agent.
func (i *Implementer) BuildUserPrompt(actx model.AgentContext) string {
	return buildUserPrompt(actx, promptOptions{
		includeCommits: false,
		testOutputHead: "Test Failure Output",
		task:           implementerTask,
	})
}

// Execute applies the model's file changes, requires a green suite and clean
// quality gates, then records a single commit covering the staged test and
// the implementation.
func (i *Implementer) Execute(ctx context.Context, actx model.AgentContext) model.AgentResult {
	start := time.Now()

	response, err := i.complete(ctx, i.SystemPrompt(), i.BuildUserPrompt(actx))
	if err != nil {
		return failed(i.Role(), start, "implementation failed", err)
	}

	files, err := respond.ExtractFiles(response)
	if err != nil {
		return failed(i.Role(), start, "implementation failed: unparseable response", err)
	}
	modified, err := i.writeFiles(files)
	if err != nil {
		return failed(i.Role(), start, "implementation failed", err)
	}

	report := i.tc.RunTests(ctx, i.workDir)
	if !report.Passed {
		res := failed(i.Role(), start, "tests still failing after implementation",
			errors.New("implementation did not make tests pass"))
		res.FilesModified = modified
		res.TestsPassed = boolPtr(false)
		res.TestOutput = report.Output
		return res
	}

	if err := i.gates.Run(ctx, i.workDir); err != nil {
		res := failed(i.Role(), start, "quality gate failed", err)
		res.FilesModified = modified
		res.TestsPassed = boolPtr(true)
		res.TestOutput = report.Output
		return res
	}

	if err := i.repo.Stage(ctx, modified); err != nil {
		return failed(i.Role(), start, "staging implementation failed", err)
	}
	status, err := i.repo.Status(ctx)
	if err != nil {
		return failed(i.Role(), start, "reading repository status failed", err)
	}
	sha, err := i.repo.Commit(ctx, implementCommitMessage(status.Staged, report))
	if err != nil {
		return failed(i.Role(), start, "commit failed", err)
	}

	return model.AgentResult{
		Role:          i.Role(),
		Success:       true,
		Message:       fmt.Sprintf("implementation complete: %d test(s) passing", report.PassedCount),
		FilesModified: modified,
		TestsPassed:   boolPtr(true),
		TestOutput:    report.Output,
		Commits:       []string{sha},
		Duration:      time.Since(start),
	}
}

// implementCommitMessage summarizes the staged paths and the green suite.
func implementCommitMessage(staged []string, report toolchain.TestReport) string {
	shown := staged
	more := 0
	if len(shown) > 3 {
		more = len(shown) - 3
		shown = shown[:3]
	}
	filesLine := strings.Join(shown, ", ")
	if more > 0 {
		filesLine = fmt.Sprintf("%s and %d more", filesLine, more)
	}
	return fmt.Sprintf("feat: implement behavior with passing tests\n\n%s\n%d tests passing",
		filesLine, report.PassedCount)
}
