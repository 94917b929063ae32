package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xpepper/agentic-tdd-specify-edition/internal/gitops"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/llm"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/model"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/respond"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/toolchain"
)

// Refactorer applies one focused quality improvement on a green tree. Every
// edit happens under a checkpoint: if the suite goes red or a gate fails the
// tree is rolled back to the commit captured before the first write.
type Refactorer struct {
	base
}

// NewRefactorer builds the refactorer agent.
func NewRefactorer(client llm.Client, workDir string, tc toolchain.Toolchain, repo *gitops.Repo) *Refactorer {
	return &Refactorer{base: newBase(client, workDir, tc, repo)}
}

// Role implements Agent.
func (r *Refactorer) Role() model.Role { return model.RoleRefactorer }

// SystemPrompt implements Agent.
func (r *Refactorer) SystemPrompt() string { return refactorerSystemPrompt }

// BuildUserPrompt implements Agent.
func (r *Refactorer) BuildUserPrompt(actx model.AgentContext) string {
	return buildUserPrompt(actx, promptOptions{
		includeCommits: true,
		testOutputHead: "Last Test Output",
		task:           refactorerTask,
	})
}

// Execute captures a checkpoint, applies the model's changes and commits them
// only when the suite stays green and the quality gates pass. A deliberate
// no-change response is a successful no-op.
func (r *Refactorer) Execute(ctx context.Context, actx model.AgentContext) model.AgentResult {
	start := time.Now()

	checkpoint, err := r.repo.Checkpoint(ctx)
	if err != nil {
		return failed(r.Role(), start, "capturing checkpoint failed", err)
	}

	response, err := r.complete(ctx, r.SystemPrompt(), r.BuildUserPrompt(actx))
	if err != nil {
		return failed(r.Role(), start, "refactoring failed", err)
	}

	if respond.IsNoChanges(response) {
		return model.AgentResult{
			Role:        r.Role(),
			Success:     true,
			Message:     "no refactoring needed",
			TestsPassed: boolPtr(true),
			Duration:    time.Since(start),
		}
	}

	files, err := respond.ExtractFiles(response)
	if err != nil {
		return failed(r.Role(), start, "refactoring failed: unparseable response", err)
	}
	modified, err := r.writeFiles(files)
	if err != nil {
		return failed(r.Role(), start, "refactoring failed", err)
	}

	report := r.tc.RunTests(ctx, r.workDir)
	if !report.Passed {
		res := failed(r.Role(), start, "refactoring broke tests, reverted",
			errors.Join(errors.New("tests failed after refactoring"), r.rollback(ctx, checkpoint)))
		res.FilesModified = modified
		res.TestsPassed = boolPtr(false)
		res.TestOutput = report.Output
		return res
	}

	if err := r.gates.Run(ctx, r.workDir); err != nil {
		res := failed(r.Role(), start, "quality gate failed after refactoring, reverted",
			errors.Join(err, r.rollback(ctx, checkpoint)))
		res.FilesModified = modified
		res.TestsPassed = boolPtr(true)
		res.TestOutput = report.Output
		return res
	}

	sha, err := r.repo.StageAndCommit(ctx, modified, refactorCommitMessage(modified))
	if err != nil {
		return failed(r.Role(), start, "commit failed, reverted",
			errors.Join(err, r.rollback(ctx, checkpoint)))
	}

	return model.AgentResult{
		Role:          r.Role(),
		Success:       true,
		Message:       fmt.Sprintf("refactoring complete: %s", strings.Join(modified, ", ")),
		FilesModified: modified,
		TestsPassed:   boolPtr(true),
		TestOutput:    report.Output,
		Commits:       []string{sha},
		Duration:      time.Since(start),
	}
}

// rollback restores the checkpoint. A rollback that itself fails leaves the
// tree dirty; the error is logged and returned so the failing result carries
// it and the cycle controller can treat repository errors as fatal.
func (r *Refactorer) rollback(ctx context.Context, checkpoint string) error {
	err := r.repo.Rollback(ctx, checkpoint)
	if err != nil {
		log.Error().Err(err).Str("checkpoint", checkpoint).Msg("rollback failed")
	}
	return err
}

func refactorCommitMessage(modified []string) string {
	shown := modified
	more := 0
	if len(shown) > 2 {
		more = len(shown) - 2
		shown = shown[:2]
	}
	filesLine := strings.Join(shown, ", ")
	if more > 0 {
		filesLine = fmt.Sprintf("%s and %d more", filesLine, more)
	}
	return fmt.Sprintf("refactor: improve code quality\n\nRefactored: %s", filesLine)
}
