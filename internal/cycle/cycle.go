// Package cycle drives one red/green/refactor iteration through its phase
// machine. The controller owns all phase transitions; agents only report
// outcomes.
package cycle

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/xpepper/agentic-tdd-specify-edition/internal/agent"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/gitops"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/kata"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/model"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/report"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/toolchain"
)

// Directories excluded from context snapshots. Build output and VCS metadata
// would dwarf the actual sources.
var ignoredDirs = map[string]bool{
	".git":          true,
	".agentic-tdd":  true,
	"target":        true,
	"node_modules":  true,
	"__pycache__":   true,
	".pytest_cache": true,
}

// Controller runs single TDD cycles against one working tree.
type Controller struct {
	tester      agent.Agent
	implementer agent.Agent
	refactorer  agent.Agent
	tc          toolchain.Toolchain
	repo        *gitops.Repo
	spec        *kata.Spec
	workDir     string
	language    string
	maxRetries  int
	reporter    report.Reporter
}

// NewController wires a cycle controller.
func NewController(tester, implementer, refactorer agent.Agent, tc toolchain.Toolchain,
	repo *gitops.Repo, spec *kata.Spec, workDir, language string,
	maxRetries int, reporter report.Reporter) *Controller {
	return &Controller{
		tester:      tester,
		implementer: implementer,
		refactorer:  refactorer,
		tc:          tc,
		repo:        repo,
		spec:        spec,
		workDir:     workDir,
		language:    language,
		maxRetries:  maxRetries,
		reporter:    reporter,
	}
}

// RunCycle appends a new cycle to the session and drives it to a terminal
// phase. It never returns a non-terminal cycle: a panic anywhere inside the
// phase machine is recovered into the failed phase so the session driver
// always observes a settled state.
func (c *Controller) RunCycle(ctx context.Context, session *model.SessionState) (state *model.CycleState) {
	state = session.BeginCycle()
	c.reporter.CycleStarted(state.Number)

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Int("cycle", state.Number).Msg("cycle panicked")
			state.MarkFailed(fmt.Sprintf("unexpected error in cycle: %v", r))
		}
	}()

	// Testing phase runs exactly once; a bad test is not worth retrying
	// against the same snapshot.
	c.reporter.PhaseStarted(state.Number, model.PhaseTesting)
	testerResult := c.tester.Execute(ctx, c.buildContext(ctx, state.Number, 0, ""))
	c.reporter.AgentFinished(testerResult)

	if testerResult.Overshoot {
		state.MarkFailed(fmt.Sprintf("overshoot: %s", testerResult.Message))
		return state
	}
	if !testerResult.Success {
		state.MarkFailed(fmt.Sprintf("tester failed: %s", testerResult.Message))
		return state
	}
	if len(testerResult.FilesModified) > 0 {
		state.TestFilePath = testerResult.FilesModified[0]
	}

	state.Phase = model.PhaseImplementing
	c.reporter.PhaseStarted(state.Number, model.PhaseImplementing)
	implResult := agent.Retry(c.maxRetries, func(attempt int, lastFailure string) model.AgentResult {
		res := c.implementer.Execute(ctx, c.buildContext(ctx, state.Number, attempt-1, lastFailure))
		c.reporter.AgentFinished(res)
		return res
	})

	if !implResult.Success {
		state.MarkFailed(fmt.Sprintf("implementer failed after %d attempts: %s",
			c.maxRetries, implResult.Message))
		return state
	}
	state.ImplementationFiles = append(state.ImplementationFiles, implResult.FilesModified...)
	state.Commits = append(state.Commits, implResult.Commits...)

	state.Phase = model.PhaseRefactoring
	c.reporter.PhaseStarted(state.Number, model.PhaseRefactoring)
	refactorResult := agent.Retry(c.maxRetries, func(attempt int, lastFailure string) model.AgentResult {
		res := c.refactorer.Execute(ctx, c.buildContext(ctx, state.Number, attempt-1, lastFailure))
		c.reporter.AgentFinished(res)
		return res
	})

	// Refactoring normally never fails a cycle: the refactorer reverts its
	// own edits, so the tree is still at the implementer's green commit. The
	// exception is a repository error, which means the revert itself cannot
	// be trusted and the session must stop.
	if refactorResult.Success {
		state.Commits = append(state.Commits, refactorResult.Commits...)
	} else if gitops.IsRepositoryError(refactorResult.Err) {
		state.MarkFailed(fmt.Sprintf("repository unrecoverable: %s", refactorResult.ErrorDetail))
		return state
	} else {
		log.Warn().Int("cycle", state.Number).Str("reason", refactorResult.Message).
			Msg("refactoring skipped after retries")
	}

	state.MarkComplete()
	return state
}

// buildContext snapshots the working tree, recent history and latest test
// output into an immutable AgentContext. Rebuilt before every agent attempt.
func (c *Controller) buildContext(ctx context.Context, cycleNumber, attempt int, lastFailure string) model.AgentContext {
	actx := model.AgentContext{
		KataText:        c.spec.PromptText(),
		KataConstraints: c.spec.Constraints,
		CycleNumber:     cycleNumber,
		Files:           c.snapshotFiles(),
		LastFailure:     lastFailure,
		Attempt:         attempt,
	}

	commits, err := c.repo.RecentCommits(ctx, 5)
	if err != nil {
		log.Warn().Err(err).Msg("could not list recent commits")
	}
	actx.RecentCommits = commits

	if _, err := c.repo.Head(ctx); err == nil {
		actx.LastTestOutput = c.tc.RunTests(ctx, c.workDir).Output
	}
	return actx
}

func (c *Controller) snapshotFiles() []model.WorkspaceFile {
	var files []model.WorkspaceFile
	err := filepath.WalkDir(c.workDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if ignoredDirs[d.Name()] && path != c.workDir {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == ".DS_Store" {
			return nil
		}
		content, readErr := os.ReadFile(path)
		if readErr != nil {
			log.Warn().Err(readErr).Str("path", path).Msg("could not read file for context")
			return nil
		}
		rel, relErr := filepath.Rel(c.workDir, path)
		if relErr != nil {
			return nil
		}
		files = append(files, model.WorkspaceFile{
			Path:     filepath.ToSlash(rel),
			Content:  strings.TrimRight(string(content), "\n"),
			Language: c.language,
		})
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("dir", c.workDir).Msg("context snapshot incomplete")
	}
	return files
}
