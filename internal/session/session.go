// Package session owns the outer loop of a TDD run: project and repository
// initialization, cycle sequencing up to the configured maximum, history
// persistence and the final summary artifact.
package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/xpepper/agentic-tdd-specify-edition/internal/gitops"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/kata"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/model"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/report"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/store"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/toolchain"
)

// StateDirName is the per-workspace directory holding session artifacts and
// the history database.
const StateDirName = ".agentic-tdd"

// CycleRunner runs one cycle to a terminal phase.
type CycleRunner interface {
	RunCycle(ctx context.Context, session *model.SessionState) *model.CycleState
}

// Driver executes a complete session for one kata.
type Driver struct {
	spec      *kata.Spec
	repo      *gitops.Repo
	tc        toolchain.Toolchain
	cycles    CycleRunner
	store     *store.Store
	reporter  report.Reporter
	workDir   string
	maxCycles int
}

// NewDriver wires a session driver. store may be nil to disable history
// persistence.
func NewDriver(spec *kata.Spec, repo *gitops.Repo, tc toolchain.Toolchain,
	cycles CycleRunner, st *store.Store, reporter report.Reporter,
	workDir string, maxCycles int) *Driver {
	return &Driver{
		spec:      spec,
		repo:      repo,
		tc:        tc,
		cycles:    cycles,
		store:     st,
		reporter:  reporter,
		workDir:   workDir,
		maxCycles: maxCycles,
	}
}

// Run executes cycles until one fails, the maximum is reached or the context
// is canceled. A session that ran at all returns its state even when the last
// cycle failed; only setup problems surface as errors.
func (d *Driver) Run(ctx context.Context) (*model.SessionState, error) {
	if err := d.initialize(ctx); err != nil {
		return nil, err
	}

	state := model.NewSessionState(d.spec.Title, d.workDir)
	d.reporter.SessionStarted(d.spec, d.workDir, d.maxCycles)

	sessionID, err := store.NewSessionID()
	if err != nil {
		return nil, fmt.Errorf("generate session id: %w", err)
	}
	if d.store != nil {
		if err := d.store.CreateSession(ctx, sessionID, state); err != nil {
			return nil, err
		}
	}

	status := store.StatusCompleted
	for state.CurrentCycle <= d.maxCycles {
		if ctx.Err() != nil {
			status = store.StatusAborted
			break
		}

		cycleState := d.cycles.RunCycle(ctx, state)
		state.TotalCommits += len(cycleState.Commits)
		d.reporter.CycleFinished(cycleState)
		if d.store != nil {
			if err := d.store.RecordCycle(ctx, sessionID, state, cycleState); err != nil {
				log.Warn().Err(err).Int("cycle", cycleState.Number).Msg("could not record cycle")
			}
		}

		if cycleState.Phase == model.PhaseFailed {
			log.Error().Int("cycle", cycleState.Number).Strs("errors", cycleState.Errors).
				Msg("aborting session after failed cycle")
			break
		}
		state.AdvanceCycle()
	}

	state.Finish()
	if d.store != nil {
		if err := d.store.FinishSession(ctx, sessionID, status, state); err != nil {
			log.Warn().Err(err).Msg("could not finalize session record")
		}
	}
	if err := d.writeSummary(sessionID, state); err != nil {
		log.Warn().Err(err).Msg("could not write session summary")
	}
	d.reporter.SessionFinished(state)
	return state, nil
}

// initialize prepares the working tree: a git repository with a commit
// identity and the language-specific project scaffold.
func (d *Driver) initialize(ctx context.Context) error {
	if err := os.MkdirAll(d.workDir, 0o755); err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	if !d.repo.Available(ctx) {
		if err := d.repo.Init(ctx); err != nil {
			return err
		}
	}
	outcome := d.tc.InitializeProject(ctx, d.workDir, d.spec.ProjectName())
	if !outcome.Success {
		return fmt.Errorf("initialize %s project: %s", d.tc.Name(), outcome.Output)
	}
	return nil
}

// summary is the YAML session artifact written next to the history database.
type summary struct {
	SessionID    string         `yaml:"session_id"`
	KataTitle    string         `yaml:"kata_title"`
	WorkDir      string         `yaml:"work_dir"`
	TotalCycles  int            `yaml:"total_cycles"`
	TotalCommits int            `yaml:"total_commits"`
	StartedAt    time.Time      `yaml:"started_at"`
	CompletedAt  time.Time      `yaml:"completed_at"`
	Cycles       []cycleSummary `yaml:"cycles"`
}

type cycleSummary struct {
	Number   int      `yaml:"number"`
	Phase    string   `yaml:"phase"`
	TestFile string   `yaml:"test_file,omitempty"`
	Commits  []string `yaml:"commits,omitempty"`
	Errors   []string `yaml:"errors,omitempty"`
}

func (d *Driver) writeSummary(sessionID string, state *model.SessionState) error {
	doc := summary{
		SessionID:    sessionID,
		KataTitle:    state.KataTitle,
		WorkDir:      state.WorkDir,
		TotalCycles:  len(state.Cycles),
		TotalCommits: state.TotalCommits,
		StartedAt:    state.StartedAt,
		CompletedAt:  state.CompletedAt,
	}
	for _, c := range state.Cycles {
		doc.Cycles = append(doc.Cycles, cycleSummary{
			Number:   c.Number,
			Phase:    string(c.Phase),
			TestFile: c.TestFilePath,
			Commits:  c.Commits,
			Errors:   c.Errors,
		})
	}

	dir := filepath.Join(d.workDir, StateDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal session summary: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "session.yaml"), data, 0o644)
}
