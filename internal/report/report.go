// Package report is the presentation port for session progress. The
// orchestration core depends only on the Reporter interface and never writes
// to a global output channel directly.
package report

import (
	"github.com/xpepper/agentic-tdd-specify-edition/internal/kata"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/model"
)

// Reporter receives progress notifications from the session driver and the
// cycle controller.
type Reporter interface {
	SessionStarted(spec *kata.Spec, workDir string, maxCycles int)
	CycleStarted(number int)
	PhaseStarted(number int, phase model.Phase)
	AgentFinished(result model.AgentResult)
	CycleFinished(state *model.CycleState)
	SessionFinished(state *model.SessionState)
}

// Nop discards every notification. Used in tests and quiet runs.
type Nop struct{}

// SessionStarted implements Reporter.
func (Nop) SessionStarted(*kata.Spec, string, int) {}

// CycleStarted implements Reporter.
func (Nop) CycleStarted(int) {}

// PhaseStarted implements Reporter.
func (Nop) PhaseStarted(int, model.Phase) {}

// AgentFinished implements Reporter.
func (Nop) AgentFinished(model.AgentResult) {}

// CycleFinished implements Reporter.
func (Nop) CycleFinished(*model.CycleState) {}

// SessionFinished implements Reporter.
func (Nop) SessionFinished(*model.SessionState) {}
