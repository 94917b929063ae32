package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/xpepper/agentic-tdd-specify-edition/internal/kata"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/model"
)

var (
	bannerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	labelStyle  = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

// Console renders session progress to a terminal.
type Console struct {
	out io.Writer
}

// NewConsole returns a reporter writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// SessionStarted prints the session banner and the rendered kata body.
func (c *Console) SessionStarted(spec *kata.Spec, workDir string, maxCycles int) {
	fmt.Fprintln(c.out, bannerStyle.Render("Starting TDD session"))
	fmt.Fprintf(c.out, "%s %s\n", labelStyle.Render("Kata:"), spec.Title)
	fmt.Fprintf(c.out, "%s %s\n", labelStyle.Render("Work directory:"), workDir)
	fmt.Fprintf(c.out, "%s %d\n", labelStyle.Render("Max cycles:"), maxCycles)

	if spec.Description != "" {
		if rendered, err := glamour.Render(spec.Description, "auto"); err == nil {
			fmt.Fprint(c.out, rendered)
		} else {
			fmt.Fprintln(c.out, spec.Description)
		}
	}
}

// CycleStarted prints the cycle header.
func (c *Console) CycleStarted(number int) {
	fmt.Fprintln(c.out, bannerStyle.Render(fmt.Sprintf("── Cycle %d ──", number)))
}

// PhaseStarted prints the phase marker.
func (c *Console) PhaseStarted(number int, phase model.Phase) {
	fmt.Fprintln(c.out, dimStyle.Render(fmt.Sprintf("cycle %d: %s", number, phase)))
}

// AgentFinished prints one agent outcome line.
func (c *Console) AgentFinished(result model.AgentResult) {
	mark := okStyle.Render("ok")
	if !result.Success {
		mark = failStyle.Render("failed")
	}
	fmt.Fprintf(c.out, "  %s %s: %s %s\n",
		mark, result.Role, result.Message,
		dimStyle.Render(fmt.Sprintf("(%.1fs)", result.Duration.Seconds())))
}

// CycleFinished prints the cycle outcome.
func (c *Console) CycleFinished(state *model.CycleState) {
	if state.Phase == model.PhaseComplete {
		fmt.Fprintf(c.out, "%s cycle %d complete, %d commit(s)\n",
			okStyle.Render("✓"), state.Number, len(state.Commits))
		return
	}
	fmt.Fprintf(c.out, "%s cycle %d failed: %s\n",
		failStyle.Render("✗"), state.Number, strings.Join(state.Errors, "; "))
}

// SessionFinished prints the closing summary.
func (c *Console) SessionFinished(state *model.SessionState) {
	fmt.Fprintln(c.out, bannerStyle.Render("Session finished"))
	fmt.Fprintf(c.out, "%s %d\n", labelStyle.Render("Cycles:"), len(state.Cycles))
	fmt.Fprintf(c.out, "%s %d\n", labelStyle.Render("Commits:"), state.TotalCommits)
	if !state.CompletedAt.IsZero() {
		fmt.Fprintf(c.out, "%s %.1fs\n", labelStyle.Render("Duration:"),
			state.CompletedAt.Sub(state.StartedAt).Seconds())
	}
	fmt.Fprintln(c.out, dimStyle.Render("inspect the work directory with: git log --oneline"))
}
