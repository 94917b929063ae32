// Package gate runs the ordered quality gate pipeline required before any
// commit: format, lint, build. Stages short-circuit on the first failure.
// The pipeline only detects and reports; disposition (fatal retry vs
// rollback-then-absorb) is the caller's call.
package gate

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/xpepper/agentic-tdd-specify-edition/internal/toolchain"
)

// Failure is the typed condition raised by a failing stage.
type Failure struct {
	Stage   string
	Message string
	Issues  []string
}

func (f *Failure) Error() string {
	if len(f.Issues) > 0 {
		return fmt.Sprintf("%s gate failed: %s", f.Stage, strings.Join(f.Issues, "; "))
	}
	return fmt.Sprintf("%s gate failed: %s", f.Stage, f.Message)
}

// Pipeline sequences the quality gates over one toolchain.
type Pipeline struct {
	tc toolchain.Toolchain
}

// New builds a pipeline for the given toolchain.
func New(tc toolchain.Toolchain) *Pipeline {
	return &Pipeline{tc: tc}
}

// Run executes format, lint and build in order. When the formatter auto-fixed
// anything, the full test suite is re-run and must still be green, otherwise
// the formatting itself broke behavior and the pipeline fails. A non-nil
// error is always a *Failure.
func (p *Pipeline) Run(ctx context.Context, dir string) error {
	format := p.tc.Format(ctx, dir)
	if !format.Passed {
		return &Failure{
			Stage:   toolchain.GateFormat,
			Message: strings.TrimSpace(format.Outcome.Output),
			Issues:  format.Issues,
		}
	}
	if format.AutoFixed {
		log.Debug().Str("dir", dir).Msg("formatter changed files, re-running tests")
		tests := p.tc.RunTests(ctx, dir)
		if !tests.Passed {
			return &Failure{
				Stage:   toolchain.GateFormat,
				Message: "tests failed after formatting",
			}
		}
	}

	lint := p.tc.Lint(ctx, dir)
	if !lint.Passed {
		return &Failure{
			Stage:   toolchain.GateLint,
			Message: strings.TrimSpace(lint.Outcome.Output),
			Issues:  lint.Issues,
		}
	}

	build := p.tc.Build(ctx, dir)
	if !build.Success {
		return &Failure{
			Stage:   toolchain.GateBuild,
			Message: strings.TrimSpace(build.Output),
		}
	}
	return nil
}
