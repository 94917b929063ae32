// Package toolchain defines the build/test tool collaborator consumed by the
// orchestration core, plus one implementation per target ecosystem.
package toolchain

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Quality gate identifiers.
const (
	GateFormat = "format"
	GateLint   = "lint"
	GateBuild  = "build"
)

// CommandOutcome is the result of one external subprocess.
type CommandOutcome struct {
	Command  []string
	ExitCode int
	Output   string
	Success  bool
	Duration time.Duration
	TimedOut bool
}

// TestReport is the parsed result of a test suite run. A runner that itself
// fails to execute reports Passed=false with Err set; callers treat that the
// same as failing tests.
type TestReport struct {
	Passed      bool
	Total       int
	PassedCount int
	FailedCount int
	Output      string
	Duration    time.Duration
	Err         string
}

// GateReport is the result of a single quality gate stage.
type GateReport struct {
	Gate      string
	Passed    bool
	AutoFixed bool
	Issues    []string
	Outcome   CommandOutcome
}

// Toolchain adapts one target ecosystem's project, test, format, lint and
// build tooling. Implementations never return errors for tool failures; the
// outcome types carry pass/fail so failures fold into ordinary retry logic.
type Toolchain interface {
	Name() string
	InitializeProject(ctx context.Context, dir, name string) CommandOutcome
	RunTests(ctx context.Context, dir string) TestReport
	Format(ctx context.Context, dir string) GateReport
	Lint(ctx context.Context, dir string) GateReport
	Build(ctx context.Context, dir string) CommandOutcome
}

// ForLanguage returns the toolchain for a target language identifier.
func ForLanguage(language string, commandTimeout time.Duration) (Toolchain, error) {
	switch strings.ToLower(language) {
	case "rust":
		return NewRust(commandTimeout), nil
	default:
		return nil, fmt.Errorf("unsupported language %q (supported: %s)",
			language, strings.Join(supportedLanguages(), ", "))
	}
}

func supportedLanguages() []string {
	langs := []string{"rust"}
	sort.Strings(langs)
	return langs
}
