package toolchain

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const defaultCommandTimeout = 30 * time.Second

// Rust drives cargo for Rust kata projects.
type Rust struct {
	timeout time.Duration
}

// NewRust returns a cargo-backed toolchain with the given per-command
// timeout. Test, lint and build commands get more headroom since they
// compile.
func NewRust(commandTimeout time.Duration) *Rust {
	if commandTimeout <= 0 {
		commandTimeout = defaultCommandTimeout
	}
	return &Rust{timeout: commandTimeout}
}

// Name returns the toolchain identifier.
func (r *Rust) Name() string { return "rust" }

// InitializeProject runs cargo init with the kata project name.
func (r *Rust) InitializeProject(ctx context.Context, dir, name string) CommandOutcome {
	return runCommand(ctx, dir, r.timeout, "cargo", "init", "--name", name)
}

var testSummaryRe = regexp.MustCompile(`(\d+) passed; (\d+) failed`)

// RunTests executes cargo test and parses the pass/fail counts from its
// summary lines.
func (r *Rust) RunTests(ctx context.Context, dir string) TestReport {
	outcome := runCommand(ctx, dir, r.compileTimeout(), "cargo", "test", "--color=never")
	report := parseCargoTestOutput(outcome)
	return report
}

// parseCargoTestOutput extracts counts from lines like
// "test result: ok. 5 passed; 0 failed; 0 ignored; ...". A binary plus a
// doc-test section each emit one summary line; counts accumulate.
func parseCargoTestOutput(outcome CommandOutcome) TestReport {
	report := TestReport{
		Output:   outcome.Output,
		Duration: outcome.Duration,
	}
	matches := testSummaryRe.FindAllStringSubmatch(outcome.Output, -1)
	for _, m := range matches {
		passed, _ := strconv.Atoi(m[1])
		failed, _ := strconv.Atoi(m[2])
		report.PassedCount += passed
		report.FailedCount += failed
	}
	report.Total = report.PassedCount + report.FailedCount
	report.Passed = outcome.Success && len(matches) > 0 && report.FailedCount == 0

	if len(matches) == 0 && !outcome.Success {
		// The runner itself failed (compile error, timeout) rather than
		// merely reporting failing tests.
		report.Err = strings.TrimSpace(outcome.Output)
	}
	return report
}

// Format checks formatting with cargo fmt --check and auto-fixes when the
// check fails. Callers must re-run tests after an auto-fix.
func (r *Rust) Format(ctx context.Context, dir string) GateReport {
	check := runCommand(ctx, dir, r.timeout, "cargo", "fmt", "--", "--check")
	if check.Success {
		return GateReport{Gate: GateFormat, Passed: true, Outcome: check}
	}
	fix := runCommand(ctx, dir, r.timeout, "cargo", "fmt")
	report := GateReport{
		Gate:      GateFormat,
		Passed:    fix.Success,
		AutoFixed: fix.Success,
		Outcome:   fix,
	}
	if !fix.Success {
		report.Issues = []string{"formatting failed"}
	}
	return report
}

// Lint runs clippy with warnings promoted to errors and collects the
// reported issues.
func (r *Rust) Lint(ctx context.Context, dir string) GateReport {
	outcome := runCommand(ctx, dir, r.compileTimeout(), "cargo", "clippy", "--", "-D", "warnings")
	report := GateReport{Gate: GateLint, Passed: outcome.Success, Outcome: outcome}
	if !outcome.Success {
		for _, line := range strings.Split(outcome.Output, "\n") {
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "warning:") || strings.HasPrefix(line, "error:") {
				report.Issues = append(report.Issues, line)
			}
		}
	}
	return report
}

// Build compiles the project.
func (r *Rust) Build(ctx context.Context, dir string) CommandOutcome {
	return runCommand(ctx, dir, r.compileTimeout(), "cargo", "build")
}

func (r *Rust) compileTimeout() time.Duration {
	return 4 * r.timeout
}
