package toolchain

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog/log"
)

// runCommand executes a subprocess with a bounded timeout. A timeout
// produces a failed, timed-out outcome rather than an error, so it folds
// into the same retry logic as any other failure.
func runCommand(ctx context.Context, dir string, timeout time.Duration, name string, args ...string) CommandOutcome {
	cmdCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		cmdCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	log.Debug().Str("dir", dir).Str("cmd", name).Strs("args", args).Msg("running command")
	start := time.Now()
	cmd := exec.CommandContext(cmdCtx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	duration := time.Since(start)

	outcome := CommandOutcome{
		Command:  append([]string{name}, args...),
		Output:   string(out),
		Duration: duration,
	}

	timedOut := errors.Is(cmdCtx.Err(), context.DeadlineExceeded)
	switch {
	case timedOut:
		outcome.ExitCode = -1
		outcome.TimedOut = true
		outcome.Output += fmt.Sprintf("\n\ncommand timed out after %s", timeout)
	case err != nil:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			outcome.ExitCode = exitErr.ExitCode()
		} else {
			outcome.ExitCode = -1
			outcome.Output += "\n" + err.Error()
		}
	default:
		outcome.Success = true
	}

	if !outcome.Success {
		log.Debug().
			Str("cmd", name).
			Int("exit_code", outcome.ExitCode).
			Bool("timed_out", outcome.TimedOut).
			Dur("duration", duration).
			Msg("command failed")
	}
	return outcome
}
