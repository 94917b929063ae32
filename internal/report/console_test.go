package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xpepper/agentic-tdd-specify-edition/internal/kata"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/model"
)

func TestConsole_SessionLifecycleOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	c := NewConsole(&buf)

	spec := &kata.Spec{Title: "FizzBuzz Kata", Description: "Print numbers."}
	c.SessionStarted(spec, "/tmp/kata", 5)
	c.CycleStarted(1)
	c.PhaseStarted(1, model.PhaseTesting)
	c.AgentFinished(model.AgentResult{
		Role:     model.RoleTester,
		Success:  true,
		Message:  "test written: tests/add.rs",
		Duration: 2 * time.Second,
	})

	out := buf.String()
	assert.Contains(t, out, "FizzBuzz Kata")
	assert.Contains(t, out, "/tmp/kata")
	assert.Contains(t, out, "Cycle 1")
	assert.Contains(t, out, "testing")
	assert.Contains(t, out, "test written: tests/add.rs")
}

func TestConsole_CycleFinished(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	c := NewConsole(&buf)

	done := model.NewCycleState(1)
	done.Commits = []string{"a", "b"}
	done.MarkComplete()
	c.CycleFinished(done)
	assert.Contains(t, buf.String(), "2 commit(s)")

	buf.Reset()
	failed := model.NewCycleState(2)
	failed.MarkFailed("implementer failed")
	c.CycleFinished(failed)
	assert.Contains(t, buf.String(), "implementer failed")
}

func TestConsole_SessionFinished(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	c := NewConsole(&buf)

	state := model.NewSessionState("FizzBuzz", "/tmp/kata")
	state.Cycles = append(state.Cycles, model.NewCycleState(1))
	state.TotalCommits = 3
	state.Finish()
	c.SessionFinished(state)

	out := buf.String()
	assert.Contains(t, out, "Session finished")
	assert.Contains(t, out, "3")
}
