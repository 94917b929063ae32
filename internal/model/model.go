// Package model defines the shared value types passed between the session
// driver, the cycle controller and the agents.
package model

import "time"

// Role identifies which agent produced a result.
type Role string

// Agent roles.
const (
	RoleTester      Role = "tester"
	RoleImplementer Role = "implementer"
	RoleRefactorer  Role = "refactorer"
)

// Phase is the position of a cycle within the red/green/refactor loop.
type Phase string

// Cycle phases. Complete and Failed are terminal.
const (
	PhaseTesting      Phase = "testing"
	PhaseImplementing Phase = "implementing"
	PhaseRefactoring  Phase = "refactoring"
	PhaseComplete     Phase = "complete"
	PhaseFailed       Phase = "failed"
)

// Terminal reports whether the phase ends a cycle.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseFailed
}

// WorkspaceFile is a single file from the working tree, included in agent
// context snapshots.
type WorkspaceFile struct {
	Path     string
	Content  string
	Language string
}

// CommitInfo describes a recorded commit.
type CommitInfo struct {
	SHA          string
	Message      string
	Author       string
	Timestamp    time.Time
	FilesChanged []string
}

// AgentContext is the immutable snapshot handed to a single agent
// invocation. It is rebuilt from scratch before every call so each attempt
// observes the latest tree and the previous attempt's failure.
type AgentContext struct {
	KataText        string
	KataConstraints []string
	CycleNumber     int
	Files           []WorkspaceFile
	RecentCommits   []CommitInfo
	LastTestOutput  string
	LastFailure     string
	Attempt         int
}

// AgentResult is the outcome of one agent invocation. Agents always return a
// value; internal failures are folded into Success=false with ErrorDetail set.
type AgentResult struct {
	Role          Role
	Success       bool
	Message       string
	FilesModified []string
	TestsPassed   *bool
	TestOutput    string
	Commits       []string
	Overshoot     bool
	ErrorDetail   string
	// Err preserves the typed failure cause so callers can match sentinel
	// errors. ErrorDetail carries the same text for prompts and logs.
	Err      error
	Duration time.Duration
}

// CycleState tracks a single cycle through the phase machine. It is mutated
// only by the cycle controller while the cycle runs, then frozen.
type CycleState struct {
	Number              int
	Phase               Phase
	StartedAt           time.Time
	CompletedAt         time.Time
	TestFilePath        string
	ImplementationFiles []string
	Commits             []string
	Errors              []string
}

// NewCycleState starts a cycle in the testing phase.
func NewCycleState(number int) *CycleState {
	return &CycleState{
		Number:    number,
		Phase:     PhaseTesting,
		StartedAt: time.Now().UTC(),
	}
}

// MarkComplete transitions the cycle to its successful terminal phase.
func (c *CycleState) MarkComplete() {
	c.Phase = PhaseComplete
	c.CompletedAt = time.Now().UTC()
}

// MarkFailed transitions the cycle to its failed terminal phase, recording
// the error.
func (c *CycleState) MarkFailed(msg string) {
	c.Phase = PhaseFailed
	c.Errors = append(c.Errors, msg)
	c.CompletedAt = time.Now().UTC()
}

// SessionState aggregates the history of all cycles for one kata. It
// exclusively owns its cycle list; cycles are appended and never removed.
type SessionState struct {
	KataTitle    string
	WorkDir      string
	CurrentCycle int
	Cycles       []*CycleState
	TotalCommits int
	StartedAt    time.Time
	CompletedAt  time.Time
}

// NewSessionState starts a session at cycle 1.
func NewSessionState(kataTitle, workDir string) *SessionState {
	return &SessionState{
		KataTitle:    kataTitle,
		WorkDir:      workDir,
		CurrentCycle: 1,
		StartedAt:    time.Now().UTC(),
	}
}

// BeginCycle appends and returns the state for the current cycle number.
func (s *SessionState) BeginCycle() *CycleState {
	c := NewCycleState(s.CurrentCycle)
	s.Cycles = append(s.Cycles, c)
	return c
}

// AdvanceCycle moves the session to the next cycle. Called only after the
// current cycle reached the complete phase.
func (s *SessionState) AdvanceCycle() {
	s.CurrentCycle++
}

// Finish stamps the session end time.
func (s *SessionState) Finish() {
	s.CompletedAt = time.Now().UTC()
}
