package agent

import (
	"fmt"
	"strings"

	"github.com/xpepper/agentic-tdd-specify-edition/internal/model"
)

const testerSystemPrompt = `You are a Tester agent in an autonomous TDD system.

Your role is to write failing tests that specify the next small behavior to
implement.

Responsibilities:
1. Read the kata description and existing codebase
2. Identify the next smallest, untested behavior
3. Write ONE small, focused test for that behavior
4. The test must fail when run (RED state), proving it tests new functionality

Constraints:
- Write only ONE new test per cycle
- The test must be minimal and focused on a single behavior
- Do not implement any production code
- Follow TDD best practices and the conventions of the target language`

const implementerSystemPrompt = `You are an Implementer agent in an autonomous TDD system.

Your role is to write minimal production code to make failing tests pass.

Responsibilities:
1. Read the staged test and its failure output
2. Write the MINIMAL code needed to pass the test
3. All tests must pass afterwards (GREEN state)

Constraints:
- Write only the minimal code to pass the test
- Do not add features not required by the test
- Do not skip, weaken or modify tests
- Produce clean, well-formatted code that passes format, lint and build checks`

const refactorerSystemPrompt = `You are a Refactorer agent in an autonomous TDD system.

Your role is to improve code quality while keeping all tests passing.

Responsibilities:
1. Read the current codebase
2. Identify quality improvement opportunities: poor naming, duplication,
   unclear logic, violations of the kata constraints
3. Apply ONE focused refactoring
4. All tests must still pass afterwards (GREEN state)

Constraints:
- Make only ONE refactoring change per cycle
- Do not change test behavior or expectations
- If no improvement is worthwhile, say so instead of inventing one`

// promptOptions selects which context sections and closing task block the
// shared builder emits for a given role.
type promptOptions struct {
	includeCommits bool
	testOutputHead string
	task           string
}

// buildUserPrompt assembles the markdown context document sent alongside a
// role's system prompt. Section order is stable so transcripts diff cleanly
// across attempts.
func buildUserPrompt(actx model.AgentContext, opts promptOptions) string {
	var b strings.Builder

	b.WriteString("# Kata Description\n")
	b.WriteString(actx.KataText)
	b.WriteString("\n\n")

	if len(actx.KataConstraints) > 0 {
		b.WriteString("# Kata Constraints\n")
		for _, c := range actx.KataConstraints {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "# Current Cycle\nCycle %d\n\n", actx.CycleNumber)

	if opts.includeCommits && len(actx.RecentCommits) > 0 {
		b.WriteString("# Recent Commits\n")
		for _, commit := range actx.RecentCommits {
			sha := commit.SHA
			if len(sha) > 7 {
				sha = sha[:7]
			}
			fmt.Fprintf(&b, "- %s: %s\n", sha, commit.Message)
		}
		b.WriteString("\n")
	}

	if len(actx.Files) > 0 {
		b.WriteString("# Current Codebase\n\n")
		for _, file := range actx.Files {
			fmt.Fprintf(&b, "## %s\n```\n%s\n```\n\n", file.Path, file.Content)
		}
	}

	if actx.LastTestOutput != "" {
		fmt.Fprintf(&b, "# %s\n```\n%s\n```\n\n", opts.testOutputHead, actx.LastTestOutput)
	}

	if actx.LastFailure != "" {
		fmt.Fprintf(&b, "# Previous Error (Retry %d)\n%s\n\n", actx.Attempt, actx.LastFailure)
	}

	b.WriteString("# Your Task\n")
	b.WriteString(opts.task)
	return b.String()
}

const testerTask = `Write ONE small, focused test for the next untested behavior.
The test should be minimal and fail when run (RED state).

CRITICAL: You MUST include ALL existing tests and code in your response.
Do NOT remove or replace any existing tests or functions.
Only ADD the new test to the existing file content.

Respond with the COMPLETE file content in this format:
FILE_PATH: path/to/test_file.ext
` + "```" + `
... COMPLETE file with all existing tests/code + your new test ...
` + "```" + `
`

const implementerTask = `Write MINIMAL code to make the failing test pass.
Do not add features not required by the test.

Respond with file changes in this format:
FILE: path/to/file.ext
` + "```" + `
... complete file content ...
` + "```" + `

FILE: path/to/another_file.ext
` + "```" + `
... complete file content ...
` + "```" + `
`

const refactorerTask = `Identify ONE quality improvement opportunity and refactor the code.
Maintain all tests passing (GREEN state).

CRITICAL: You MUST preserve ALL existing tests and code functionality.
Do NOT remove, modify test behavior, or replace any existing tests.
Only improve code quality (naming, structure, duplication) without changing behavior.

If no improvements are needed, respond with: NO_CHANGES_NEEDED

Otherwise, respond with file changes in this format:
FILE: path/to/file.ext
` + "```" + `
... COMPLETE file content with ALL existing code + your improvements ...
` + "```" + `
`
