// Package agent implements the three TDD actors. All variants share one
// contract: Execute never propagates an error to the caller; every internal
// failure (parse error, failing test run, quality gate, transport) becomes a
// non-success AgentResult with error detail attached, so the cycle
// controller treats every call uniformly.
package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xpepper/agentic-tdd-specify-edition/internal/gate"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/gitops"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/llm"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/model"
	"github.com/xpepper/agentic-tdd-specify-edition/internal/toolchain"
)

// Agent is the uniform invocation contract over the three role variants.
// Dispatch is by explicit role identifier, never by runtime type inspection.
type Agent interface {
	Role() model.Role
	SystemPrompt() string
	BuildUserPrompt(actx model.AgentContext) string
	Execute(ctx context.Context, actx model.AgentContext) model.AgentResult
}

// base carries the collaborators every agent variant needs.
type base struct {
	client  llm.Client
	workDir string
	tc      toolchain.Toolchain
	repo    *gitops.Repo
	gates   *gate.Pipeline
}

func newBase(client llm.Client, workDir string, tc toolchain.Toolchain, repo *gitops.Repo) base {
	return base{
		client:  client,
		workDir: workDir,
		tc:      tc,
		repo:    repo,
		gates:   gate.New(tc),
	}
}

func (b *base) complete(ctx context.Context, system, user string) (string, error) {
	start := time.Now()
	out, err := b.client.Complete(ctx, system, user)
	log.Debug().Dur("duration", time.Since(start)).Err(err).Msg("completion call finished")
	if err != nil {
		return "", fmt.Errorf("completion call: %w", err)
	}
	return out, nil
}

// writeFile writes complete replacement content for a tree-relative path,
// creating missing parent directories. Paths that would escape the working
// tree are rejected.
func (b *base) writeFile(rel, content string) error {
	if filepath.IsAbs(rel) {
		return fmt.Errorf("absolute path in response: %s", rel)
	}
	clean := filepath.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path escapes working tree: %s", rel)
	}
	full := filepath.Join(b.workDir, clean)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create parent dirs for %s: %w", rel, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

// writeFiles applies a parsed path to content mapping and returns the sorted
// list of paths written.
func (b *base) writeFiles(files map[string]string) ([]string, error) {
	paths := make([]string, 0, len(files))
	for rel, content := range files {
		if err := b.writeFile(rel, content); err != nil {
			return nil, err
		}
		paths = append(paths, filepath.Clean(rel))
	}
	sort.Strings(paths)
	return paths, nil
}

// failed builds the uniform non-success result.
func failed(role model.Role, start time.Time, message string, err error) model.AgentResult {
	res := model.AgentResult{
		Role:     role,
		Message:  message,
		Duration: time.Since(start),
	}
	if err != nil {
		res.ErrorDetail = err.Error()
		res.Err = err
	} else {
		res.ErrorDetail = message
	}
	return res
}

func boolPtr(v bool) *bool { return &v }
