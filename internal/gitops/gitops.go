// Package gitops is the version-control collaborator. It shells out to git
// with per-call contexts and exposes the checkpoint/commit/rollback
// discipline every agent failure path relies on: a commit happens only after
// a green test run, and a rollback fully restores the working tree, not just
// the index.
package gitops

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/xpepper/agentic-tdd-specify-edition/internal/model"
)

var (
	// ErrNoRepository indicates an uninitialized repository. This is fatal
	// to the whole session: the controller cannot reason about a tree it
	// cannot snapshot or restore.
	ErrNoRepository = errors.New("git repository not initialized")

	// ErrNoCommits indicates the repository has no commits yet.
	ErrNoCommits = errors.New("repository has no commits")

	// ErrBadRevertTarget indicates a rollback to an unknown commit.
	ErrBadRevertTarget = errors.New("revert target does not exist")
)

// Repo wraps git operations for one working tree.
type Repo struct {
	dir string
}

// New returns a Repo rooted at dir. The repository may not exist yet; Init
// creates it.
func New(dir string) *Repo {
	return &Repo{dir: dir}
}

// Dir returns the working tree root.
func (r *Repo) Dir() string { return r.dir }

// Available checks whether dir is inside a git work tree.
func (r *Repo) Available(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = r.dir
	return cmd.Run() == nil
}

// Init initializes the repository and ensures a commit identity exists so
// unattended commits never fail on missing user config.
func (r *Repo) Init(ctx context.Context) error {
	if err := r.runErr(ctx, "init"); err != nil {
		return fmt.Errorf("git init: %w", err)
	}
	if _, err := r.runOutput(ctx, "config", "user.name"); err != nil {
		if err := r.runErr(ctx, "config", "user.name", "agentic-tdd"); err != nil {
			return fmt.Errorf("set user.name: %w", err)
		}
	}
	if _, err := r.runOutput(ctx, "config", "user.email"); err != nil {
		if err := r.runErr(ctx, "config", "user.email", "agentic-tdd@localhost"); err != nil {
			return fmt.Errorf("set user.email: %w", err)
		}
	}
	return nil
}

// Stage adds the given paths (relative to the tree root) to the index.
func (r *Repo) Stage(ctx context.Context, paths []string) error {
	if !r.Available(ctx) {
		return fmt.Errorf("%w: %s", ErrNoRepository, r.dir)
	}
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, paths...)
	if err := r.runErr(ctx, args...); err != nil {
		return fmt.Errorf("git add: %w", err)
	}
	return nil
}

// Commit records the staged content and returns the new commit identifier.
func (r *Repo) Commit(ctx context.Context, message string) (string, error) {
	if err := r.runErr(ctx, "commit", "-m", message); err != nil {
		return "", fmt.Errorf("git commit: %w", err)
	}
	return r.Head(ctx)
}

// StageAndCommit stages the given paths and commits everything currently
// staged, including content staged by earlier callers.
func (r *Repo) StageAndCommit(ctx context.Context, paths []string, message string) (string, error) {
	if err := r.Stage(ctx, paths); err != nil {
		return "", err
	}
	return r.Commit(ctx, message)
}

// Head returns the current tip commit, or ErrNoCommits on an empty history.
func (r *Repo) Head(ctx context.Context) (string, error) {
	if !r.Available(ctx) {
		return "", fmt.Errorf("%w: %s", ErrNoRepository, r.dir)
	}
	out, err := r.runOutput(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", ErrNoCommits
	}
	return strings.TrimSpace(out), nil
}

// Checkpoint captures the current repository tip for a later Rollback.
func (r *Repo) Checkpoint(ctx context.Context) (string, error) {
	return r.Head(ctx)
}

// Rollback hard-resets to a previously captured checkpoint and removes
// untracked files, fully restoring working tree content. Called only with an
// identifier captured strictly before the edits being undone.
func (r *Repo) Rollback(ctx context.Context, sha string) error {
	if !r.Available(ctx) {
		return fmt.Errorf("%w: %s", ErrNoRepository, r.dir)
	}
	if err := r.runErr(ctx, "cat-file", "-e", sha+"^{commit}"); err != nil {
		return fmt.Errorf("%w: %s", ErrBadRevertTarget, sha)
	}
	if err := r.runErr(ctx, "reset", "--hard", sha); err != nil {
		return fmt.Errorf("git reset --hard: %w", err)
	}
	if err := r.runErr(ctx, "clean", "-fd"); err != nil {
		return fmt.Errorf("git clean: %w", err)
	}
	return nil
}

// Restore puts a single path back the way HEAD has it, in both the index and
// the working tree. A path with no committed version is deleted instead, so
// either way nothing of the local edit survives.
func (r *Repo) Restore(ctx context.Context, path string) error {
	if !r.Available(ctx) {
		return fmt.Errorf("%w: %s", ErrNoRepository, r.dir)
	}
	if err := r.runErr(ctx, "cat-file", "-e", "HEAD:"+filepath.ToSlash(path)); err != nil {
		if rmErr := os.Remove(filepath.Join(r.dir, path)); rmErr != nil && !os.IsNotExist(rmErr) {
			return fmt.Errorf("remove %s: %w", path, rmErr)
		}
		return nil
	}
	if err := r.runErr(ctx, "checkout", "HEAD", "--", path); err != nil {
		return fmt.Errorf("git checkout: %w", err)
	}
	return nil
}

// RecentCommits lists the most recent commits, newest first, with the paths
// each one changed.
func (r *Repo) RecentCommits(ctx context.Context, limit int) ([]model.CommitInfo, error) {
	if !r.Available(ctx) {
		return nil, fmt.Errorf("%w: %s", ErrNoRepository, r.dir)
	}
	if _, err := r.Head(ctx); err != nil {
		return nil, nil
	}
	out, err := r.runOutput(ctx,
		"log", "-n", strconv.Itoa(limit), "--name-only",
		"--pretty=format:%x1e%H%x1f%an%x1f%at%x1f%s")
	if err != nil {
		return nil, fmt.Errorf("git log: %w", err)
	}

	var commits []model.CommitInfo
	for _, record := range strings.Split(out, "\x1e") {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}
		lines := strings.Split(record, "\n")
		fields := strings.Split(lines[0], "\x1f")
		if len(fields) != 4 {
			continue
		}
		unix, _ := strconv.ParseInt(fields[2], 10, 64)
		info := model.CommitInfo{
			SHA:       fields[0],
			Author:    fields[1],
			Timestamp: time.Unix(unix, 0).UTC(),
			Message:   fields[3],
		}
		for _, line := range lines[1:] {
			if line = strings.TrimSpace(line); line != "" {
				info.FilesChanged = append(info.FilesChanged, line)
			}
		}
		commits = append(commits, info)
	}
	return commits, nil
}

// Status describes the working tree relative to the index and HEAD.
type Status struct {
	Staged    []string
	Modified  []string
	Untracked []string
}

// Clean reports whether the tree has no pending changes of any kind.
func (s Status) Clean() bool {
	return len(s.Staged) == 0 && len(s.Modified) == 0 && len(s.Untracked) == 0
}

// Status reports staged, modified and untracked paths.
func (r *Repo) Status(ctx context.Context) (Status, error) {
	if !r.Available(ctx) {
		return Status{}, fmt.Errorf("%w: %s", ErrNoRepository, r.dir)
	}
	out, err := r.runOutput(ctx, "status", "--porcelain")
	if err != nil {
		return Status{}, fmt.Errorf("git status: %w", err)
	}
	var st Status
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		index, tree, path := line[0], line[1], strings.TrimSpace(line[3:])
		switch {
		case index == '?' && tree == '?':
			st.Untracked = append(st.Untracked, path)
		default:
			if index != ' ' {
				st.Staged = append(st.Staged, path)
			}
			if tree != ' ' {
				st.Modified = append(st.Modified, path)
			}
		}
	}
	return st, nil
}

func (r *Repo) runOutput(ctx context.Context, args ...string) (string, error) {
	log.Debug().Str("dir", r.dir).Strs("args", args).Msg("running git command")
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

func (r *Repo) runErr(ctx context.Context, args ...string) error {
	_, err := r.runOutput(ctx, args...)
	return err
}

// IsRepositoryError reports whether err signals an unrecoverable repository
// inconsistency that must abort the session.
func IsRepositoryError(err error) bool {
	return errors.Is(err, ErrNoRepository) || errors.Is(err, ErrBadRevertTarget)
}
