package mirror

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// stagingPrefix marks in-progress clones; the leading dot keeps them outside
// the set of valid mirror names.
const stagingPrefix = ".staging-"

// Manager keeps local mirrors under a single root directory in agreement with
// their remote branches. It does not serialise calls: callers must not run two
// syncs for the same name at once.
type Manager struct {
	root   string
	runner Runner
}

// NewManager creates a manager for mirrors stored below root
func NewManager(root string, runner Runner) *Manager {
	return &Manager{
		root:   root,
		runner: runner,
	}
}

// Root returns the mirrors root directory
func (m *Manager) Root() string {
	return m.root
}

// Path returns the local path of the named mirror
func (m *Manager) Path(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return filepath.Join(m.root, name), nil
}

// Exists reports whether the named mirror is present on disk as a git
// working tree
func (m *Manager) Exists(name string) (bool, error) {
	path, err := m.Path(name)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(path)
	switch {
	case err == nil:
		if !info.IsDir() {
			return false, nil
		}
		return hasGitDir(path)
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to inspect mirror %s: %w", path, err)
	}
}

// Sync clones the repository when its mirror is absent, otherwise fetches,
// checks out branch, hard-resets it to the remote tip and fast-forwards.
// A failed clone leaves nothing behind; a failed update stops at the failing
// step without rolling back. A directory at the mirror path without its own
// .git is never touched and fails with ErrNotAMirror.
func (m *Manager) Sync(ctx context.Context, name, remoteURL, branch string) error {
	if branch == "" {
		branch = DefaultBranch
	}
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ValidateBranch(branch); err != nil {
		return err
	}
	if err := validateURL(remoteURL); err != nil {
		return err
	}

	path := filepath.Join(m.root, name)
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		isMirror, err := hasGitDir(path)
		if err != nil {
			return err
		}
		if !isMirror {
			return m.fail(name, OpInspect, fmt.Errorf("%w: %s has no .git", ErrNotAMirror, path))
		}
		return m.update(ctx, name, path, remoteURL, branch)
	case err == nil:
		return fmt.Errorf("mirror path %s exists but is not a directory", path)
	case errors.Is(err, fs.ErrNotExist):
		return m.clone(ctx, name, remoteURL, branch, path)
	default:
		return fmt.Errorf("failed to inspect mirror %s: %w", path, err)
	}
}

func (m *Manager) clone(ctx context.Context, name, remoteURL, branch, path string) error {
	slog.Info("Cloning repository", "repository", name, "url", remoteURL, "branch", branch)

	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return fmt.Errorf("failed to create mirrors root %s: %w", m.root, err)
	}

	staging := filepath.Join(m.root, stagingPrefix+name+"-"+uuid.NewString())
	if _, err := m.runner.Run(ctx, cloneCommand(remoteURL, branch, staging)); err != nil {
		removeStaging(staging)
		return m.fail(name, OpClone, err)
	}

	if err := os.Rename(staging, path); err != nil {
		removeStaging(staging)
		return fmt.Errorf("failed to move clone of %s into place: %w", name, err)
	}

	slog.Info("Repository cloned", "repository", name, "path", path)
	return nil
}

func (m *Manager) update(ctx context.Context, name, path, remoteURL, branch string) error {
	slog.Info("Updating repository", "repository", name, "branch", branch)

	if err := m.syncOrigin(ctx, name, path, remoteURL); err != nil {
		return err
	}

	steps := []Command{
		fetchAllCommand(path),
		checkoutCommand(path, branch),
		resetHardCommand(path, DefaultRemote+"/"+branch),
		pullCommand(path, DefaultRemote, branch),
	}

	for _, step := range steps {
		slog.Debug("Running git step", "repository", name, "command", step.String())
		if _, err := m.runner.Run(ctx, step); err != nil {
			return m.fail(name, step.Op, err)
		}
	}

	slog.Info("Repository updated", "repository", name, "branch", branch)
	return nil
}

// syncOrigin points origin at remoteURL when the catalog URL has changed
// since the mirror was cloned
func (m *Manager) syncOrigin(ctx context.Context, name, path, remoteURL string) error {
	current, err := m.runner.Run(ctx, remoteURLCommand(path, DefaultRemote))
	if err != nil {
		return m.fail(name, OpRemote, err)
	}
	if current == remoteURL {
		return nil
	}

	slog.Warn("Mirror origin differs from catalog URL, updating it", "repository", name, "origin", current, "url", remoteURL)
	if _, err := m.runner.Run(ctx, setRemoteURLCommand(path, DefaultRemote, remoteURL)); err != nil {
		return m.fail(name, OpRemote, err)
	}
	return nil
}

// Head returns the commit currently checked out in the named mirror
func (m *Manager) Head(ctx context.Context, name string) (string, error) {
	path, err := m.Path(name)
	if err != nil {
		return "", err
	}
	out, err := m.runner.Run(ctx, headCommand(path))
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD of %s: %w", name, err)
	}
	return out, nil
}

// CurrentBranch returns the branch checked out in the named mirror
func (m *Manager) CurrentBranch(ctx context.Context, name string) (string, error) {
	path, err := m.Path(name)
	if err != nil {
		return "", err
	}
	out, err := m.runner.Run(ctx, currentBranchCommand(path))
	if err != nil {
		return "", fmt.Errorf("failed to read current branch of %s: %w", name, err)
	}
	return out, nil
}

// CleanStaging removes clone directories left behind by a crashed process
func (m *Manager) CleanStaging() error {
	entries, err := os.ReadDir(m.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to list mirrors root %s: %w", m.root, err)
	}

	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), stagingPrefix) {
			slog.Warn("Removing abandoned clone", "path", entry.Name())
			removeStaging(filepath.Join(m.root, entry.Name()))
		}
	}
	return nil
}

func (m *Manager) fail(name string, step Operation, err error) error {
	slog.Error("Git operation failed", "repository", name, "step", step, "error", err)
	return &SyncError{Repository: name, Step: step, Err: err}
}

func hasGitDir(path string) (bool, error) {
	_, err := os.Stat(filepath.Join(path, ".git"))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to inspect mirror %s: %w", path, err)
	}
}

func removeStaging(path string) {
	if err := os.RemoveAll(path); err != nil {
		slog.Warn("Failed to remove staging directory", "path", path, "error", err)
	}
}
