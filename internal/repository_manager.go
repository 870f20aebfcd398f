package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"repo-clipboard/internal/aggregate"
	"repo-clipboard/internal/catalog"
	"repo-clipboard/internal/config"
	"repo-clipboard/internal/git/mirror"
	"repo-clipboard/internal/git/remote"
	"repo-clipboard/internal/git/types"
	"repo-clipboard/internal/tokens"

	"golang.org/x/sync/errgroup"
)

// SyncResult reports the outcome of bringing one mirror up to date
type SyncResult struct {
	Repository string `json:"repository"`
	Branch     string `json:"branch"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Step       string `json:"step,omitempty"`
}

// SyncSummary aggregates a SyncAll run; Results follow catalog order
type SyncSummary struct {
	Results   []SyncResult `json:"results"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
}

// ClipResult is the outcome of aggregating one pattern set
type ClipResult struct {
	Success       bool     `json:"success"`
	Message       string   `json:"message"`
	Tokens        int      `json:"tokens,omitempty"`
	TempFile      string   `json:"temp_file,omitempty"`
	Files         []string `json:"files,omitempty"`
	Skipped       []string `json:"skipped,omitempty"`
	ExceedsBudget bool     `json:"exceeds_budget,omitempty"`
	Document      string   `json:"content,omitempty"`
}

// StatusResult describes a mirror against its remote branch
type StatusResult struct {
	Repository   string   `json:"repository"`
	URL          string   `json:"url"`
	Branch       string   `json:"branch"`
	Cloned       bool     `json:"cloned"`
	LocalBranch  string   `json:"local_branch,omitempty"`
	LocalCommit  string   `json:"local_commit,omitempty"`
	RemoteCommit string   `json:"remote_commit,omitempty"`
	UpToDate     bool     `json:"up_to_date"`
	RemoteError  string   `json:"remote_error,omitempty"`
	Patterns     []string `json:"patterns"`
}

// RepositoryManager ties the catalog, the mirrors and the aggregation engine
// together. Operations on the same repository name are serialised: syncs take
// the name's write lock, clips and status reads take its read lock.
type RepositoryManager struct {
	config   *config.Config
	catalog  *catalog.Store
	mirrors  *mirror.Manager
	engine   *aggregate.Engine
	resolver types.RemoteResolver
	locks    *keyedLocks
}

// New creates a RepositoryManager backed by the git executable and the
// remote resolvers the configuration enables.
func New(cfg *config.Config) (*RepositoryManager, error) {
	runner := mirror.NewExecRunner(cfg.GitExecutable)

	resolver, err := remote.NewFromConfig(cfg, runner)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote resolver: %w", err)
	}

	return newRepositoryManager(cfg, runner, resolver, tokens.New(cfg.TokenEncoding)), nil
}

func newRepositoryManager(cfg *config.Config, runner mirror.Runner, resolver types.RemoteResolver, counter tokens.Counter) *RepositoryManager {
	return &RepositoryManager{
		config:  cfg,
		catalog: catalog.NewStore(cfg.CatalogFile),
		mirrors: mirror.NewManager(cfg.ReposDir, runner),
		engine: aggregate.NewEngine(counter, aggregate.Options{
			BinaryPolicy: aggregate.BinaryPolicy(cfg.BinaryPolicy),
			Preamble:     cfg.Preamble,
			TokenBudget:  cfg.TokenBudget,
		}),
		resolver: resolver,
		locks:    newKeyedLocks(),
	}
}

// Catalog exposes the underlying catalog store
func (m *RepositoryManager) Catalog() *catalog.Store {
	return m.catalog
}

// CleanStaging removes clone leftovers from an earlier crashed run. Only call
// it when no other process shares the mirrors root.
func (m *RepositoryManager) CleanStaging() error {
	return m.mirrors.CleanStaging()
}

// ListRepositories returns the catalog entries in order
func (m *RepositoryManager) ListRepositories() ([]catalog.Repository, error) {
	cat, err := m.catalog.Load()
	if err != nil {
		return nil, err
	}
	return cat.Repositories, nil
}

// SyncRepository brings the named mirror up to date. A non-empty
// branchOverride is validated and persisted before the sync runs.
func (m *RepositoryManager) SyncRepository(ctx context.Context, name, branchOverride string) (*SyncResult, error) {
	var repo *catalog.Repository
	var err error
	if branchOverride != "" {
		repo, err = m.setBranch(name, branchOverride)
	} else {
		repo, err = m.find(name)
	}
	if err != nil {
		return nil, err
	}

	result, err := m.syncLocked(ctx, *repo)
	if err != nil {
		return result, err
	}
	result.Message = fmt.Sprintf("Repository %s updated successfully", name)
	return result, nil
}

// UpdateBranch switches the tracked branch of a repository and re-syncs it.
// The new branch stays persisted even when the sync fails.
func (m *RepositoryManager) UpdateBranch(ctx context.Context, name, branch string) (*SyncResult, error) {
	repo, err := m.setBranch(name, branch)
	if err != nil {
		return nil, err
	}

	result, err := m.syncLocked(ctx, *repo)
	if err != nil {
		return result, err
	}
	result.Message = fmt.Sprintf("Branch for %s updated to %s successfully", name, branch)
	return result, nil
}

// AddRepository records a new repository and clones it. When the clone fails
// the catalog entry is removed again and the sync error returned.
func (m *RepositoryManager) AddRepository(ctx context.Context, name, url, branch string) (*SyncResult, error) {
	if branch == "" && m.config.ResolveDefaultBranch {
		branch = m.defaultBranch(ctx, url)
	}

	repo := catalog.Repository{Name: name, URL: strings.TrimSpace(url), Branch: branch}
	err := m.catalog.Update(func(c *catalog.Catalog) error {
		return c.Add(repo)
	})
	if err != nil {
		return nil, err
	}

	added, err := m.find(name)
	if err != nil {
		return nil, err
	}

	// a mirror left from an earlier entry with this name is updated in place
	preexisting, err := m.mirrors.Exists(name)
	if err != nil {
		slog.Warn("Failed to inspect mirror", "repository", name, "error", err)
	} else if preexisting {
		slog.Warn("Reusing existing mirror for new repository", "repository", name)
	}

	result, syncErr := m.syncLocked(ctx, *added)
	if syncErr != nil {
		slog.Warn("Removing repository after failed clone", "repository", name)
		if preexisting {
			slog.Warn("Existing mirror left in place", "repository", name)
		}
		rollbackErr := m.catalog.Update(func(c *catalog.Catalog) error {
			c.Remove(name)
			return nil
		})
		if rollbackErr != nil {
			slog.Error("Failed to roll back catalog entry", "repository", name, "error", rollbackErr)
		}
		return result, fmt.Errorf("failed to clone repository %s: %w", name, syncErr)
	}

	result.Message = fmt.Sprintf("Repository %s added successfully", name)
	return result, nil
}

// AddPattern stores a pattern set under label, replacing any existing one
func (m *RepositoryManager) AddPattern(name, label string, patterns []string) error {
	err := m.catalog.Update(func(c *catalog.Catalog) error {
		repo, err := c.Find(name)
		if err != nil {
			return err
		}
		return repo.SetPatterns(strings.TrimSpace(label), patterns)
	})
	if err != nil {
		return err
	}

	slog.Info("Pattern set saved", "repository", name, "label", label, "patterns", len(patterns))
	return nil
}

// Clip aggregates the files selected by the named pattern set and writes the
// document to a scratch file. A file that cannot be read is reported in the
// result rather than as an error.
func (m *RepositoryManager) Clip(ctx context.Context, name, label string) (*ClipResult, error) {
	repo, err := m.find(name)
	if err != nil {
		return nil, err
	}
	patterns, err := repo.PatternList(label)
	if err != nil {
		return nil, err
	}
	path, err := m.mirrors.Path(name)
	if err != nil {
		return nil, err
	}

	unlock := m.locks.rlock(name)
	res, err := m.engine.Aggregate(ctx, path, patterns)
	unlock()

	var readErr *aggregate.ReadError
	if errors.As(err, &readErr) {
		return &ClipResult{Success: false, Message: "Error: " + readErr.Error()}, nil
	}
	if err != nil {
		return nil, err
	}

	result := &ClipResult{
		Success:       res.Success,
		Message:       res.Message,
		Tokens:        res.Tokens,
		Files:         res.Files,
		Skipped:       res.Skipped,
		ExceedsBudget: res.ExceedsBudget,
		Document:      res.Document,
	}
	if !res.Success {
		return result, nil
	}

	result.TempFile, err = m.writeScratch(name, res.Document)
	if err != nil {
		return nil, err
	}

	slog.Info("Pattern set aggregated", "repository", name, "label", label, "files", len(res.Files), "tokens", res.Tokens)
	return result, nil
}

// SyncAll syncs every catalog repository with bounded parallelism. A failing
// repository is logged and counted but never stops the others.
func (m *RepositoryManager) SyncAll(ctx context.Context) (*SyncSummary, error) {
	cat, err := m.catalog.Load()
	if err != nil {
		return nil, err
	}

	summary := &SyncSummary{Results: make([]SyncResult, len(cat.Repositories))}
	var mu sync.Mutex // Protects the counters

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.config.SyncConcurrency)

	for i, repo := range cat.Repositories {
		g.Go(func() error {
			result, err := m.syncLocked(gctx, repo)
			summary.Results[i] = *result

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Error("Repository sync failed", "repository", repo.Name, "error", err)
				summary.Failed++
				return nil
			}
			summary.Succeeded++
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}

	slog.Info("Synced all repositories", "succeeded", summary.Succeeded, "failed", summary.Failed)
	return summary, nil
}

// Status compares the mirror with its remote branch. Remote lookup failures
// are recorded in the result and do not fail the call.
func (m *RepositoryManager) Status(ctx context.Context, name string) (*StatusResult, error) {
	repo, err := m.find(name)
	if err != nil {
		return nil, err
	}

	status := &StatusResult{
		Repository: repo.Name,
		URL:        repo.URL,
		Branch:     repo.Branch,
		Patterns:   repo.Patterns.Labels(),
	}

	unlock := m.locks.rlock(name)
	status.Cloned, err = m.mirrors.Exists(name)
	if err == nil && status.Cloned {
		status.LocalBranch, err = m.mirrors.CurrentBranch(ctx, name)
		if err == nil {
			status.LocalCommit, err = m.mirrors.Head(ctx, name)
		}
	}
	unlock()
	if err != nil {
		return nil, err
	}

	status.RemoteCommit, err = m.resolver.BranchTip(ctx, repo.URL, repo.Branch)
	if err != nil {
		slog.Warn("Failed to resolve remote branch tip", "repository", name, "error", err)
		status.RemoteError = err.Error()
	}

	status.UpToDate = status.Cloned &&
		status.RemoteCommit != "" &&
		status.LocalBranch == repo.Branch &&
		status.LocalCommit == status.RemoteCommit
	return status, nil
}

// syncLocked runs one sync under the repository's write lock. The returned
// result is never nil.
func (m *RepositoryManager) syncLocked(ctx context.Context, repo catalog.Repository) (*SyncResult, error) {
	unlock := m.locks.lock(repo.Name)
	defer unlock()

	result := &SyncResult{Repository: repo.Name, Branch: repo.Branch}
	if err := m.mirrors.Sync(ctx, repo.Name, repo.URL, repo.Branch); err != nil {
		result.Message = fmt.Sprintf("Failed to update repository %s: %v", repo.Name, err)
		var syncErr *mirror.SyncError
		if errors.As(err, &syncErr) {
			result.Step = string(syncErr.Step)
		}
		return result, err
	}

	result.Success = true
	return result, nil
}

func (m *RepositoryManager) find(name string) (*catalog.Repository, error) {
	cat, err := m.catalog.Load()
	if err != nil {
		return nil, err
	}
	return cat.Find(name)
}

func (m *RepositoryManager) setBranch(name, branch string) (*catalog.Repository, error) {
	branch = strings.TrimSpace(branch)
	if err := mirror.ValidateBranch(branch); err != nil {
		return nil, err
	}

	var updated catalog.Repository
	err := m.catalog.Update(func(c *catalog.Catalog) error {
		repo, err := c.Find(name)
		if err != nil {
			return err
		}
		repo.Branch = branch
		updated = *repo
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Tracked branch changed", "repository", name, "branch", branch)
	return &updated, nil
}

// defaultBranch asks the remote for its default branch, falling back to main
func (m *RepositoryManager) defaultBranch(ctx context.Context, url string) string {
	branch, err := m.resolver.DefaultBranch(ctx, url)
	if err != nil || branch == "" {
		slog.Warn("Failed to resolve default branch, using fallback", "url", url, "fallback", types.FallbackBranch, "error", err)
		return types.FallbackBranch
	}
	return branch
}

func (m *RepositoryManager) writeScratch(name, document string) (string, error) {
	if err := os.MkdirAll(m.config.ScratchDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}

	f, err := os.CreateTemp(m.config.ScratchDir, "clip-"+name+"-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create scratch file: %w", err)
	}
	if _, err := f.WriteString(document); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write scratch file: %w", err)
	}
	return f.Name(), nil
}
