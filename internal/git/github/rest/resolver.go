package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v80/github"

	ghshared "repo-clipboard/internal/git/github/shared"
	"repo-clipboard/internal/git/types"
)

// Resolver implements RemoteResolver using the GitHub REST API
type Resolver struct {
	client *github.Client
}

// NewResolver creates a GitHub REST-based resolver
func NewResolver(client *github.Client) *Resolver {
	return &Resolver{client: client}
}

// Name returns the platform name
func (r *Resolver) Name() string {
	return "GitHub"
}

// Supports checks if a URL is a GitHub repository URL
func (r *Resolver) Supports(remoteURL string) bool {
	return ghshared.IsRepoURL(remoteURL)
}

// DefaultBranch returns the default branch name for the repository
func (r *Resolver) DefaultBranch(ctx context.Context, remoteURL string) (string, error) {
	owner, repo, err := ghshared.ParseRepoURL(remoteURL)
	if err != nil {
		return "", err
	}

	repository, _, err := r.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", fmt.Errorf("failed to fetch repository info for %s/%s: %w", owner, repo, err)
	}

	// Empty repositories have no default branch
	if repository.GetDefaultBranch() == "" {
		return types.FallbackBranch, nil
	}

	slog.Debug("Resolved default branch via REST", "repository", owner+"/"+repo, "branch", repository.GetDefaultBranch())
	return repository.GetDefaultBranch(), nil
}

// BranchTip returns the commit SHA at the tip of branch
func (r *Resolver) BranchTip(ctx context.Context, remoteURL, branch string) (string, error) {
	owner, repo, err := ghshared.ParseRepoURL(remoteURL)
	if err != nil {
		return "", err
	}

	ref, resp, err := r.client.Git.GetRef(ctx, owner, repo, "heads/"+branch)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("%w: %s in %s/%s", types.ErrBranchNotFound, branch, owner, repo)
		}
		return "", fmt.Errorf("failed to fetch branch %s of %s/%s: %w", branch, owner, repo, err)
	}

	return ref.GetObject().GetSHA(), nil
}
