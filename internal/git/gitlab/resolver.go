package gitlab

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	gitshared "repo-clipboard/internal/git/shared"
	"repo-clipboard/internal/git/types"
)

// Resolver implements RemoteResolver for one GitLab instance
type Resolver struct {
	client *gitlab.Client
	host   string
}

// NewResolver creates a resolver for remotes hosted at baseURL's host
func NewResolver(client *gitlab.Client, baseURL string) (*Resolver, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return nil, fmt.Errorf("invalid GitLab base URL %q", baseURL)
	}
	return &Resolver{
		client: client,
		host:   strings.ToLower(u.Hostname()),
	}, nil
}

// Name returns the platform name
func (r *Resolver) Name() string {
	return "GitLab"
}

// Supports reports whether remoteURL lives on the configured GitLab host
func (r *Resolver) Supports(remoteURL string) bool {
	_, err := r.projectPath(remoteURL)
	return err == nil
}

// DefaultBranch returns the default branch name for the project
func (r *Resolver) DefaultBranch(ctx context.Context, remoteURL string) (string, error) {
	projectPath, err := r.projectPath(remoteURL)
	if err != nil {
		return "", err
	}

	// client-go escapes the project path itself
	project, _, err := r.client.Projects.GetProject(projectPath, &gitlab.GetProjectOptions{}, gitlab.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to fetch repository info for %s: %w", projectPath, err)
	}

	// Empty repositories have empty DefaultBranch
	if project.DefaultBranch == "" {
		return types.FallbackBranch, nil
	}

	slog.Debug("Resolved default branch via GitLab", "project", projectPath, "branch", project.DefaultBranch)
	return project.DefaultBranch, nil
}

// BranchTip returns the commit SHA at the tip of branch
func (r *Resolver) BranchTip(ctx context.Context, remoteURL, branch string) (string, error) {
	projectPath, err := r.projectPath(remoteURL)
	if err != nil {
		return "", err
	}

	b, resp, err := r.client.Branches.GetBranch(projectPath, branch, gitlab.WithContext(ctx))
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("%w: %s in %s", types.ErrBranchNotFound, branch, projectPath)
		}
		return "", fmt.Errorf("failed to fetch branch %s of %s: %w", branch, projectPath, err)
	}
	if b.Commit == nil {
		return "", fmt.Errorf("branch %s of %s has no commit", branch, projectPath)
	}

	return b.Commit.ID, nil
}

func (r *Resolver) projectPath(remoteURL string) (string, error) {
	remote, err := gitshared.ParseRemoteURL(remoteURL)
	if err != nil {
		return "", err
	}
	if remote.Host != r.host {
		return "", fmt.Errorf("%w: %s is not on %s", types.ErrUnsupportedRemote, remoteURL, r.host)
	}
	return remote.FullPath(), nil
}
