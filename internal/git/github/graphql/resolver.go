package graphql

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/shurcooL/githubv4"

	ghshared "repo-clipboard/internal/git/github/shared"
	"repo-clipboard/internal/git/types"
)

// Resolver implements RemoteResolver using GitHub's GraphQL API, which
// answers each question in a single round trip.
type Resolver struct {
	client *githubv4.Client
}

// NewResolver creates a GitHub GraphQL-based resolver
func NewResolver(token string, httpClient *http.Client) *Resolver {
	return &Resolver{client: newClient(token, httpClient)}
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

	var query struct {
		Repository struct {
			DefaultBranchRef *struct {
				Name githubv4.String
			}
		} `graphql:"repository(owner: $owner, name: $repo)"`
	}
	variables := map[string]interface{}{
		"owner": githubv4.String(owner),
		"repo":  githubv4.String(repo),
	}

	if err := r.client.Query(ctx, &query, variables); err != nil {
		return "", fmt.Errorf("failed to query default branch for %s/%s: %w", owner, repo, err)
	}

	// Empty repositories have no default branch ref
	if query.Repository.DefaultBranchRef == nil || query.Repository.DefaultBranchRef.Name == "" {
		return types.FallbackBranch, nil
	}

	branch := string(query.Repository.DefaultBranchRef.Name)
	slog.Debug("Resolved default branch via GraphQL", "repository", owner+"/"+repo, "branch", branch)
	return branch, nil
}

// BranchTip returns the commit SHA at the tip of branch
func (r *Resolver) BranchTip(ctx context.Context, remoteURL, branch string) (string, error) {
	owner, repo, err := ghshared.ParseRepoURL(remoteURL)
	if err != nil {
		return "", err
	}

	var query struct {
		Repository struct {
			Ref *struct {
				Target struct {
					Oid githubv4.GitObjectID
				}
			} `graphql:"ref(qualifiedName: $qualifiedName)"`
		} `graphql:"repository(owner: $owner, name: $repo)"`
	}
	variables := map[string]interface{}{
		"owner":         githubv4.String(owner),
		"repo":          githubv4.String(repo),
		"qualifiedName": githubv4.String("refs/heads/" + branch),
	}

	if err := r.client.Query(ctx, &query, variables); err != nil {
		return "", fmt.Errorf("failed to query branch %s of %s/%s: %w", branch, owner, repo, err)
	}

	if query.Repository.Ref == nil {
		return "", fmt.Errorf("%w: %s in %s/%s", types.ErrBranchNotFound, branch, owner, repo)
	}

	return string(query.Repository.Ref.Target.Oid), nil
}
