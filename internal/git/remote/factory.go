package remote

import (
	"fmt"

	"repo-clipboard/internal/config"
	"repo-clipboard/internal/git/github"
	"repo-clipboard/internal/git/gitlab"
	"repo-clipboard/internal/git/mirror"
	"repo-clipboard/internal/git/types"
	httputil "repo-clipboard/internal/http"
)

// NewFromConfig builds the resolver chain: GitHub always, GitLab when a
// token is configured, git ls-remote for everything else. Default branch
// lookups are cached for the life of the process.
func NewFromConfig(cfg *config.Config, runner mirror.Runner) (types.RemoteResolver, error) {
	httpClient := httputil.NewHTTPClient(httputil.HTTPClientOptions{
		Timeout: cfg.HTTPTimeout(),
	})
	resolvers := []types.RemoteResolver{github.NewResolver(cfg, httpClient)}

	if cfg.GitLabToken != "" {
		gitlabHTTP := httputil.NewHTTPClient(httputil.HTTPClientOptions{
			Timeout:       cfg.HTTPTimeout(),
			SkipSSLVerify: cfg.GitLabSkipSSLVerify,
		})
		client, err := gitlab.NewClient(cfg, gitlabHTTP)
		if err != nil {
			return nil, fmt.Errorf("failed to create GitLab client: %w", err)
		}
		resolver, err := gitlab.NewResolver(client, cfg.GitLabBaseURL)
		if err != nil {
			return nil, err
		}
		resolvers = append(resolvers, resolver)
	}

	return newDefaultBranchCache(NewChain(NewGitResolver(runner), resolvers...)), nil
}
