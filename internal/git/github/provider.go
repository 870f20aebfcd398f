package github

import (
	"log/slog"
	"net/http"

	"repo-clipboard/internal/config"
	"repo-clipboard/internal/git/github/graphql"
	"repo-clipboard/internal/git/github/rest"
	ghshared "repo-clipboard/internal/git/github/shared"
	"repo-clipboard/internal/git/types"
)

// NewResolver creates a GitHub resolver based on configuration.
// Returns the GraphQL-based resolver if CLIP_GITHUB_USE_GRAPHQL=true, otherwise REST-based.
// GraphQL needs a token, so without one REST is used regardless.
func NewResolver(cfg *config.Config, httpClient *http.Client) types.RemoteResolver {
	if cfg.GitHubUseGraphQL && cfg.GitHubToken != "" {
		slog.Info("Using GitHub GraphQL API")
		return graphql.NewResolver(cfg.GitHubToken, httpClient)
	}

	slog.Debug("Using GitHub REST API")
	return rest.NewResolver(ghshared.NewRESTClient(cfg.GitHubToken, httpClient))
}
