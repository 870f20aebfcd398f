package gitlab

import (
	"net/http"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"repo-clipboard/internal/config"
)

// NewClient creates a GitLab API client for the configured instance
func NewClient(cfg *config.Config, httpClient *http.Client) (*gitlab.Client, error) {
	opts := []gitlab.ClientOptionFunc{gitlab.WithBaseURL(cfg.GitLabBaseURL)}
	if httpClient != nil {
		opts = append(opts, gitlab.WithHTTPClient(httpClient))
	}
	return gitlab.NewClient(cfg.GitLabToken, opts...)
}
