package shared

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v80/github"

	gitshared "repo-clipboard/internal/git/shared"
	"repo-clipboard/internal/git/types"
)

// Host is the only host GitHub resolvers accept
const Host = "github.com"

// ParseRepoURL extracts owner and repo from a GitHub remote URL
func ParseRepoURL(remoteURL string) (owner, repo string, err error) {
	remote, err := gitshared.ParseRemoteURL(remoteURL)
	if err != nil {
		return "", "", err
	}
	if remote.Host != Host && remote.Host != "www."+Host {
		return "", "", fmt.Errorf("%w: not a GitHub URL: %s", types.ErrUnsupportedRemote, remoteURL)
	}
	if strings.Contains(remote.Owner, "/") {
		return "", "", fmt.Errorf("%w: invalid GitHub repository path: %s", types.ErrUnsupportedRemote, remoteURL)
	}
	return remote.Owner, remote.Name, nil
}

// IsRepoURL reports whether remoteURL points at a GitHub repository
func IsRepoURL(remoteURL string) bool {
	_, _, err := ParseRepoURL(remoteURL)
	return err == nil
}

// NewRESTClient creates a GitHub REST API client. An empty token gives an
// unauthenticated client with the public rate limit.
func NewRESTClient(token string, httpClient *http.Client) *github.Client {
	client := github.NewClient(httpClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return client
}
