package remote

import (
	"context"
	"log/slog"
	"sync"

	"repo-clipboard/internal/git/types"
)

// defaultBranchCache remembers default branch lookups per remote URL so that
// repeated adds of the same remote do not hit the platform API again. Branch
// tips move and are always looked up.
type defaultBranchCache struct {
	types.RemoteResolver

	mu       sync.Mutex
	branches map[string]string // remote URL → default branch
}

func newDefaultBranchCache(next types.RemoteResolver) *defaultBranchCache {
	return &defaultBranchCache{
		RemoteResolver: next,
		branches:       make(map[string]string),
	}
}

// DefaultBranch returns the cached branch or asks the wrapped resolver
func (c *defaultBranchCache) DefaultBranch(ctx context.Context, remoteURL string) (string, error) {
	c.mu.Lock()
	branch, ok := c.branches[remoteURL]
	c.mu.Unlock()
	if ok {
		slog.Debug("Using cached default branch", "url", remoteURL, "branch", branch)
		return branch, nil
	}

	branch, err := c.RemoteResolver.DefaultBranch(ctx, remoteURL)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.branches[remoteURL] = branch
	c.mu.Unlock()
	return branch, nil
}
