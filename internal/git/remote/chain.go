package remote

import (
	"context"
	"errors"
	"log/slog"

	"repo-clipboard/internal/git/types"
)

// Chain asks the first platform resolver that supports a URL and falls back
// to a generic resolver when none does or the platform API fails. A branch
// the platform reports missing is final.
type Chain struct {
	resolvers []types.RemoteResolver
	fallback  types.RemoteResolver
}

// NewChain creates a chain ending in fallback
func NewChain(fallback types.RemoteResolver, resolvers ...types.RemoteResolver) *Chain {
	return &Chain{
		resolvers: resolvers,
		fallback:  fallback,
	}
}

func (c *Chain) Name() string {
	return "chain"
}

func (c *Chain) Supports(remoteURL string) bool {
	return c.pick(remoteURL) != nil || c.fallback.Supports(remoteURL)
}

// DefaultBranch returns the default branch of the remote
func (c *Chain) DefaultBranch(ctx context.Context, remoteURL string) (string, error) {
	if r := c.pick(remoteURL); r != nil {
		branch, err := r.DefaultBranch(ctx, remoteURL)
		if err == nil {
			return branch, nil
		}
		slog.Warn("Platform lookup failed, falling back", "resolver", r.Name(), "operation", "default branch", "error", err)
	}
	return c.fallback.DefaultBranch(ctx, remoteURL)
}

// BranchTip returns the commit at the tip of branch on the remote
func (c *Chain) BranchTip(ctx context.Context, remoteURL, branch string) (string, error) {
	if r := c.pick(remoteURL); r != nil {
		sha, err := r.BranchTip(ctx, remoteURL, branch)
		if err == nil || errors.Is(err, types.ErrBranchNotFound) {
			return sha, err
		}
		slog.Warn("Platform lookup failed, falling back", "resolver", r.Name(), "operation", "branch tip", "error", err)
	}
	return c.fallback.BranchTip(ctx, remoteURL, branch)
}

func (c *Chain) pick(remoteURL string) types.RemoteResolver {
	for _, r := range c.resolvers {
		if r.Supports(remoteURL) {
			return r
		}
	}
	return nil
}
