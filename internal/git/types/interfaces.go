package types

import (
	"context"
)

// RemoteResolver answers questions about a remote repository without cloning it
type RemoteResolver interface {
	// Name returns the platform name (e.g., "GitHub", "GitLab")
	Name() string

	// Supports reports whether the resolver can handle the remote URL
	Supports(remoteURL string) bool

	// DefaultBranch returns the branch the remote HEAD points at
	DefaultBranch(ctx context.Context, remoteURL string) (string, error)

	// BranchTip returns the commit SHA at the tip of branch.
	// Returns ErrBranchNotFound when the branch does not exist.
	BranchTip(ctx context.Context, remoteURL, branch string) (string, error)
}
