package remote

import (
	"context"
	"fmt"
	"strings"

	"repo-clipboard/internal/git/mirror"
	"repo-clipboard/internal/git/types"
)

// GitResolver answers remote questions with git ls-remote, so it works for
// any URL git itself can reach, local paths included.
type GitResolver struct {
	runner mirror.Runner
}

// NewGitResolver creates a resolver that runs git through runner
func NewGitResolver(runner mirror.Runner) *GitResolver {
	return &GitResolver{runner: runner}
}

func (g *GitResolver) Name() string {
	return "git"
}

func (g *GitResolver) Supports(string) bool {
	return true
}

// DefaultBranch reads the symbolic HEAD the remote advertises
func (g *GitResolver) DefaultBranch(ctx context.Context, remoteURL string) (string, error) {
	out, err := g.runner.Run(ctx, mirror.LsRemoteHeadCommand(remoteURL))
	if err != nil {
		return "", fmt.Errorf("failed to query HEAD of %s: %w", remoteURL, err)
	}

	for _, line := range strings.Split(out, "\n") {
		target, ok := strings.CutPrefix(line, "ref: ")
		if !ok {
			continue
		}
		fields := strings.Fields(target)
		if len(fields) == 2 && fields[1] == "HEAD" {
			return strings.TrimPrefix(fields[0], "refs/heads/"), nil
		}
	}

	// remotes without commits advertise no HEAD
	return types.FallbackBranch, nil
}

// BranchTip reads the commit the remote branch points at
func (g *GitResolver) BranchTip(ctx context.Context, remoteURL, branch string) (string, error) {
	if err := mirror.ValidateBranch(branch); err != nil {
		return "", err
	}

	out, err := g.runner.Run(ctx, mirror.LsRemoteBranchCommand(remoteURL, branch))
	if err != nil {
		return "", fmt.Errorf("failed to query branch %s of %s: %w", branch, remoteURL, err)
	}

	want := "refs/heads/" + branch
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[1] == want {
			return fields[0], nil
		}
	}
	return "", fmt.Errorf("%w: %s", types.ErrBranchNotFound, branch)
}
