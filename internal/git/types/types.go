package types

import "errors"

// FallbackBranch is reported for remotes that have no default branch yet
const FallbackBranch = "main"

var (
	// ErrBranchNotFound means the remote has no branch with the requested name
	ErrBranchNotFound = errors.New("branch not found on remote")
	// ErrUnsupportedRemote means a resolver cannot handle the remote URL
	ErrUnsupportedRemote = errors.New("unsupported remote")
)

// RemoteRepository identifies a repository on a hosting platform
type RemoteRepository struct {
	Host  string
	Owner string // namespace, may contain slashes on GitLab
	Name  string
}

// FullPath returns owner/name
func (r RemoteRepository) FullPath() string {
	return r.Owner + "/" + r.Name
}
