package shared

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"repo-clipboard/internal/git/types"
)

// scpLikeRegex matches the user@host:path form git accepts for ssh remotes
var scpLikeRegex = regexp.MustCompile(`^(?:[A-Za-z0-9._-]+@)?([A-Za-z0-9.-]+):([^/].*)$`)

// ParseRemoteURL extracts host, namespace and repository name from an https,
// ssh, git or scp-like remote URL. Local paths are not hosted remotes and
// fail with ErrUnsupportedRemote.
func ParseRemoteURL(raw string) (types.RemoteRepository, error) {
	raw = strings.TrimSpace(raw)

	var host, repoPath string
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return types.RemoteRepository{}, fmt.Errorf("%w: %s: %v", types.ErrUnsupportedRemote, raw, err)
		}
		switch u.Scheme {
		case "http", "https", "ssh", "git":
		default:
			return types.RemoteRepository{}, fmt.Errorf("%w: scheme %q in %s", types.ErrUnsupportedRemote, u.Scheme, raw)
		}
		host, repoPath = u.Hostname(), u.Path
	} else if m := scpLikeRegex.FindStringSubmatch(raw); m != nil {
		host, repoPath = m[1], m[2]
	} else {
		return types.RemoteRepository{}, fmt.Errorf("%w: %s", types.ErrUnsupportedRemote, raw)
	}

	repoPath = strings.TrimSuffix(strings.Trim(repoPath, "/"), ".git")
	idx := strings.LastIndex(repoPath, "/")
	if host == "" || idx <= 0 || idx == len(repoPath)-1 {
		return types.RemoteRepository{}, fmt.Errorf("%w: %s has no owner/name path", types.ErrUnsupportedRemote, raw)
	}

	return types.RemoteRepository{
		Host:  strings.ToLower(host),
		Owner: repoPath[:idx],
		Name:  repoPath[idx+1:],
	}, nil
}
