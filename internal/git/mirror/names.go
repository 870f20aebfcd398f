package mirror

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultBranch is used when a caller does not name a branch
const DefaultBranch = "main"

var (
	ErrInvalidName   = errors.New("invalid repository name")
	ErrInvalidBranch = errors.New("invalid branch name")
	ErrInvalidURL    = errors.New("invalid remote URL")
)

// A mirror name becomes a single directory under the mirrors root, so it must
// start with an alphanumeric and contain no separators.
var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

const maxNameLength = 128

// ValidateName checks that name is usable as one filesystem segment under the mirrors root
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: %q is longer than %d characters", ErrInvalidName, name, maxNameLength)
	}
	if strings.Contains(name, "..") || !namePattern.MatchString(name) || !filepath.IsLocal(name) {
		return fmt.Errorf("%w: %q may only contain letters, digits, '.', '_' and '-'", ErrInvalidName, name)
	}
	return nil
}

// ValidateBranch applies the subset of git's ref-format rules that keeps a branch
// name from being read as a command-line option or a revision expression.
func ValidateBranch(branch string) error {
	if branch == "" {
		return fmt.Errorf("%w: branch is empty", ErrInvalidBranch)
	}
	if strings.HasPrefix(branch, "-") {
		return fmt.Errorf("%w: %q starts with '-'", ErrInvalidBranch, branch)
	}
	if strings.Contains(branch, "..") || strings.Contains(branch, "@{") ||
		strings.HasSuffix(branch, "/") || strings.HasSuffix(branch, ".lock") {
		return fmt.Errorf("%w: %q", ErrInvalidBranch, branch)
	}
	if strings.ContainsAny(branch, " ~^:?*[\\\t\n") {
		return fmt.Errorf("%w: %q contains a forbidden character", ErrInvalidBranch, branch)
	}
	return nil
}

func validateURL(remoteURL string) error {
	if strings.TrimSpace(remoteURL) == "" {
		return fmt.Errorf("%w: URL is empty", ErrInvalidURL)
	}
	if strings.HasPrefix(remoteURL, "-") {
		return fmt.Errorf("%w: %q starts with '-'", ErrInvalidURL, remoteURL)
	}
	return nil
}
