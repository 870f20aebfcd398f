package aggregate

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// File is one resolved match: its absolute path and its slash-separated path
// relative to the mirror root.
type File struct {
	Path    string
	RelPath string
}

// IsGlob reports whether pattern contains a wildcard token
func IsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// Resolve expands patterns against the tree rooted at root. Pattern order is
// kept, matches within a glob are sorted lexically, and a path matched
// more than once is kept at its first position. Directories, missing paths,
// anything inside .git and symlinks leading out of root are skipped.
//
// A pattern that names an existing file is taken literally even when it
// contains wildcard characters, so "pages/[id].tsx" selects that file.
// Wildcards match dot-files and dot-directories like any other name.
func Resolve(root string, patterns []string) ([]File, error) {
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve mirror root %s: %w", root, err)
	}

	fsys := os.DirFS(root)
	seen := make(map[string]bool)
	var files []File

	for _, raw := range patterns {
		pattern := normalizePattern(raw)
		if pattern == "" {
			continue
		}
		if !fs.ValidPath(pattern) {
			slog.Warn("Ignoring pattern outside the repository", "pattern", raw)
			continue
		}

		var matches []string
		if IsGlob(pattern) && !isRegularFileWithin(realRoot, filepath.Join(root, filepath.FromSlash(pattern))) {
			if !doublestar.ValidatePattern(pattern) {
				slog.Warn("Ignoring malformed pattern", "pattern", raw)
				continue
			}
			matches, err = doublestar.Glob(fsys, pattern)
			if err != nil {
				return nil, fmt.Errorf("failed to expand pattern %q: %w", raw, err)
			}
			slices.Sort(matches)
		} else {
			matches = []string{pattern}
		}

		for _, rel := range matches {
			if seen[rel] || insideGitDir(rel) {
				continue
			}
			abs := filepath.Join(root, filepath.FromSlash(rel))
			if !isRegularFileWithin(realRoot, abs) {
				continue
			}
			seen[rel] = true
			files = append(files, File{Path: abs, RelPath: rel})
		}

		slog.Debug("Resolved pattern", "pattern", raw, "matches", len(matches))
	}

	return files, nil
}

func normalizePattern(pattern string) string {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return ""
	}
	pattern = filepath.ToSlash(pattern)
	if path.IsAbs(pattern) || filepath.IsAbs(pattern) {
		// leave it invalid so the caller rejects it
		return pattern
	}
	return path.Clean(pattern)
}

func insideGitDir(rel string) bool {
	for _, segment := range strings.Split(rel, "/") {
		if segment == ".git" {
			return true
		}
	}
	return false
}

func isRegularFileWithin(realRoot, abs string) bool {
	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}

	target, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(realRoot, target)
	if err != nil || !filepath.IsLocal(rel) {
		slog.Warn("Skipping file that resolves outside the repository", "path", abs)
		return false
	}
	return true
}
