package mirror

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gitOrSkip runs git in dir and fails the test on error
func gitOrSkip(t *testing.T, dir string, args ...string) string {
	t.Helper()
	base := []string{"-c", "user.name=test", "-c", "user.email=test@example.com", "-c", "commit.gpgsign=false"}
	cmd := exec.Command("git", append(base, args...)...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
	return string(out)
}

func newUpstream(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	gitOrSkip(t, dir, "init", "--quiet", "--initial-branch=main")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# upstream\n"), 0o644))
	gitOrSkip(t, dir, "add", "README.md")
	gitOrSkip(t, dir, "commit", "--quiet", "-m", "initial")
	return dir
}

func revParse(t *testing.T, dir string) string {
	t.Helper()
	out, err := NewExecRunner("").Run(context.Background(), headCommand(dir))
	require.NoError(t, err)
	return out
}

func TestExecRunner_SyncAgainstLocalUpstream(t *testing.T) {
	upstream := newUpstream(t)
	root := t.TempDir()
	m := NewManager(root, NewExecRunner("git"))
	ctx := context.Background()

	// first sync clones
	require.NoError(t, m.Sync(ctx, "demo", upstream, "main"))
	mirrorPath := filepath.Join(root, "demo")
	assert.Equal(t, revParse(t, upstream), revParse(t, mirrorPath))

	// second sync with no remote change converges to the same state
	before, err := os.ReadFile(filepath.Join(mirrorPath, "README.md"))
	require.NoError(t, err)
	require.NoError(t, m.Sync(ctx, "demo", upstream, "main"))
	after, err := os.ReadFile(filepath.Join(mirrorPath, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, revParse(t, upstream), revParse(t, mirrorPath))

	// local edits are discarded and new upstream commits arrive
	require.NoError(t, os.WriteFile(filepath.Join(mirrorPath, "README.md"), []byte("local edit\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(upstream, "NEW.md"), []byte("new\n"), 0o644))
	gitOrSkip(t, upstream, "add", "NEW.md")
	gitOrSkip(t, upstream, "commit", "--quiet", "-m", "second")

	require.NoError(t, m.Sync(ctx, "demo", upstream, "main"))
	assert.Equal(t, revParse(t, upstream), revParse(t, mirrorPath))
	assert.FileExists(t, filepath.Join(mirrorPath, "NEW.md"))
	content, err := os.ReadFile(filepath.Join(mirrorPath, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "# upstream\n", string(content))

	head, err := m.Head(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, revParse(t, upstream), head)
	branch, err := m.CurrentBranch(ctx, "demo")
	require.NoError(t, err)
	assert.Equal(t, "main", branch)
}

func TestExecRunner_CloneOfMissingBranchFails(t *testing.T) {
	upstream := newUpstream(t)
	root := t.TempDir()
	m := NewManager(root, NewExecRunner(""))

	err := m.Sync(context.Background(), "demo", upstream, "does-not-exist")

	var syncErr *SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, OpClone, syncErr.Step)
	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExecRunner_MissingExecutable(t *testing.T) {
	r := NewExecRunner(filepath.Join(t.TempDir(), "no-such-git"))
	_, err := r.Run(context.Background(), Command{Op: OpRevParse, Args: []string{"HEAD"}})
	assert.Error(t, err)
}

func TestExecRunner_NeverEscapesIntoEnclosingRepository(t *testing.T) {
	enclosing := newUpstream(t)
	upstream := newUpstream(t)
	require.NoError(t, os.WriteFile(filepath.Join(enclosing, "README.md"), []byte("uncommitted work\n"), 0o644))

	root := filepath.Join(enclosing, "repos")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "demo"), 0o755))
	m := NewManager(root, NewExecRunner(""))

	err := m.Sync(context.Background(), "demo", upstream, "main")
	assert.ErrorIs(t, err, ErrNotAMirror)

	_, err = NewExecRunner("").Run(context.Background(), headCommand(filepath.Join(root, "demo")))
	assert.Error(t, err, "git must not find the enclosing repository")

	content, err := os.ReadFile(filepath.Join(enclosing, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "uncommitted work\n", string(content))
}

func TestExecRunner_SyncFollowsChangedURL(t *testing.T) {
	first := newUpstream(t)
	second := newUpstream(t)
	require.NoError(t, os.WriteFile(filepath.Join(second, "SECOND.md"), []byte("2\n"), 0o644))
	gitOrSkip(t, second, "add", "SECOND.md")
	gitOrSkip(t, second, "commit", "--quiet", "-m", "second")

	root := t.TempDir()
	m := NewManager(root, NewExecRunner(""))
	ctx := context.Background()

	require.NoError(t, m.Sync(ctx, "demo", first, "main"))
	require.NoError(t, m.Sync(ctx, "demo", second, "main"))

	mirrorPath := filepath.Join(root, "demo")
	assert.Equal(t, revParse(t, second), revParse(t, mirrorPath))
	assert.FileExists(t, filepath.Join(mirrorPath, "SECOND.md"))
}
