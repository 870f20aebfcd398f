package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Runner executes a git command and returns its trimmed standard output
type Runner interface {
	Run(ctx context.Context, cmd Command) (string, error)
}

// ExecRunner runs commands through the git executable
type ExecRunner struct {
	git string
}

// NewExecRunner creates a runner for the given git executable ("git" when empty)
func NewExecRunner(git string) *ExecRunner {
	if git == "" {
		git = "git"
	}
	return &ExecRunner{git: git}
}

// Run executes cmd and blocks until git exits or ctx is cancelled
func (r *ExecRunner) Run(ctx context.Context, c Command) (string, error) {
	cmd := exec.CommandContext(ctx, r.git, c.Argv()...)
	cmd.Dir = c.Dir
	// Never wait on a credential prompt
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	if c.Dir != "" {
		// git must not climb out of the mirror into an enclosing repository
		ceiling, err := filepath.Abs(filepath.Dir(c.Dir))
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s: %w", c.Dir, err)
		}
		cmd.Env = append(cmd.Env, "GIT_CEILING_DIRECTORIES="+ceiling)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	output := strings.TrimSpace(stdout.String())
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return output, fmt.Errorf("%s exited with code %d: %s: %w", c, exitErr.ExitCode(), detail, err)
		}
		return output, fmt.Errorf("failed to run %s: %w", c, err)
	}

	return output, nil
}
