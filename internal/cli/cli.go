package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"repo-clipboard/internal"
	"repo-clipboard/internal/api"
	"repo-clipboard/internal/config"
	"repo-clipboard/internal/logger"
)

// Manager is what the commands need from the repository manager
type Manager interface {
	api.Service
	SyncAll(ctx context.Context) (*internal.SyncSummary, error)
	CleanStaging() error
}

// Dependencies lets tests replace the manager and the system clipboard
type Dependencies struct {
	NewManager      func(cfg *config.Config) (Manager, error)
	CopyToClipboard func(text string) error
}

// DefaultDependencies wires the real repository manager and clipboard
func DefaultDependencies() Dependencies {
	return Dependencies{
		NewManager: func(cfg *config.Config) (Manager, error) {
			manager, err := internal.New(cfg)
			if err != nil {
				return nil, err
			}
			return manager, nil
		},
		CopyToClipboard: clipboard.WriteAll,
	}
}

// app carries state shared by every command once the root has run
type app struct {
	deps    Dependencies
	cfg     *config.Config
	manager Manager
}

// NewRootCommand builds the repo-clipboard command tree
func NewRootCommand(deps Dependencies) *cobra.Command {
	a := &app{deps: deps}

	root := &cobra.Command{
		Use:   "repo-clipboard",
		Short: "Mirror git repositories and copy selected files as one document",
		Long: `repo-clipboard keeps local mirrors of git repositories in sync and
concatenates the files matched by named pattern sets into a single
delimited document, sized in model tokens, ready to paste.

Configuration is read from CLIP_* environment variables; the flags
below override them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(
		newInitCommand(a),
		newListCommand(a),
		newSyncCommand(a),
		newSyncAllCommand(a),
		newClipCommand(a),
		newAddCommand(a),
		newAddPatternCommand(a),
		newSetBranchCommand(a),
		newStatusCommand(a),
		newServeCommand(a),
	)

	return root
}

// Execute runs the root command with the real dependencies
func Execute(ctx context.Context) error {
	return NewRootCommand(DefaultDependencies()).ExecuteContext(ctx)
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Setup(cfg)
	a.cfg = cfg

	// init only touches the catalog file
	if cmd.Name() == "init" {
		return nil
	}

	a.manager, err = a.deps.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to create repository manager: %w", err)
	}
	return nil
}

func printSync(w io.Writer, result *internal.SyncResult) {
	if result != nil && result.Success {
		fmt.Fprintln(w, result.Message)
	}
}
