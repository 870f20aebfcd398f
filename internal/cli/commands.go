package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"repo-clipboard/internal/api"
	"repo-clipboard/internal/catalog"
)

func newInitCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create an empty catalog file if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := catalog.NewStore(a.cfg.CatalogFile)
			created, err := store.Init()
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Created catalog at %s\n", store.Path())
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Catalog already exists at %s\n", store.Path())
			}
			return nil
		},
	}
}

func newListCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked repositories and their pattern sets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repos, err := a.manager.ListRepositories()
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"repositories": repos})
			}

			w := cmd.OutOrStdout()
			if len(repos) == 0 {
				fmt.Fprintln(w, "No repositories configured")
				return nil
			}
			for _, repo := range repos {
				fmt.Fprintf(w, "%s\t%s\t%s\n", repo.Name, repo.Branch, repo.URL)
				for _, label := range repo.Patterns.Labels() {
					patterns, _ := repo.Patterns.Get(label)
					fmt.Fprintf(w, "  %s: %s\n", label, strings.Join(patterns, " "))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	return cmd
}

func newSyncCommand(a *app) *cobra.Command {
	var branch string

	cmd := &cobra.Command{
		Use:   "sync <repository>",
		Short: "Clone or update one mirror",
		Long: `Clone the repository when no mirror exists, otherwise fetch, check out the
tracked branch, hard-reset it to the remote tip and fast-forward.

With --branch the tracked branch is changed and saved before syncing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.manager.SyncRepository(cmd.Context(), args[0], branch)
			if err != nil {
				return err
			}
			printSync(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "switch the tracked branch before syncing")
	return cmd
}

func newSyncAllCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-all",
		Short: "Sync every repository in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			summary, err := a.manager.SyncAll(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, result := range summary.Results {
				status := "ok"
				if !result.Success {
					status = "failed at " + result.Step
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", result.Repository, result.Branch, status)
			}
			fmt.Fprintf(w, "%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)

			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d repositories failed to sync", summary.Failed, len(summary.Results))
			}
			return nil
		},
	}
}

func newClipCommand(a *app) *cobra.Command {
	var copyToClipboard bool

	cmd := &cobra.Command{
		Use:   "clip <repository> <pattern-set>",
		Short: "Concatenate the files a pattern set selects",
		Long: `Resolve the named pattern set inside the repository mirror and build one
document with a "# File: <path>" header before each file.

The document is written to stdout, or to the system clipboard with --copy.
The token count and scratch file path go to stderr.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.manager.Clip(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if !result.Success {
				return errors.New(result.Message)
			}

			if copyToClipboard {
				if err := a.deps.CopyToClipboard(result.Document); err != nil {
					return fmt.Errorf("failed to copy to clipboard: %w", err)
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), result.Document)
			}

			stderr := cmd.ErrOrStderr()
			fmt.Fprintln(stderr, result.Message)
			if len(result.Skipped) > 0 {
				fmt.Fprintf(stderr, "Skipped non-text files: %s\n", strings.Join(result.Skipped, ", "))
			}
			if copyToClipboard {
				fmt.Fprintf(stderr, "Copied %d files to the clipboard\n", len(result.Files))
			}
			if result.TempFile != "" {
				fmt.Fprintf(stderr, "Saved to %s\n", result.TempFile)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&copyToClipboard, "copy", "c", false, "copy the document to the system clipboard instead of printing it")
	return cmd
}

func newAddCommand(a *app) *cobra.Command {
	var branch string

	cmd := &cobra.Command{
		Use:   "add <name> <url>",
		Short: "Add a repository to the catalog and clone it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.manager.AddRepository(cmd.Context(), args[0], args[1], branch)
			if err != nil {
				return err
			}
			printSync(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringVarP(&branch, "branch", "b", "", "branch to track (default: main, or the remote default when resolve_default_branch is set)")
	return cmd
}

func newAddPatternCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add-pattern <repository> <label> <pattern>...",
		Short: "Save a named pattern set for a repository",
		Long: `Save a named pattern set, replacing any set with the same label.
Patterns may be separated by commas or whitespace; globs support ** for any
number of directories.`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			patterns := catalog.ParsePatterns(strings.Join(args[2:], " "))
			if err := a.manager.AddPattern(args[0], args[1], patterns); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pattern %s added to %s successfully\n", args[1], args[0])
			return nil
		},
	}
}

func newSetBranchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set-branch <repository> <branch>",
		Short: "Change the tracked branch and re-sync",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.manager.UpdateBranch(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			printSync(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newStatusCommand(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status <repository>",
		Short: "Compare a mirror with its remote branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := a.manager.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(w, status)
			}

			fmt.Fprintf(w, "Repository: %s\n", status.Repository)
			fmt.Fprintf(w, "Remote:     %s (%s)\n", status.URL, status.Branch)
			if !status.Cloned {
				fmt.Fprintln(w, "Mirror:     not cloned")
			} else {
				fmt.Fprintf(w, "Mirror:     %s at %s\n", status.LocalBranch, status.LocalCommit)
			}
			if status.RemoteError != "" {
				fmt.Fprintf(w, "Remote tip: unknown (%s)\n", status.RemoteError)
			} else {
				fmt.Fprintf(w, "Remote tip: %s\n", status.RemoteCommit)
			}
			fmt.Fprintf(w, "Up to date: %t\n", status.UpToDate)
			fmt.Fprintf(w, "Patterns:   %s\n", strings.Join(status.Patterns, ", "))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the status as JSON")
	return cmd
}

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Long: `Serve the JSON API on listen_addr. Every catalog repository is synced first
unless sync_on_startup is disabled; sync failures are logged and do not stop
the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if err := a.manager.CleanStaging(); err != nil {
				slog.Warn("Failed to clean staging directories", "error", err)
			}

			if a.cfg.SyncOnStartup {
				if _, err := a.manager.SyncAll(ctx); err != nil {
					slog.Error("Startup sync failed", "error", err)
				}
			}

			return api.ListenAndServe(ctx, a.cfg.ListenAddr, api.NewServer(a.manager).Handler())
		},
	}
	cmd.Flags().String("listen-addr", ":8000", "address the API listens on")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
