package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestLoad_WithDefaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}

	// Verify defaults
	if cfg.ReposDir != filepath.Join(cwd, "repos") {
		t.Errorf("ReposDir = %v, expected absolute ./repos (default)", cfg.ReposDir)
	}
	if cfg.CatalogFile != filepath.Join(cwd, "config.yaml") {
		t.Errorf("CatalogFile = %v, expected absolute ./config.yaml (default)", cfg.CatalogFile)
	}
	if cfg.GitExecutable != "git" {
		t.Errorf("GitExecutable = %v, expected git (default)", cfg.GitExecutable)
	}
	if cfg.ListenAddr != ":8000" {
		t.Errorf("ListenAddr = %v, expected :8000 (default)", cfg.ListenAddr)
	}
	if cfg.BinaryPolicy != "abort" {
		t.Errorf("BinaryPolicy = %v, expected abort (default)", cfg.BinaryPolicy)
	}
	if cfg.TokenEncoding != "cl100k_base" {
		t.Errorf("TokenEncoding = %v, expected cl100k_base (default)", cfg.TokenEncoding)
	}
	if cfg.TokenBudget != 0 {
		t.Errorf("TokenBudget = %v, expected 0 (default)", cfg.TokenBudget)
	}
	if cfg.SyncConcurrency != 4 {
		t.Errorf("SyncConcurrency = %v, expected 4 (default)", cfg.SyncConcurrency)
	}
	if !cfg.SyncOnStartup {
		t.Errorf("SyncOnStartup = %v, expected true (default)", cfg.SyncOnStartup)
	}
	if cfg.ResolveDefaultBranch {
		t.Errorf("ResolveDefaultBranch = %v, expected false (default)", cfg.ResolveDefaultBranch)
	}
	if cfg.HTTPTimeout() != 30*time.Second {
		t.Errorf("HTTPTimeout = %v, expected 30s (default)", cfg.HTTPTimeout())
	}
	if cfg.ScratchDir != os.TempDir() {
		t.Errorf("ScratchDir = %v, expected %v (default)", cfg.ScratchDir, os.TempDir())
	}
	if cfg.GitLabSkipSSLVerify {
		t.Errorf("GitLabSkipSSLVerify = %v, expected false (default)", cfg.GitLabSkipSSLVerify)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	reposDir := t.TempDir()
	t.Setenv("CLIP_REPOS_DIR", reposDir)
	t.Setenv("CLIP_CATALOG_FILE", filepath.Join(reposDir, "catalog.yaml"))
	t.Setenv("CLIP_GITHUB_TOKEN", "github-token")
	t.Setenv("CLIP_GITHUB_USE_GRAPHQL", "true")
	t.Setenv("CLIP_GITLAB_BASE_URL", "https://gitlab.example.com")
	t.Setenv("CLIP_GITLAB_TOKEN", "gitlab-token")
	t.Setenv("CLIP_SYNC_CONCURRENCY", "8")
	t.Setenv("CLIP_SYNC_ON_STARTUP", "false")
	t.Setenv("CLIP_BINARY_POLICY", "SKIP")
	t.Setenv("CLIP_TOKEN_BUDGET", "120000")
	t.Setenv("CLIP_PREAMBLE", "Repository context")

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.ReposDir != reposDir {
		t.Errorf("ReposDir = %v, expected %v", cfg.ReposDir, reposDir)
	}
	if cfg.GitHubToken != "github-token" {
		t.Errorf("GitHubToken = %v, expected github-token", cfg.GitHubToken)
	}
	if !cfg.GitHubUseGraphQL {
		t.Errorf("GitHubUseGraphQL = %v, expected true", cfg.GitHubUseGraphQL)
	}
	if cfg.GitLabToken != "gitlab-token" {
		t.Errorf("GitLabToken = %v, expected gitlab-token", cfg.GitLabToken)
	}
	if cfg.SyncConcurrency != 8 {
		t.Errorf("SyncConcurrency = %v, expected 8", cfg.SyncConcurrency)
	}
	if cfg.SyncOnStartup {
		t.Errorf("SyncOnStartup = %v, expected false", cfg.SyncOnStartup)
	}
	if cfg.BinaryPolicy != "skip" {
		t.Errorf("BinaryPolicy = %v, expected skip", cfg.BinaryPolicy)
	}
	if cfg.TokenBudget != 120000 {
		t.Errorf("TokenBudget = %v, expected 120000", cfg.TokenBudget)
	}
	if cfg.Preamble != "Repository context" {
		t.Errorf("Preamble = %v, expected Repository context", cfg.Preamble)
	}
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("CLIP_REPOS_DIR", "/from/env")
	t.Setenv("CLIP_LOG_LEVEL", "warn")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	flags.Bool("copy", false, "unrelated flag")
	if err := flags.Parse([]string{"--repos-dir", "/from/flag", "--token-budget", "500"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(flags)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.ReposDir != filepath.Clean("/from/flag") {
		t.Errorf("ReposDir = %v, expected /from/flag", cfg.ReposDir)
	}
	if cfg.TokenBudget != 500 {
		t.Errorf("TokenBudget = %v, expected 500", cfg.TokenBudget)
	}
	// unset flags must not mask the environment
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %v, expected warn", cfg.LogLevel)
	}
	// unset flags must not mask defaults either
	if cfg.BinaryPolicy != "abort" {
		t.Errorf("BinaryPolicy = %v, expected abort", cfg.BinaryPolicy)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		errMsg string
	}{
		{
			name:   "gitlab token without base url",
			env:    map[string]string{"CLIP_GITLAB_TOKEN": "gitlab-token"},
			errMsg: "CLIP_GITLAB_BASE_URL is required when CLIP_GITLAB_TOKEN is provided",
		},
		{
			name:   "graphql without github token",
			env:    map[string]string{"CLIP_GITHUB_USE_GRAPHQL": "true"},
			errMsg: "CLIP_GITHUB_TOKEN is required when CLIP_GITHUB_USE_GRAPHQL is enabled",
		},
		{
			name:   "invalid log level",
			env:    map[string]string{"CLIP_LOG_LEVEL": "invalid"},
			errMsg: "CLIP_LOG_LEVEL must be one of: [debug info warn error]; got: invalid",
		},
		{
			name:   "invalid log format",
			env:    map[string]string{"CLIP_LOG_FORMAT": "xml"},
			errMsg: "CLIP_LOG_FORMAT must be one of: [text json]; got: xml",
		},
		{
			name:   "invalid binary policy",
			env:    map[string]string{"CLIP_BINARY_POLICY": "ignore"},
			errMsg: "CLIP_BINARY_POLICY must be one of: [abort skip]; got: ignore",
		},
		{
			name:   "concurrency not a number",
			env:    map[string]string{"CLIP_SYNC_CONCURRENCY": "many"},
			errMsg: "CLIP_SYNC_CONCURRENCY must be a valid integer, got: many",
		},
		{
			name:   "concurrency out of range",
			env:    map[string]string{"CLIP_SYNC_CONCURRENCY": "0"},
			errMsg: "CLIP_SYNC_CONCURRENCY must be between 1 and 64, got: 0",
		},
		{
			name:   "negative token budget",
			env:    map[string]string{"CLIP_TOKEN_BUDGET": "-1"},
			errMsg: "CLIP_TOKEN_BUDGET must be between 0 and 1000000000, got: -1",
		},
		{
			name:   "invalid boolean",
			env:    map[string]string{"CLIP_GITLAB_SKIP_SSL_VERIFY": "maybe"},
			errMsg: "CLIP_GITLAB_SKIP_SSL_VERIFY must be a valid boolean, got: maybe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(nil)
			if err == nil {
				t.Fatal("Expected error, got none")
			}
			if err.Error() != tt.errMsg {
				t.Errorf("Expected error: %s, got: %s", tt.errMsg, err.Error())
			}
		})
	}
}

func TestLoad_ValidLogSettings(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "DEBUG"} {
		t.Run("level "+level, func(t *testing.T) {
			t.Setenv("CLIP_LOG_LEVEL", level)
			if _, err := Load(nil); err != nil {
				t.Errorf("Expected no error for log level %s, got: %v", level, err)
			}
		})
	}
	for _, format := range []string{"text", "json", "JSON"} {
		t.Run("format "+format, func(t *testing.T) {
			t.Setenv("CLIP_LOG_FORMAT", format)
			if _, err := Load(nil); err != nil {
				t.Errorf("Expected no error for log format %s, got: %v", format, err)
			}
		})
	}
}

func TestLoad_ValidBooleanValues(t *testing.T) {
	for _, value := range []string{"true", "false", "1", "0", "TRUE", "False"} {
		t.Run(value, func(t *testing.T) {
			t.Setenv("CLIP_RESOLVE_DEFAULT_BRANCH", value)
			if _, err := Load(nil); err != nil {
				t.Errorf("Expected no error for boolean %s, got: %v", value, err)
			}
		})
	}
}

func TestNames(t *testing.T) {
	if got := envName(KeySyncConcurrency); got != "CLIP_SYNC_CONCURRENCY" {
		t.Errorf("envName = %s, expected CLIP_SYNC_CONCURRENCY", got)
	}
	if got := flagName(KeyCatalogFile); got != "catalog-file" {
		t.Errorf("flagName = %s, expected catalog-file", got)
	}
}
