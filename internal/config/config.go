package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every key to form its environment variable
const EnvPrefix = "CLIP"

// valid log formats, log levels and binary policies
var (
	validLogFormats     = []string{"text", "json"}
	validLogLevels      = []string{"debug", "info", "warn", "error"}
	validBinaryPolicies = []string{"abort", "skip"}
)

// Config keys, shared by environment variables and flags
const (
	KeyBinaryPolicy         = "binary_policy"
	KeyCatalogFile          = "catalog_file"
	KeyGitExecutable        = "git_executable"
	KeyGitHubToken          = "github_token"
	KeyGitHubUseGraphQL     = "github_use_graphql"
	KeyGitLabBaseURL        = "gitlab_base_url"
	KeyGitLabSkipSSLVerify  = "gitlab_skip_ssl_verify"
	KeyGitLabToken          = "gitlab_token"
	KeyHTTPTimeoutSeconds   = "http_timeout_seconds"
	KeyListenAddr           = "listen_addr"
	KeyLogFormat            = "log_format"
	KeyLogLevel             = "log_level"
	KeyPreamble             = "preamble"
	KeyReposDir             = "repos_dir"
	KeyResolveDefaultBranch = "resolve_default_branch"
	KeyScratchDir           = "scratch_dir"
	KeySyncConcurrency      = "sync_concurrency"
	KeySyncOnStartup        = "sync_on_startup"
	KeyTokenBudget          = "token_budget"
	KeyTokenEncoding        = "token_encoding"
)

type Config struct {
	BinaryPolicy         string
	CatalogFile          string
	GitExecutable        string
	GitHubToken          string
	GitHubUseGraphQL     bool
	GitLabBaseURL        string
	GitLabSkipSSLVerify  bool
	GitLabToken          string
	HTTPTimeoutSeconds   int
	ListenAddr           string
	LogFormat            string
	LogLevel             string
	Preamble             string
	ReposDir             string
	ResolveDefaultBranch bool
	ScratchDir           string
	SyncConcurrency      int
	SyncOnStartup        bool
	TokenBudget          int
	TokenEncoding        string
}

// HTTPTimeout returns the remote API request timeout
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// RegisterFlags adds the command line overrides for the most used keys
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String(flagName(KeyCatalogFile), "config.yaml", "path to the repository catalog (YAML)")
	flags.String(flagName(KeyReposDir), "repos", "directory holding the local mirrors")
	flags.String(flagName(KeyGitExecutable), "git", "git executable to run")
	flags.String(flagName(KeyLogFormat), "", "log format: text or json")
	flags.String(flagName(KeyLogLevel), "", "log level: debug, info, warn or error")
	flags.String(flagName(KeyBinaryPolicy), "abort", "what to do with non-text files: abort or skip")
	flags.Int(flagName(KeyTokenBudget), 0, "warn when a generated document exceeds this many tokens (0 disables)")
}

// Load builds the configuration from defaults, CLIP_* environment variables
// and any flags registered with RegisterFlags, in increasing precedence, and
// validates it. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	syncConcurrency, err := parseIntOrDefault(v, KeySyncConcurrency, 1, 64)
	if err != nil {
		return nil, err
	}
	httpTimeout, err := parseIntOrDefault(v, KeyHTTPTimeoutSeconds, 1, 3600)
	if err != nil {
		return nil, err
	}
	tokenBudget, err := parseIntOrDefault(v, KeyTokenBudget, 0, 1000000000)
	if err != nil {
		return nil, err
	}

	gitHubUseGraphQL, err := parseBoolOrDefault(v, KeyGitHubUseGraphQL)
	if err != nil {
		return nil, err
	}
	gitLabSkipSSL, err := parseBoolOrDefault(v, KeyGitLabSkipSSLVerify)
	if err != nil {
		return nil, err
	}
	resolveDefaultBranch, err := parseBoolOrDefault(v, KeyResolveDefaultBranch)
	if err != nil {
		return nil, err
	}
	syncOnStartup, err := parseBoolOrDefault(v, KeySyncOnStartup)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BinaryPolicy:         strings.ToLower(v.GetString(KeyBinaryPolicy)),
		CatalogFile:          v.GetString(KeyCatalogFile),
		GitExecutable:        v.GetString(KeyGitExecutable),
		GitHubToken:          v.GetString(KeyGitHubToken),
		GitHubUseGraphQL:     gitHubUseGraphQL,
		GitLabBaseURL:        v.GetString(KeyGitLabBaseURL),
		GitLabSkipSSLVerify:  gitLabSkipSSL,
		GitLabToken:          v.GetString(KeyGitLabToken),
		HTTPTimeoutSeconds:   httpTimeout,
		ListenAddr:           v.GetString(KeyListenAddr),
		LogFormat:            v.GetString(KeyLogFormat),
		LogLevel:             v.GetString(KeyLogLevel),
		Preamble:             v.GetString(KeyPreamble),
		ReposDir:             v.GetString(KeyReposDir),
		ResolveDefaultBranch: resolveDefaultBranch,
		ScratchDir:           v.GetString(KeyScratchDir),
		SyncConcurrency:      syncConcurrency,
		SyncOnStartup:        syncOnStartup,
		TokenBudget:          tokenBudget,
		TokenEncoding:        v.GetString(KeyTokenEncoding),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	if cfg.ReposDir, err = filepath.Abs(cfg.ReposDir); err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", envName(KeyReposDir), err)
	}
	if cfg.CatalogFile, err = filepath.Abs(cfg.CatalogFile); err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", envName(KeyCatalogFile), err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyBinaryPolicy, "abort")
	v.SetDefault(KeyCatalogFile, "config.yaml")
	v.SetDefault(KeyGitExecutable, "git")
	v.SetDefault(KeyGitHubUseGraphQL, "false")
	v.SetDefault(KeyGitLabSkipSSLVerify, "false")
	v.SetDefault(KeyHTTPTimeoutSeconds, "30")
	v.SetDefault(KeyListenAddr, ":8000")
	v.SetDefault(KeyReposDir, "repos")
	v.SetDefault(KeyResolveDefaultBranch, "false")
	v.SetDefault(KeyScratchDir, os.TempDir())
	v.SetDefault(KeySyncConcurrency, "4")
	v.SetDefault(KeySyncOnStartup, "true")
	v.SetDefault(KeyTokenBudget, "0")
	v.SetDefault(KeyTokenEncoding, "cl100k_base")

	// keys without a default still need registering for AutomaticEnv lookups
	for _, key := range []string{KeyGitHubToken, KeyGitLabBaseURL, KeyGitLabToken, KeyLogFormat, KeyLogLevel, KeyPreamble} {
		_ = v.BindEnv(key)
	}
}

// bindFlags lets flags the user actually set override the environment
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var bindErr error
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if !slices.Contains(knownKeys, key) {
			return
		}
		if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
			bindErr = fmt.Errorf("failed to bind flag --%s: %w", f.Name, err)
		}
	})
	return bindErr
}

var knownKeys = []string{
	KeyBinaryPolicy, KeyCatalogFile, KeyGitExecutable, KeyGitHubToken, KeyGitHubUseGraphQL,
	KeyGitLabBaseURL, KeyGitLabSkipSSLVerify, KeyGitLabToken, KeyHTTPTimeoutSeconds, KeyListenAddr,
	KeyLogFormat, KeyLogLevel, KeyPreamble, KeyReposDir, KeyResolveDefaultBranch, KeyScratchDir,
	KeySyncConcurrency, KeySyncOnStartup, KeyTokenBudget, KeyTokenEncoding,
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(key)
}

// parseIntOrDefault parses an integer setting with range validation
func parseIntOrDefault(v *viper.Viper, key string, min, max int) (int, error) {
	str := strings.TrimSpace(v.GetString(key))

	val, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer, got: %s", envName(key), str)
	}

	if val < min || val > max {
		return 0, fmt.Errorf("%s must be between %d and %d, got: %d", envName(key), min, max, val)
	}

	return val, nil
}

// parseBoolOrDefault parses a boolean setting
func parseBoolOrDefault(v *viper.Viper, key string) (bool, error) {
	str := strings.TrimSpace(v.GetString(key))

	val, err := strconv.ParseBool(str)
	if err != nil {
		return false, fmt.Errorf("%s must be a valid boolean, got: %s", envName(key), str)
	}

	return val, nil
}

// validateConfig performs all validation on the loaded configuration
func validateConfig(cfg *Config) error {

	// Validate storage locations
	if strings.TrimSpace(cfg.ReposDir) == "" {
		return fmt.Errorf("%s must not be empty", envName(KeyReposDir))
	}
	if strings.TrimSpace(cfg.CatalogFile) == "" {
		return fmt.Errorf("%s must not be empty", envName(KeyCatalogFile))
	}
	if strings.TrimSpace(cfg.GitExecutable) == "" {
		return fmt.Errorf("%s must not be empty", envName(KeyGitExecutable))
	}

	// Validate Git platform configuration
	if cfg.GitLabToken != "" && cfg.GitLabBaseURL == "" {
		return fmt.Errorf("%s is required when %s is provided", envName(KeyGitLabBaseURL), envName(KeyGitLabToken))
	}
	if cfg.GitHubUseGraphQL && cfg.GitHubToken == "" {
		return fmt.Errorf("%s is required when %s is enabled", envName(KeyGitHubToken), envName(KeyGitHubUseGraphQL))
	}

	// Validate logging configuration
	if cfg.LogFormat != "" {
		if !slices.Contains(validLogFormats, strings.ToLower(cfg.LogFormat)) {
			return fmt.Errorf("%s must be one of: %v; got: %s", envName(KeyLogFormat), validLogFormats, cfg.LogFormat)
		}
	}
	if cfg.LogLevel != "" {
		if !slices.Contains(validLogLevels, strings.ToLower(cfg.LogLevel)) {
			return fmt.Errorf("%s must be one of: %v; got: %s", envName(KeyLogLevel), validLogLevels, cfg.LogLevel)
		}
	}

	// Validate aggregation configuration
	if !slices.Contains(validBinaryPolicies, cfg.BinaryPolicy) {
		return fmt.Errorf("%s must be one of: %v; got: %s", envName(KeyBinaryPolicy), validBinaryPolicies, cfg.BinaryPolicy)
	}

	return nil
}
