// Package config loads groupsync settings.
//
// Sources, lowest precedence first:
//
//  1. built-in defaults
//  2. [tool.groupsync] in the project's pyproject.toml
//  3. groupsync.toml in the project root (or the file named by --config)
//  4. GROUPSYNC_* environment variables, after loading the project's .env
//
// Command-line flags are applied by the CLI on top of the result. Keys use
// underscores; hyphenated spellings in TOML ("lock-dir") are accepted.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/matzehuels/groupsync/pkg/cache"
	"github.com/matzehuels/groupsync/pkg/errors"
	"github.com/matzehuels/groupsync/pkg/integrations/pypi"
	"github.com/matzehuels/groupsync/pkg/outdated"
	"github.com/matzehuels/groupsync/pkg/precommit"
	"github.com/matzehuels/groupsync/pkg/runner"
)

const (
	// FileName is the project-level config file.
	FileName = "groupsync.toml"
	// EnvPrefix prefixes environment overrides (GROUPSYNC_LOCK_DIR, ...).
	EnvPrefix = "GROUPSYNC"
	// DotEnv is loaded from the project root before the environment is read.
	DotEnv = ".env"
)

// Config is the resolved configuration.
type Config struct {
	Manifest    string `mapstructure:"manifest"`
	LockDir     string `mapstructure:"lock_dir"`
	LockPattern string `mapstructure:"lock_pattern"`
	TestDir     string `mapstructure:"test_dir"`
	TestPattern string `mapstructure:"test_pattern"`
	MarkerDir   string `mapstructure:"marker_dir"`

	AlwaysGroups   []string `mapstructure:"always_groups"`
	SyncCommand    string   `mapstructure:"sync_command"`
	TestCommand    string   `mapstructure:"test_command"`
	CompileCommand string   `mapstructure:"compile_command"`

	Precommit string   `mapstructure:"precommit"`
	Workflows []string `mapstructure:"workflows"`
	Scripts   []string `mapstructure:"scripts"`

	Cache CacheConfig `mapstructure:"cache"`
	PyPI  PyPIConfig  `mapstructure:"pypi"`
}

// CacheConfig configures the registry response cache.
type CacheConfig struct {
	Dir      string        `mapstructure:"dir"`
	TTL      time.Duration `mapstructure:"ttl"`
	RedisURL string        `mapstructure:"redis_url"`
}

// PyPIConfig configures registry lookups.
type PyPIConfig struct {
	URL         string `mapstructure:"url"`
	Concurrency int    `mapstructure:"concurrency"`
}

// LoadOptions locates the configuration.
type LoadOptions struct {
	// Root is the project directory. Empty means the working directory.
	Root string
	// ConfigFile replaces Root/groupsync.toml when set; it must exist.
	ConfigFile string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Manifest:       runner.DefaultManifest,
		LockDir:        runner.DefaultLockDir,
		LockPattern:    runner.DefaultLockPattern,
		TestDir:        runner.DefaultTestDir,
		TestPattern:    runner.DefaultTestPattern,
		MarkerDir:      runner.DefaultMarkerDir,
		AlwaysGroups:   runner.DefaultAlwaysGroups,
		SyncCommand:    runner.DefaultSyncCommand,
		TestCommand:    runner.DefaultTestCommand,
		CompileCommand: runner.DefaultCompileCommand,
		Precommit:      precommit.DefaultFile,
		Workflows:      []string{".github/workflows/*.yml", ".github/workflows/*.yaml"},
		Scripts:        []string{"*.sh", "scripts/*.sh"},
		Cache:          CacheConfig{TTL: cache.DefaultTTL},
		PyPI:           PyPIConfig{URL: pypi.DefaultBaseURL, Concurrency: outdated.DefaultConcurrency},
	}
}

// Load resolves the configuration for a project. It returns the config
// file that was read, or "" when only defaults, pyproject and the
// environment contributed.
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("load config canceled: %w", err)
	}
	root := opts.Root
	if root == "" {
		root = "."
	}

	if err := loadDotEnv(filepath.Join(root, DotEnv)); err != nil {
		return nil, "", err
	}

	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	manifest := filepath.Join(root, runner.DefaultManifest)
	if m := os.Getenv(EnvPrefix + "_MANIFEST"); m != "" {
		manifest = filepath.Join(root, m)
	}
	if err := mergePyproject(v, manifest); err != nil {
		return nil, "", err
	}

	resolved := ""
	path := opts.ConfigFile
	if path == "" {
		if p := filepath.Join(root, FileName); fileExists(p) {
			path = p
		}
	} else if !fileExists(path) {
		return nil, "", errors.New(errors.ErrCodeFileNotFound, "config file not found: %s", path)
	}
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
		if err != nil {
			return nil, "", err
		}
		var raw map[string]any
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return nil, "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
		if err := v.MergeConfigMap(normalizeKeys(raw)); err != nil {
			return nil, "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "merge %s", path)
		}
		resolved = path
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, resolved, nil
}

// Validate rejects values no command can work with.
func (c *Config) Validate() error {
	for key, val := range map[string]string{
		"manifest":     c.Manifest,
		"lock_pattern": c.LockPattern,
		"test_pattern": c.TestPattern,
		"sync_command": c.SyncCommand,
		"test_command": c.TestCommand,
	} {
		if strings.TrimSpace(val) == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "%s must not be empty", key)
		}
	}
	if !strings.Contains(c.TestPattern, "{module}") && !strings.Contains(c.TestPattern, "{group}") {
		return errors.New(errors.ErrCodeInvalidConfig, "test_pattern %q has no {module} or {group} placeholder", c.TestPattern)
	}
	if c.PyPI.Concurrency < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "pypi.concurrency must be at least 1, got %d", c.PyPI.Concurrency)
	}
	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	return nil
}

// Layout returns the runner layout rooted at root.
func (c *Config) Layout(root string) runner.Layout {
	return runner.Layout{
		Root:        root,
		Manifest:    c.Manifest,
		LockDir:     c.LockDir,
		LockPattern: c.LockPattern,
		TestDir:     c.TestDir,
		TestPattern: c.TestPattern,
		MarkerDir:   c.MarkerDir,
	}
}

// RunnerOptions returns runner options for groups.
func (c *Config) RunnerOptions(root string, groups []string) runner.Options {
	always := c.AlwaysGroups
	if always == nil {
		always = []string{}
	}
	return runner.Options{
		Layout:         c.Layout(root),
		Groups:         groups,
		SyncCommand:    c.SyncCommand,
		TestCommand:    c.TestCommand,
		CompileCommand: c.CompileCommand,
		AlwaysGroups:   always,
	}
}

// CacheOptions returns the cache backend selection.
func (c *Config) CacheOptions(disabled bool) cache.Config {
	return cache.Config{Dir: c.Cache.Dir, RedisURL: c.Cache.RedisURL, Disabled: disabled}
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("manifest", d.Manifest)
	v.SetDefault("lock_dir", d.LockDir)
	v.SetDefault("lock_pattern", d.LockPattern)
	v.SetDefault("test_dir", d.TestDir)
	v.SetDefault("test_pattern", d.TestPattern)
	v.SetDefault("marker_dir", d.MarkerDir)
	v.SetDefault("always_groups", d.AlwaysGroups)
	v.SetDefault("sync_command", d.SyncCommand)
	v.SetDefault("test_command", d.TestCommand)
	v.SetDefault("compile_command", d.CompileCommand)
	v.SetDefault("precommit", d.Precommit)
	v.SetDefault("workflows", d.Workflows)
	v.SetDefault("scripts", d.Scripts)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.redis_url", d.Cache.RedisURL)
	v.SetDefault("pypi.url", d.PyPI.URL)
	v.SetDefault("pypi.concurrency", d.PyPI.Concurrency)
}

// mergePyproject merges [tool.groupsync] from the manifest, if present.
// A missing or unparsable manifest is left for the commands to report.
func mergePyproject(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		return nil
	}
	var doc struct {
		Tool struct {
			Groupsync map[string]any `toml:"groupsync"`
		} `toml:"tool"`
	}
	if _, err := toml.Decode(string(data), &doc); err != nil || len(doc.Tool.Groupsync) == 0 {
		return nil
	}
	if err := v.MergeConfigMap(normalizeKeys(doc.Tool.Groupsync)); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[tool.groupsync] in %s", path)
	}
	return nil
}

// normalizeKeys rewrites "lock-dir" style keys to "lock_dir", recursively.
func normalizeKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, val := range m {
		if sub, ok := val.(map[string]any); ok {
			val = normalizeKeys(sub)
		}
		out[strings.ReplaceAll(strings.ToLower(k), "-", "_")] = val
	}
	return out
}

// loadDotEnv loads path into the process environment without overriding
// variables that are already set.
func loadDotEnv(path string) error {
	if !fileExists(path) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "load %s", path)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
