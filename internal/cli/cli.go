// Package cli implements the groupsync command-line interface.
//
// Every command works on one project directory (--root, default ".").
// Settings come from internal/config; flags override them per command.
//
// # Commands
//
//   - groups, show: inspect the manifest's extras and dependency groups
//   - lint: check manifest, lockfiles, scripts, hooks and workflows
//   - run, compile: sync and test (or re-lock) groups one at a time
//   - bump: rewrite the project version
//   - outdated: compare version ranges with the latest PyPI releases
//   - graph: export the group structure as DOT, SVG, PNG, PDF or JSON
//   - matrix: expand CI workflow matrices
//   - hooks: list pre-commit hooks
//   - cache: manage the registry response cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// is carried on the [CLI] and in the command context.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/groupsync/internal/config"
	"github.com/matzehuels/groupsync/pkg/buildinfo"
	"github.com/matzehuels/groupsync/pkg/cache"
	"github.com/matzehuels/groupsync/pkg/errors"
	"github.com/matzehuels/groupsync/pkg/integrations/pypi"
	"github.com/matzehuels/groupsync/pkg/manifest"
	"github.com/matzehuels/groupsync/pkg/runner"
)

// =============================================================================
// Constants
// =============================================================================

const appName = "groupsync"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command output. Status lines and tables go here; logs go
	// to the logger.
	Out io.Writer

	root       string
	configFile string
	noCache    bool
	verbose    bool

	cfg *config.Config

	// exec overrides the subprocess executor of run and compile.
	exec runner.Executor
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "groupsync keeps dependency groups, lockfiles and test runs in step",
		Long:          `groupsync manages the optional dependency groups of a Python project: it checks that groups, lockfiles, scripts and CI agree, and syncs and tests each group in isolation, one after another.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.SetOut(c.Out)

	pf := root.PersistentFlags()
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVarP(&c.root, "root", "C", ".", "project directory")
	pf.StringVar(&c.configFile, "config", "", "config file (default <root>/groupsync.toml)")
	pf.BoolVar(&c.noCache, "no-cache", false, "disable the registry response cache")

	root.AddCommand(c.groupsCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.lintCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.compileCommand())
	root.AddCommand(c.bumpCommand())
	root.AddCommand(c.outdatedCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.matrixCommand())
	root.AddCommand(c.hooksCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Project Loading
// =============================================================================

// loadConfig loads (once) the project configuration.
func (c *CLI) loadConfig(ctx context.Context) (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, path, err := config.Load(ctx, config.LoadOptions{Root: c.root, ConfigFile: c.configFile})
	if err != nil {
		return nil, err
	}
	if path != "" {
		c.Logger.Debug("loaded config", "file", path)
	}
	c.cfg = cfg
	return cfg, nil
}

// path resolves rel against the project root.
func (c *CLI) path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.root, rel)
}

// loadManifest loads the configured manifest.
func (c *CLI) loadManifest(ctx context.Context) (*config.Config, *manifest.Manifest, error) {
	cfg, err := c.loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	m, err := manifest.Load(c.path(cfg.Manifest))
	if err != nil {
		return nil, nil, err
	}
	c.Logger.Debug("loaded manifest", "path", m.Path, "groups", len(m.Groups))
	return cfg, m, nil
}

// requireGroups checks that every name is declared in m.
func requireGroups(m *manifest.Manifest, names []string) error {
	for _, n := range names {
		if _, ok := m.Group(n); !ok {
			return errors.New(errors.ErrCodeGroupNotFound, "%s declares no group %q", m.Path, n)
		}
	}
	return nil
}

// =============================================================================
// Factories
// =============================================================================

func (c *CLI) newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	backend, err := cache.Open(ctx, cfg.CacheOptions(c.noCache))
	if err != nil {
		if cfg.Cache.RedisURL != "" {
			return nil, errors.Wrap(errors.ErrCodeNetwork, err, "open redis cache")
		}
		c.Logger.Warn("cache unavailable, continuing without it", "error", err)
		return cache.NewNullCache(), nil
	}
	return backend, nil
}

func (c *CLI) newPyPI(ctx context.Context, cfg *config.Config) (*pypi.Client, cache.Cache, error) {
	backend, err := c.newCache(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return pypi.NewClient(backend, cfg.Cache.TTL).WithBaseURL(cfg.PyPI.URL), backend, nil
}
