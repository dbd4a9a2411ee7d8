package cli

import (
	"context"
	"os"
	"path/filepath"
	"slices"

	"github.com/matzehuels/groupsync/internal/config"
	"github.com/matzehuels/groupsync/pkg/lint"
	"github.com/matzehuels/groupsync/pkg/lockfile"
	"github.com/matzehuels/groupsync/pkg/manifest"
	"github.com/matzehuels/groupsync/pkg/precommit"
	"github.com/matzehuels/groupsync/pkg/script"
	"github.com/matzehuels/groupsync/pkg/workflow"
)

// glob expands patterns relative to the project root, sorted and without
// duplicates.
func (c *CLI) glob(patterns []string) ([]string, error) {
	var out []string
	for _, p := range patterns {
		matches, err := filepath.Glob(c.path(p))
		if err != nil {
			return nil, err
		}
		out = append(out, matches...)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// loadLocks loads each group's lockfile. When the lock directory does not
// exist the project does not lock per group and the map is empty; otherwise
// every group has an entry, nil when its lockfile is missing.
func (c *CLI) loadLocks(cfg *config.Config, m *manifest.Manifest) (locks map[string]*lockfile.Lockfile, paths map[string]string, err error) {
	layout := cfg.Layout(c.root)
	locks = make(map[string]*lockfile.Lockfile)
	paths = make(map[string]string)
	if !exists(c.path(cfg.LockDir)) {
		return locks, paths, nil
	}
	for _, g := range m.Groups {
		path := c.path(layout.LockPath(g.Name))
		paths[g.Name] = path
		if !exists(path) {
			locks[g.Name] = nil
			continue
		}
		lf, err := lockfile.Load(path)
		if err != nil {
			return nil, nil, err
		}
		locks[g.Name] = lf
	}
	return locks, paths, nil
}

// lintInput gathers every file lint looks at. Optional files that are
// absent are skipped; files that exist but do not parse are errors.
func (c *CLI) lintInput(ctx context.Context, cfg *config.Config, m *manifest.Manifest) (lint.Input, error) {
	logger := loggerFromContext(ctx)
	in := lint.Input{Manifest: m}

	var err error
	if in.Locks, in.LockPaths, err = c.loadLocks(cfg, m); err != nil {
		return in, err
	}
	logger.Debug("lockfiles", "tracked", len(in.Locks))

	if hooks := c.path(cfg.Precommit); exists(hooks) {
		if in.Hooks, err = precommit.Load(hooks); err != nil {
			return in, err
		}
		in.HooksPath = hooks
	}

	workflows, err := c.glob(cfg.Workflows)
	if err != nil {
		return in, err
	}
	for _, path := range workflows {
		wf, err := workflow.Load(path)
		if err != nil {
			return in, err
		}
		in.Workflows = append(in.Workflows, wf)
	}

	scripts, err := c.glob(cfg.Scripts)
	if err != nil {
		return in, err
	}
	for _, path := range scripts {
		s, err := script.Load(path)
		if err != nil {
			return in, err
		}
		in.Scripts = append(in.Scripts, s)
	}
	logger.Debug("lint inputs", "workflows", len(in.Workflows), "scripts", len(in.Scripts), "hooks", in.Hooks != nil)
	return in, nil
}

// dependencyGroups returns the names declared only under [dependency-groups].
// A name that is also an extra keeps the --extra selector.
func dependencyGroups(m *manifest.Manifest) []string {
	var out []string
	for _, g := range m.Groups {
		if g.Kind != manifest.KindGroup {
			continue
		}
		if _, ok := m.GroupOf(manifest.KindExtra, g.Name); !ok {
			out = append(out, g.Name)
		}
	}
	return out
}
