// Package bump rewrites a project's version string for a major, minor or
// patch release.
//
// The current version comes from [tool.bumpversion] current_version, or
// from [project] version when that table is absent. Every file listed in
// [[tool.bumpversion.files]], plus the manifest itself, has its version
// assignments (version, __version__ and current_version) rewritten in
// place. Files are written atomically.
package bump

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/groupsync/pkg/errors"
	"github.com/matzehuels/groupsync/pkg/version"
)

// Config is the version-bump configuration read from a manifest.
type Config struct {
	// Manifest is the pyproject.toml path.
	Manifest string
	// Current is the version as written in the manifest.
	Current string
	// Files are the files to rewrite, relative to the manifest directory.
	// The manifest is always first.
	Files []string
}

type bumpTable struct {
	Project struct {
		Version string `toml:"version"`
	} `toml:"project"`
	Tool struct {
		Bumpversion struct {
			CurrentVersion string `toml:"current_version"`
			Files          []struct {
				Filename string `toml:"filename"`
			} `toml:"files"`
		} `toml:"bumpversion"`
	} `toml:"tool"`
}

// Load reads the bump configuration from the manifest at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "manifest %s", path)
	}
	if err != nil {
		return nil, err
	}
	var t bumpTable
	if _, err := toml.Decode(string(data), &t); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", path)
	}

	cfg := &Config{Manifest: path, Current: t.Tool.Bumpversion.CurrentVersion}
	if cfg.Current == "" {
		cfg.Current = t.Project.Version
	}
	if cfg.Current == "" {
		return nil, errors.New(errors.ErrCodeInvalidManifest, "%s declares no current version", path)
	}

	cfg.Files = []string{filepath.Base(path)}
	for _, f := range t.Tool.Bumpversion.Files {
		if f.Filename == "" || slices.Contains(cfg.Files, f.Filename) {
			continue
		}
		if err := errors.ValidatePath(f.Filename); err != nil {
			return nil, err
		}
		cfg.Files = append(cfg.Files, f.Filename)
	}
	return cfg, nil
}

// Change records the rewrite of one file.
type Change struct {
	Path         string
	Replacements int
}

// Plan describes a bump.
type Plan struct {
	Old     version.Version
	New     version.Version
	Changes []Change
}

// assignRE matches a version assignment in TOML or Python source. The
// value is captured separately so only exact matches are rewritten.
var assignRE = regexp.MustCompile(`(?m)^(\s*(?:__version__|current_version|version)\s*[:=]\s*(?:[A-Za-z_][\w\[\], ]*=\s*)?["'])([^"']+)(["'])`)

// Apply bumps cfg.Current by part and rewrites every configured file.
// With dryRun set, files are left untouched and the plan reports what
// would change. A configured file without any matching assignment is an
// error, as is a missing file.
func Apply(cfg *Config, part version.Part, dryRun bool) (*Plan, error) {
	old, err := version.Parse(cfg.Current)
	if err != nil {
		return nil, err
	}
	next, err := old.Bump(part)
	if err != nil {
		return nil, err
	}
	plan := &Plan{Old: old, New: next}

	dir := filepath.Dir(cfg.Manifest)
	type pending struct {
		path string
		data []byte
		mode os.FileMode
	}
	var writes []pending
	for _, rel := range cfg.Files {
		path := filepath.Join(dir, rel)
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "bump target %s", rel)
		}
		data, err := os.ReadFile(path) //nolint:gosec // path comes from the manifest
		if err != nil {
			return nil, err
		}
		out, n := Rewrite(data, cfg.Current, next.String())
		if n == 0 {
			return nil, errors.New(errors.ErrCodeNotFound, "%s has no version assignment for %s", rel, cfg.Current)
		}
		plan.Changes = append(plan.Changes, Change{Path: rel, Replacements: n})
		writes = append(writes, pending{path: path, data: out, mode: info.Mode().Perm()})
	}

	if dryRun {
		return plan, nil
	}
	for _, w := range writes {
		if err := writeFileAtomic(w.path, w.data, w.mode); err != nil {
			return nil, fmt.Errorf("write %s: %w", w.path, err)
		}
	}
	return plan, nil
}

// Rewrite replaces the value of every version assignment equal to old with
// next, returning the new content and the number of replacements.
func Rewrite(data []byte, old, next string) ([]byte, int) {
	n := 0
	out := assignRE.ReplaceAllFunc(data, func(m []byte) []byte {
		sub := assignRE.FindSubmatch(m)
		if string(sub[2]) != old {
			return m
		}
		n++
		return bytes.Join([][]byte{sub[1], []byte(next), sub[3]}, nil)
	})
	return out, n
}

// writeFileAtomic writes data to a temp file in path's directory and
// renames it over path.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".groupsync-bump-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if _, err := os.Stat(tmpName); err == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
