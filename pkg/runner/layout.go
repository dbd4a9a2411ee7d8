package runner

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/groupsync/pkg/errors"
)

// Layout locates a project's per-group files. Paths are relative to Root
// and are passed to external commands in that form.
type Layout struct {
	Root        string
	Manifest    string
	LockDir     string
	LockPattern string // {group} and {module} are substituted
	TestDir     string
	TestPattern string // {group} and {module} are substituted
	MarkerDir   string
}

// DefaultLayout returns the layout used when nothing is configured.
func DefaultLayout() Layout {
	return Layout{
		Root:        ".",
		Manifest:    DefaultManifest,
		LockDir:     DefaultLockDir,
		LockPattern: DefaultLockPattern,
		TestDir:     DefaultTestDir,
		TestPattern: DefaultTestPattern,
		MarkerDir:   DefaultMarkerDir,
	}
}

func (l *Layout) setDefaults() {
	d := DefaultLayout()
	for _, f := range []struct{ dst *string; def string }{
		{&l.Root, d.Root},
		{&l.Manifest, d.Manifest},
		{&l.LockDir, d.LockDir},
		{&l.LockPattern, d.LockPattern},
		{&l.TestDir, d.TestDir},
		{&l.TestPattern, d.TestPattern},
		{&l.MarkerDir, d.MarkerDir},
	} {
		if *f.dst == "" {
			*f.dst = f.def
		}
	}
}

// Module returns the Python module spelling of a group name.
func Module(group string) string { return strings.ReplaceAll(group, "-", "_") }

func fill(pattern, group string) string {
	return strings.NewReplacer("{group}", group, "{module}", Module(group)).Replace(pattern)
}

// LockPath returns the group's lockfile path relative to Root.
func (l Layout) LockPath(group string) string {
	return filepath.Join(l.LockDir, fill(l.LockPattern, group))
}

// TestPath returns the group's test path relative to Root.
func (l Layout) TestPath(group string) string {
	return filepath.Join(l.TestDir, fill(l.TestPattern, group))
}

// MarkerPath returns the group's resume marker relative to Root.
func (l Layout) MarkerPath(group string) string {
	return filepath.Join(l.MarkerDir, group)
}

// Abs joins a Root-relative path onto Root.
func (l Layout) Abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(l.Root, rel)
}

// DiscoverGroups derives group names from the test files in the layout's
// test directory: with the default pattern, test_foo_bar.py yields
// "foo-bar". Names are returned sorted.
func (l Layout) DiscoverGroups() ([]string, error) {
	prefix, suffix, ok := strings.Cut(l.TestPattern, "{module}")
	if !ok {
		prefix, suffix, ok = strings.Cut(l.TestPattern, "{group}")
	}
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "test pattern %q has no {module} or {group} placeholder", l.TestPattern)
	}

	entries, err := os.ReadDir(l.Abs(l.TestDir))
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "test directory %s", l.TestDir)
	}
	if err != nil {
		return nil, err
	}

	var groups []string
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) || len(name) <= len(prefix)+len(suffix) {
			continue
		}
		stem := name[len(prefix) : len(name)-len(suffix)]
		groups = append(groups, strings.ReplaceAll(stem, "_", "-"))
	}
	slices.Sort(groups)
	return slices.Compact(groups), nil
}

// markerExists reports whether the group's resume marker is present.
func (l Layout) markerExists(group string) bool {
	_, err := os.Stat(l.Abs(l.MarkerPath(group)))
	return err == nil
}

// touchMarker creates the group's resume marker.
func (l Layout) touchMarker(group string) error {
	path := l.Abs(l.MarkerPath(group))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, nil, 0o644)
}
