package bump

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/groupsync/pkg/errors"
	"github.com/matzehuels/groupsync/pkg/version"
)

const pyproject = `[project]
name = "dycw-utilities"
version = "0.41.2"

[tool.bumpversion]
current_version = "0.41.2"

[[tool.bumpversion.files]]
filename = "src/utilities/__init__.py"
`

const initPy = `from __future__ import annotations

__version__ = "0.41.2"
`

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "src", "utilities"), 0o755); err != nil {
		t.Fatal(err)
	}
	write := func(rel, content string) {
		if err := os.WriteFile(filepath.Join(dir, rel), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("pyproject.toml", pyproject)
	write("src/utilities/__init__.py", initPy)
	return dir
}

func TestLoad(t *testing.T) {
	dir := setup(t)
	cfg, err := Load(filepath.Join(dir, "pyproject.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Current != "0.41.2" {
		t.Errorf("Current = %q", cfg.Current)
	}
	if want := []string{"pyproject.toml", "src/utilities/__init__.py"}; !slices.Equal(cfg.Files, want) {
		t.Errorf("Files = %v, want %v", cfg.Files, want)
	}
}

func TestLoadFallsBackToProjectVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pyproject.toml")
	if err := os.WriteFile(path, []byte("[project]\nname = \"x\"\nversion = \"1.2.3\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Current != "1.2.3" || len(cfg.Files) != 1 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "pyproject.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing: code = %v", errors.GetCode(err))
	}
	path := filepath.Join(dir, "pyproject.toml")
	if err := os.WriteFile(path, []byte("[project]\nname = \"x\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, errors.ErrCodeInvalidManifest) {
		t.Errorf("no version: code = %v", errors.GetCode(err))
	}
}

func TestApply(t *testing.T) {
	tests := []struct {
		part version.Part
		want string
	}{
		{version.Patch, "0.41.3"},
		{version.Minor, "0.42.0"},
		{version.Major, "1.0.0"},
	}
	for _, tt := range tests {
		t.Run(string(tt.part), func(t *testing.T) {
			dir := setup(t)
			cfg, err := Load(filepath.Join(dir, "pyproject.toml"))
			if err != nil {
				t.Fatal(err)
			}
			plan, err := Apply(cfg, tt.part, false)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if plan.New.String() != tt.want {
				t.Errorf("New = %s, want %s", plan.New, tt.want)
			}
			if len(plan.Changes) != 2 || plan.Changes[0].Replacements != 2 || plan.Changes[1].Replacements != 1 {
				t.Errorf("Changes = %+v", plan.Changes)
			}

			reloaded, err := Load(filepath.Join(dir, "pyproject.toml"))
			if err != nil {
				t.Fatal(err)
			}
			if reloaded.Current != tt.want {
				t.Errorf("current_version after bump = %s, want %s", reloaded.Current, tt.want)
			}
			data, _ := os.ReadFile(filepath.Join(dir, "src", "utilities", "__init__.py"))
			if want := "__version__ = \"" + tt.want + "\""; !strings.Contains(string(data), want) {
				t.Errorf("__init__.py = %q", data)
			}
		})
	}
}

func TestApplyDryRun(t *testing.T) {
	dir := setup(t)
	cfg, err := Load(filepath.Join(dir, "pyproject.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Apply(cfg, version.Patch, true); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "pyproject.toml"))
	if string(data) != pyproject {
		t.Error("dry run modified the manifest")
	}
}

func TestApplyMissingAssignment(t *testing.T) {
	dir := setup(t)
	if err := os.WriteFile(filepath.Join(dir, "src", "utilities", "__init__.py"), []byte("x = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(filepath.Join(dir, "pyproject.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Apply(cfg, version.Patch, false); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("code = %v, want NOT_FOUND", errors.GetCode(err))
	}
	data, _ := os.ReadFile(filepath.Join(dir, "pyproject.toml"))
	if string(data) != pyproject {
		t.Error("failed bump must not write any file")
	}
}

func TestRewrite(t *testing.T) {
	in := "version = \"1.0.0\"\nother_version = \"1.0.0\"\n__version__: str = '1.0.0'\nversion = \"2.0.0\"\n"
	out, n := Rewrite([]byte(in), "1.0.0", "1.0.1")
	want := "version = \"1.0.1\"\nother_version = \"1.0.0\"\n__version__: str = '1.0.1'\nversion = \"2.0.0\"\n"
	if string(out) != want || n != 2 {
		t.Errorf("Rewrite() = %q (%d), want %q (2)", out, n, want)
	}
}
