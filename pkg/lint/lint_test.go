package lint

import (
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/groupsync/pkg/lockfile"
	"github.com/matzehuels/groupsync/pkg/manifest"
	"github.com/matzehuels/groupsync/pkg/precommit"
	"github.com/matzehuels/groupsync/pkg/script"
	"github.com/matzehuels/groupsync/pkg/workflow"
)

func mustManifest(t *testing.T, src string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	m.Path = "pyproject.toml"
	return m
}

func codes(r *Report) []string {
	var out []string
	for _, d := range r.Diagnostics {
		out = append(out, string(d.Severity)+":"+d.Code+":"+d.Subject)
	}
	return out
}

func TestRunClean(t *testing.T) {
	m := mustManifest(t, `[project]
name = "demo"
dependencies = ["click>=8.1, <8.2"]

[project.optional-dependencies]
git = ["gitpython>=3.1, <3.2"]
`)
	lf, err := lockfile.Parse(strings.NewReader("click==8.1.7\ngitpython==3.1.43\n"))
	if err != nil {
		t.Fatal(err)
	}
	r := Run(Input{Manifest: m, Locks: map[string]*lockfile.Lockfile{"git": lf}})
	if len(r.Diagnostics) != 0 {
		t.Errorf("Run() = %v, want clean", codes(r))
	}
	if r.HasErrors() {
		t.Error("HasErrors() = true")
	}
}

func TestRunManifestChecks(t *testing.T) {
	m := mustManifest(t, `[project]
name = "demo"

[project.optional-dependencies]
a = ["x>=2.0, <1.0", "y>=1.2", "not a requirement!!"]
b = ["demo[c]"]
shared = ["z==1.0"]

[dependency-groups]
A = ["w>=1.0, <1.1"]
shared = ["z==1.0"]
cyc1 = [{include-group = "cyc2"}]
cyc2 = [{include-group = "cyc1"}]
`)
	r := Run(Input{Manifest: m})
	got := codes(r)
	for _, want := range []string{
		"error:empty_range:a/x",
		"warning:unbounded_constraint:a/y",
		"error:invalid_requirement:a",
		"error:missing_include:b",
		"warning:group_name_clash:shared",
		"error:include_cycle:cyc1",
	} {
		if !slices.Contains(got, want) {
			t.Errorf("missing %s in %v", want, got)
		}
	}
	for _, d := range r.Diagnostics {
		if d.Code == CodeUnbounded && !strings.Contains(d.Message, "use >=1.2, <1.3") {
			t.Errorf("unbounded message = %q", d.Message)
		}
		if d.Code == CodeIncludeCycle && d.Message != "include cycle: cyc1 -> cyc2 -> cyc1" {
			t.Errorf("cycle message = %q", d.Message)
		}
	}
	if !r.HasErrors() {
		t.Error("HasErrors() = false")
	}
}

func TestRunRedundantInclude(t *testing.T) {
	m := mustManifest(t, `[dependency-groups]
base = ["a>=1.0, <1.1"]
test = [{include-group = "base"}, "b>=2.0, <2.1"]
dev = [{include-group = "test"}, {include-group = "base"}]
`)
	r := Run(Input{Manifest: m})
	if got := codes(r); !slices.Equal(got, []string{"warning:redundant_include:dev"}) {
		t.Errorf("Run() = %v", got)
	}
	if r.HasErrors() {
		t.Error("redundant include reported as error")
	}
}

func TestRunDuplicateSameKind(t *testing.T) {
	m := mustManifest(t, `[dependency-groups]
Test = ["a==1"]
test = ["a==1"]
`)
	got := codes(Run(Input{Manifest: m}))
	if !slices.Contains(got, "error:duplicate_group:test") {
		t.Errorf("Run() = %v", got)
	}
}

func TestRunLocks(t *testing.T) {
	m := mustManifest(t, `[project]
name = "demo"
dependencies = ["click>=8.1, <8.2"]

[project.optional-dependencies]
git = ["gitpython>=3.1, <3.2", "gitdb>=4.0, <4.1"]
docs = ["mkdocs>=1.6, <1.7"]
`)
	lf, err := lockfile.Parse(strings.NewReader("click==8.1.7\ngitpython==3.2.0\n"))
	if err != nil {
		t.Fatal(err)
	}
	lf.Path = "requirements/git.txt"
	r := Run(Input{
		Manifest:  m,
		Locks:     map[string]*lockfile.Lockfile{"git": lf, "docs": nil},
		LockPaths: map[string]string{"docs": "requirements/docs.txt"},
	})
	got := codes(r)
	want := []string{
		"error:lock_out_of_range:git",
		"error:lock_missing_pin:git",
		"warning:missing_lockfile:docs",
	}
	if !slices.Equal(got, want) {
		t.Errorf("Run() = %v, want %v", got, want)
	}
	if r.Diagnostics[2].File != "requirements/docs.txt" || r.Diagnostics[0].File != "requirements/git.txt" {
		t.Errorf("files = %q, %q", r.Diagnostics[0].File, r.Diagnostics[2].File)
	}
	if e, w := r.Count(); e != 2 || w != 1 {
		t.Errorf("Count() = %d, %d", e, w)
	}
}

func TestRunScripts(t *testing.T) {
	m := mustManifest(t, `[project.optional-dependencies]
git = ["gitpython>=3.1, <3.2"]
`)
	s, err := script.Parse([]byte(`for extra in git hypothesis hypothesis; do
	uv pip sync "requirements/${extra}.txt"
done
uv pip compile --extra=git pyproject.toml
`), "run_tests.sh")
	if err != nil {
		t.Fatal(err)
	}
	r := Run(Input{Manifest: m, Scripts: []*script.Script{s}})
	if got := codes(r); !slices.Equal(got, []string{"error:unknown_script_group:hypothesis"}) {
		t.Errorf("Run() = %v", got)
	}
	if r.Diagnostics[0].File != "run_tests.sh" {
		t.Errorf("File = %q", r.Diagnostics[0].File)
	}
}

func TestRunScriptUnrelatedLoop(t *testing.T) {
	m := mustManifest(t, `[project.optional-dependencies]
git = ["gitpython>=3.1, <3.2"]
`)
	s, err := script.Parse([]byte(`for tool in ruff pyright; do
	uv run "$tool"
done
for extra in git docs; do
	uv pip sync "requirements/${extra}.txt"
done
`), "run_tests.sh")
	if err != nil {
		t.Fatal(err)
	}
	r := Run(Input{Manifest: m, Scripts: []*script.Script{s}})
	want := []string{
		"warning:unknown_script_group:ruff",
		"warning:unknown_script_group:pyright",
		"error:unknown_script_group:docs",
	}
	if got := codes(r); !slices.Equal(got, want) {
		t.Errorf("Run() = %v, want %v", got, want)
	}
}

func TestRunHooksAndWorkflows(t *testing.T) {
	m := mustManifest(t, `[project]
name = "demo"
`)
	hooks, err := precommit.Parse([]byte(`repos:
  - repo: https://github.com/a/b
    hooks:
      - id: x
`))
	if err != nil {
		t.Fatal(err)
	}
	wf, err := workflow.Parse([]byte(`jobs:
  test:
    runs-on: ubuntu-latest
    steps: []
`))
	if err != nil {
		t.Fatal(err)
	}
	wf.Path = ".github/workflows/test.yml"

	r := Run(Input{Manifest: m, Hooks: hooks, HooksPath: precommit.DefaultFile, Workflows: []*workflow.Workflow{wf}})
	var files []string
	for _, d := range r.Diagnostics {
		files = append(files, d.Code+"@"+d.File)
	}
	want := []string{
		"precommit@.pre-commit-config.yaml",
		"workflow@.github/workflows/test.yml",
		"workflow@.github/workflows/test.yml",
	}
	if !slices.Equal(files, want) {
		t.Errorf("diagnostics = %v, want %v", files, want)
	}
	if !r.HasErrors() {
		t.Error("HasErrors() = false")
	}
}

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{File: "pyproject.toml", Subject: "test/pytest", Message: "constraint is unbounded"}
	if got := d.String(); got != "pyproject.toml: test/pytest: constraint is unbounded" {
		t.Errorf("String() = %q", got)
	}
}
