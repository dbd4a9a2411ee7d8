package manifest

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/matzehuels/groupsync/pkg/errors"
	"github.com/matzehuels/groupsync/pkg/version"
)

const samplePyproject = `
[project]
name = "dycw-utilities"
version = "0.25.7"
dependencies = ["typing-extensions>=4.12, <4.13"]

[project.optional-dependencies]
zoneinfo = ["tzdata>=2024.1, <2024.2"]
git = ["gitpython>=3.1, <3.2"]
test-polars = ["dycw-utilities[zoneinfo]", "polars-lts-cpu>=1.6, <1.7"]
broken = ["requests>=2.0,<", "click>=8.1, <8.2"]

[dependency-groups]
dev = ["ruff>=0.6, <0.7", {include-group = "test"}]
test = ["pytest>=8.3, <8.4", "pytest-xdist>=3.6, <3.7"]
`

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pyproject.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	m, err := Load(writeManifest(t, samplePyproject))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if m.Name != "dycw-utilities" || m.Version != "0.25.7" {
		t.Errorf("project = %s %s, want dycw-utilities 0.25.7", m.Name, m.Version)
	}
	if len(m.Dependencies) != 1 || m.Dependencies[0].Name != "typing-extensions" {
		t.Errorf("Dependencies = %v", m.Dependencies)
	}

	want := []string{"zoneinfo", "git", "test-polars", "broken", "dev", "test"}
	if got := m.GroupNames(); !slices.Equal(got, want) {
		t.Errorf("GroupNames() = %v, want %v", got, want)
	}

	tp, ok := m.Group("test_polars")
	if !ok {
		t.Fatal("Group(test_polars) not found")
	}
	if tp.Kind != KindExtra {
		t.Errorf("Kind = %s, want extra", tp.Kind)
	}
	if !slices.Equal(tp.Includes, []string{"zoneinfo"}) {
		t.Errorf("Includes = %v, want [zoneinfo]", tp.Includes)
	}
	if len(tp.Constraints) != 1 || tp.Constraints[0].Name != "polars-lts-cpu" {
		t.Errorf("Constraints = %v", tp.Constraints)
	}

	broken, _ := m.Group("broken")
	if len(broken.Invalid) != 1 || len(broken.Constraints) != 1 {
		t.Errorf("broken: %d invalid, %d constraints; want 1, 1", len(broken.Invalid), len(broken.Constraints))
	}

	dev, _ := m.GroupOf(KindGroup, "dev")
	if !slices.Equal(dev.Includes, []string{"test"}) {
		t.Errorf("dev.Includes = %v, want [test]", dev.Includes)
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: code = %v, want FILE_NOT_FOUND", errors.GetCode(err))
	}

	_, err = Load(writeManifest(t, "[project\nname = 1"))
	if !errors.Is(err, errors.ErrCodeInvalidManifest) {
		t.Errorf("bad toml: code = %v, want INVALID_MANIFEST", errors.GetCode(err))
	}
}

func TestResolve(t *testing.T) {
	m, err := Parse([]byte(samplePyproject))
	if err != nil {
		t.Fatal(err)
	}

	cs, err := m.Resolve("test-polars")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	var names []string
	for _, c := range cs {
		names = append(names, c.Name)
	}
	if want := []string{"polars-lts-cpu", "tzdata"}; !slices.Equal(names, want) {
		t.Errorf("Resolve(test-polars) = %v, want %v", names, want)
	}

	cs, err = m.Resolve("dev")
	if err != nil {
		t.Fatalf("Resolve(dev): %v", err)
	}
	if len(cs) != 3 {
		t.Errorf("Resolve(dev) returned %d constraints, want 3", len(cs))
	}

	if _, err := m.Resolve("nope"); !errors.Is(err, errors.ErrCodeGroupNotFound) {
		t.Errorf("Resolve(nope) code = %v, want GROUP_NOT_FOUND", errors.GetCode(err))
	}
}

func TestResolveCycleAndMissing(t *testing.T) {
	m, err := Parse([]byte(`
[dependency-groups]
a = [{include-group = "b"}]
b = [{include-group = "a"}]
c = [{include-group = "ghost"}]
`))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := m.Resolve("a"); !errors.Is(err, errors.ErrCodeIncludeCycle) {
		t.Errorf("Resolve(a) code = %v, want INCLUDE_CYCLE", errors.GetCode(err))
	}
	if _, err := m.Resolve("c"); !errors.Is(err, errors.ErrCodeGroupNotFound) {
		t.Errorf("Resolve(c) code = %v, want GROUP_NOT_FOUND", errors.GetCode(err))
	}
}

func TestDuplicates(t *testing.T) {
	m, err := Parse([]byte(`
[project]
name = "x"

[project.optional-dependencies]
foo_bar = []
"foo.bar" = []

[dependency-groups]
baz = []
`))
	if err != nil {
		t.Fatal(err)
	}
	dups := m.Duplicates()
	if len(dups) != 1 || dups[0].Name != "foo-bar" {
		t.Errorf("Duplicates() = %+v, want one foo-bar", dups)
	}
}

func TestRangeContains(t *testing.T) {
	tests := []struct {
		req  string
		in   []string
		out  []string
		repr string
	}{
		{"a>=1.2, <1.3", []string{"1.2", "1.2.9", "1.2.post1"}, []string{"1.1.9", "1.3", "1.3.0"}, ">=1.2, <1.3"},
		{"a==2.0", []string{"2.0", "2.0.0"}, []string{"2.0.1", "1.9"}, ">=2.0, <=2.0"},
		{"a==2.*", []string{"2.0", "2.9.9"}, []string{"3.0", "1.9"}, ">=2, <3"},
		{"a~=1.4.5", []string{"1.4.5", "1.4.99"}, []string{"1.5", "1.4.4"}, ">=1.4.5, <1.5"},
		{"a>1.0,!=1.5", []string{"1.1", "1.6"}, []string{"1.0", "1.5"}, ">1.0, !=1.5"},
		{"a", []string{"0.0.1", "99"}, nil, "*"},
		{"a>=1,>=2,<5,<4", []string{"2", "3.9"}, []string{"1.5", "4"}, ">=2, <4"},
		{"a>=1.0,<2.0,!=1.2.*", []string{"1.1", "1.3", "1.19"}, []string{"1.2", "1.2.5", "1.2rc1", "2.0"}, ">=1.0, <2.0, !=1.2.*"},
		{"a>=1.2,<1.3", []string{"1.2.1rc1"}, []string{"1.3rc1", "1.3.dev0", "1.3a1.dev2"}, ">=1.2, <1.3"},
		{"a<1.3rc2", []string{"1.3rc1", "1.2"}, []string{"1.3rc2", "1.3"}, "<1.3rc2"},
	}

	for _, tt := range tests {
		t.Run(tt.req, func(t *testing.T) {
			c, err := ParseRequirement(tt.req)
			if err != nil {
				t.Fatal(err)
			}
			r, err := c.Range()
			if err != nil {
				t.Fatal(err)
			}
			if r.String() != tt.repr {
				t.Errorf("Range().String() = %q, want %q", r.String(), tt.repr)
			}
			for _, v := range tt.in {
				if !r.Contains(version.MustParse(v)) {
					t.Errorf("%s should contain %s", tt.req, v)
				}
			}
			for _, v := range tt.out {
				if r.Contains(version.MustParse(v)) {
					t.Errorf("%s should not contain %s", tt.req, v)
				}
			}
		})
	}
}

func TestRangeValid(t *testing.T) {
	tests := []struct {
		req     string
		valid   bool
		bounded bool
	}{
		{"a>=1.2, <1.3", true, true},
		{"a>=1.3, <1.2", false, true},
		{"a>=1.2, <1.2", false, true},
		{"a==1.2", true, true},
		{"a>=1.2", true, false},
		{"a<2", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.req, func(t *testing.T) {
			c, _ := ParseRequirement(tt.req)
			r, err := c.Range()
			if err != nil {
				t.Fatal(err)
			}
			if r.Valid() != tt.valid {
				t.Errorf("Valid() = %v, want %v", r.Valid(), tt.valid)
			}
			if r.Bounded() != tt.bounded {
				t.Errorf("Bounded() = %v, want %v", r.Bounded(), tt.bounded)
			}
		})
	}
}

func TestRangeBadVersion(t *testing.T) {
	c, err := ParseRequirement("a~=1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Range(); err == nil {
		t.Error("~=1 should be rejected")
	}
}
