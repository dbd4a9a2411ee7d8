package script

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/matzehuels/groupsync/pkg/errors"
)

const runTests = `#!/usr/bin/env bash
set -euxo pipefail

extras=(git "hypothesis" 'pytest-check')

for extra in git hypothesis pytest-check; do
	uv pip sync "requirements/${extra}.txt"
	pytest "src/tests/test_${extra//-/_}.py"
done

for f in src/tests/*.py; do
	echo "$f"
done

uv pip compile --extra=scripts-clean-dir --output-file=requirements/scripts-clean-dir.txt pyproject.toml
uv run --only-group core --only-group="$GROUP" pytest
`

func TestParse(t *testing.T) {
	s, err := Parse([]byte(runTests), "run_tests.sh")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(s.Lists) != 3 {
		t.Fatalf("len(Lists) = %d, want 3", len(s.Lists))
	}

	arr := s.Lists[0]
	if arr.Kind != Array || arr.Name != "extras" || arr.Line != 4 {
		t.Errorf("array = %+v", arr)
	}
	if want := []string{"git", "hypothesis", "pytest-check"}; !slices.Equal(arr.Words, want) {
		t.Errorf("array words = %v, want %v", arr.Words, want)
	}

	loop := s.Lists[1]
	if loop.Kind != ForLoop || loop.Name != "extra" || loop.Line != 6 {
		t.Errorf("loop = %+v", loop)
	}

	var names []string
	for _, c := range s.Commands {
		names = append(names, c.Name())
	}
	want := []string{"set", "uv", "pytest", "echo", "uv", "uv"}
	if !slices.Equal(names, want) {
		t.Errorf("commands = %v, want %v", names, want)
	}
	if got := s.Commands[1].Args[3]; got != `"requirements/${extra}.txt"` {
		t.Errorf("dynamic arg = %q", got)
	}
}

func TestReferences(t *testing.T) {
	s, err := Parse([]byte(runTests), "run_tests.sh")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"list:git", "list:hypothesis", "list:pytest-check",
		"list:git:bound", "list:hypothesis:bound", "list:pytest-check:bound",
		"flag:scripts-clean-dir:bound",
		"flag:core:bound",
	}
	if got := refs(s); !slices.Equal(got, want) {
		t.Errorf("References() = %v\nwant %v", got, want)
	}
}

func refs(s *Script) []string {
	var out []string
	for _, r := range s.References() {
		ref := string(r.Source) + ":" + r.Group
		if r.Bound {
			ref += ":bound"
		}
		out = append(out, ref)
	}
	return out
}

func TestReferencesBinding(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "unrelated loop",
			src:  "for tool in ruff pyright; do uv run \"$tool\"; done\n",
			want: []string{"list:ruff", "list:pyright"},
		},
		{
			name: "group flag with separate value",
			src:  "for g in docs lint; do uv sync --only-group \"$g\"; done\n",
			want: []string{"list:docs:bound", "list:lint:bound"},
		},
		{
			name: "array through loop",
			src:  "groups=(git web)\nfor g in \"${groups[@]}\"; do\n\tpytest \"src/tests/test_${g//-/_}.py\"\ndone\n",
			want: []string{"list:git:bound", "list:web:bound"},
		},
		{
			name: "array never used",
			src:  "names=(alpha beta)\necho done\n",
			want: []string{"list:alpha", "list:beta"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.src), "x.sh")
			if err != nil {
				t.Fatal(err)
			}
			if got := refs(s); !slices.Equal(got, tt.want) {
				t.Errorf("References() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseError(t *testing.T) {
	if _, err := Parse([]byte("for x in a b; do\n"), "bad.sh"); err == nil {
		t.Error("expected parse error for unterminated loop")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.sh")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing: code = %v", errors.GetCode(err))
	}
	path := filepath.Join(dir, "bad.sh")
	if err := os.WriteFile(path, []byte("if true; then\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, errors.ErrCodeInvalidScript) {
		t.Errorf("bad script: code = %v", errors.GetCode(err))
	}
}
