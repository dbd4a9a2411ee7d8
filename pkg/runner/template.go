package runner

import (
	"strings"

	"mvdan.cc/sh/v3/shell"
	"mvdan.cc/sh/v3/syntax"

	"github.com/matzehuels/groupsync/pkg/errors"
)

const alwaysPlaceholder = "{always}"

// Template is a command line with placeholders, split into arguments.
type Template struct {
	Raw  string
	Args []string
}

// ParseTemplate splits s into arguments with POSIX shell quoting rules.
// Environment variables ($HOME) are expanded at parse time.
func ParseTemplate(s string) (Template, error) {
	args, err := shell.Fields(s, nil)
	if err != nil {
		return Template{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "command template %q", s)
	}
	if len(args) == 0 {
		return Template{}, errors.New(errors.ErrCodeInvalidConfig, "command template is empty")
	}
	return Template{Raw: s, Args: args}, nil
}

// MustParseTemplate is like ParseTemplate but panics on error. For tests
// and package-level defaults.
func MustParseTemplate(s string) Template {
	t, err := ParseTemplate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Vars are the per-group placeholder values.
type Vars struct {
	Group    string
	Selector string
	Lockfile string
	TestPath string
	Manifest string
	// Always holds the already prefixed always-group arguments.
	Always []string
}

// Expand substitutes vars into the template.
func (t Template) Expand(v Vars) []string {
	r := strings.NewReplacer(
		"{group}", v.Group,
		"{selector}", v.Selector,
		"{module}", Module(v.Group),
		"{lockfile}", v.Lockfile,
		"{testpath}", v.TestPath,
		"{manifest}", v.Manifest,
	)
	out := make([]string, 0, len(t.Args)+len(v.Always))
	for _, a := range t.Args {
		if a == alwaysPlaceholder {
			out = append(out, v.Always...)
			continue
		}
		out = append(out, r.Replace(a))
	}
	return out
}

// Quote renders args as a single shell command line.
func Quote(args []string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		q, err := syntax.Quote(a, syntax.LangBash)
		if err != nil {
			q = a
		}
		parts[i] = q
	}
	return strings.Join(parts, " ")
}
