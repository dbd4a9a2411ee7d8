// Package script inspects the shell scripts that drive dependency syncing
// and test runs.
//
// Scripts are parsed, never executed. Parse extracts the static word lists
// they loop over (for-loop items and array assignments) and the external
// commands they invoke, which is enough to find every dependency group a
// script mentions.
package script

import (
	"bytes"
	"os"
	"regexp"
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/matzehuels/groupsync/pkg/errors"
)

// ListKind says where a [WordList] came from.
type ListKind string

const (
	ForLoop ListKind = "for"
	Array   ListKind = "array"
)

// WordList is a static list of words: the items of a for loop or the
// elements of an array assignment.
type WordList struct {
	Kind  ListKind
	Name  string // loop variable or array name
	Words []string
	// Items holds the rendered loop items, expansions included.
	Items []string
	Line  int
}

// Command is one simple command invocation.
type Command struct {
	Args []string
	Line int
}

// Name returns the invoked program, or "" for a bare assignment.
func (c Command) Name() string {
	if len(c.Args) == 0 {
		return ""
	}
	return c.Args[0]
}

// Script is a parsed shell script.
type Script struct {
	Path     string
	Lists    []WordList
	Commands []Command
}

// Load reads and parses the script at path.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "script %s", path)
	}
	if err != nil {
		return nil, err
	}
	s, err := Parse(data, path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidScript, err, "parse %s", path)
	}
	return s, nil
}

// Parse parses bash source. name is used in error positions.
func Parse(src []byte, name string) (*Script, error) {
	f, err := syntax.NewParser(syntax.Variant(syntax.LangBash)).Parse(bytes.NewReader(src), name)
	if err != nil {
		return nil, err
	}

	s := &Script{Path: name}
	syntax.Walk(f, func(n syntax.Node) bool {
		switch n := n.(type) {
		case *syntax.ForClause:
			if it, ok := n.Loop.(*syntax.WordIter); ok && it.Name != nil {
				items := make([]string, len(it.Items))
				for i, w := range it.Items {
					items[i] = render(w)
				}
				s.Lists = append(s.Lists, WordList{
					Kind:  ForLoop,
					Name:  it.Name.Value,
					Words: literals(it.Items),
					Items: items,
					Line:  int(n.Pos().Line()),
				})
			}
		case *syntax.Assign:
			if n.Array != nil && n.Name != nil {
				var words []*syntax.Word
				for _, e := range n.Array.Elems {
					if e.Value != nil {
						words = append(words, e.Value)
					}
				}
				s.Lists = append(s.Lists, WordList{
					Kind:  Array,
					Name:  n.Name.Value,
					Words: literals(words),
					Line:  int(n.Pos().Line()),
				})
			}
		case *syntax.CallExpr:
			if len(n.Args) == 0 {
				return true
			}
			args := make([]string, len(n.Args))
			for i, w := range n.Args {
				args[i] = render(w)
			}
			s.Commands = append(s.Commands, Command{Args: args, Line: int(n.Pos().Line())})
		}
		return true
	})
	return s, nil
}

// literals returns the words that are fully static, skipping any that
// contain expansions.
func literals(words []*syntax.Word) []string {
	var out []string
	for _, w := range words {
		if lit, ok := literal(w); ok {
			out = append(out, lit)
		}
	}
	return out
}

// literal resolves a word made only of plain, single-quoted and
// double-quoted literal parts.
func literal(w *syntax.Word) (string, bool) {
	var sb strings.Builder
	for _, p := range w.Parts {
		if !literalPart(&sb, p) {
			return "", false
		}
	}
	return sb.String(), true
}

func literalPart(sb *strings.Builder, p syntax.WordPart) bool {
	switch p := p.(type) {
	case *syntax.Lit:
		sb.WriteString(p.Value)
	case *syntax.SglQuoted:
		sb.WriteString(p.Value)
	case *syntax.DblQuoted:
		for _, q := range p.Parts {
			if !literalPart(sb, q) {
				return false
			}
		}
	default:
		return false
	}
	return true
}

// render returns the literal value of w, or its source form when it
// contains expansions.
func render(w *syntax.Word) string {
	if lit, ok := literal(w); ok {
		return lit
	}
	var buf bytes.Buffer
	if err := syntax.NewPrinter().Print(&buf, w); err != nil {
		return ""
	}
	return buf.String()
}

// RefSource says how a [Reference] was found.
type RefSource string

const (
	FromList RefSource = "list"
	FromFlag RefSource = "flag"
)

// Reference is a dependency group name mentioned by a script.
type Reference struct {
	Group  string
	Source RefSource
	Line   int
	// Bound is set when the name provably reaches a group flag, lockfile
	// path or test path. List words of unrelated loops are unbound.
	Bound bool
}

// groupFlags are package-manager options whose value names a group.
var groupFlags = []string{"--extra", "--only-group", "--group", "--only-extra"}

// References returns every group the script names: group-like words of
// static lists (file names and globs are ignored), and the values of
// --extra/--group style flags in invoked commands. Values containing
// expansions are skipped. Order follows the script.
func (s *Script) References() []Reference {
	var out []Reference
	for _, l := range s.Lists {
		bound := s.bound(l.Name, map[string]bool{})
		for _, w := range l.Words {
			if !groupLike(w) {
				continue
			}
			out = append(out, Reference{Group: w, Source: FromList, Line: l.Line, Bound: bound})
		}
	}
	for _, c := range s.Commands {
		for i := 1; i < len(c.Args); i++ {
			val, ok := flagValue(c.Args, i)
			if !ok || strings.ContainsAny(val, "$`") {
				continue
			}
			out = append(out, Reference{Group: val, Source: FromFlag, Line: c.Line, Bound: true})
		}
	}
	return out
}

// bound reports whether variable name is expanded where a group belongs:
// a group flag value, a lockfile or test path, or the items of a for loop
// whose own variable is bound.
func (s *Script) bound(name string, seen map[string]bool) bool {
	if seen[name] {
		return false
	}
	seen[name] = true
	ref := varRef(name)
	for _, c := range s.Commands {
		for i := 1; i < len(c.Args); i++ {
			if !ref.MatchString(c.Args[i]) {
				continue
			}
			if _, ok := flagValue(c.Args, i); ok || groupPath(c.Args[i]) {
				return true
			}
			if v, ok := flagValue(c.Args, i-1); ok && v == c.Args[i] {
				return true
			}
		}
	}
	for _, l := range s.Lists {
		if l.Kind != ForLoop || l.Name == name {
			continue
		}
		for _, item := range l.Items {
			if ref.MatchString(item) && s.bound(l.Name, seen) {
				return true
			}
		}
	}
	return false
}

// varRef matches an expansion of name: $name, ${name}, ${name[@]},
// ${name//-/_} and the like.
func varRef(name string) *regexp.Regexp {
	return regexp.MustCompile(`\$\{?` + regexp.QuoteMeta(name) + `(\W|$)`)
}

// groupPath reports whether a command argument looks like a per-group
// lockfile or test module path.
func groupPath(arg string) bool {
	arg = strings.Trim(arg, `"'`)
	return strings.HasSuffix(arg, ".txt") || strings.Contains(arg, "requirements/") || strings.Contains(arg, "test_")
}

// flagValue returns the value of a group flag at args[i], accepting both
// "--flag=value" and "--flag value".
func flagValue(args []string, i int) (string, bool) {
	arg := args[i]
	for _, f := range groupFlags {
		if v, ok := strings.CutPrefix(arg, f+"="); ok {
			return v, v != ""
		}
		if arg == f && i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "", false
}

// groupLike reports whether a list word can be a group name rather than a
// path, glob or file name.
func groupLike(w string) bool {
	return errors.ValidateGroupName(w) == nil && !strings.Contains(w, ".")
}
