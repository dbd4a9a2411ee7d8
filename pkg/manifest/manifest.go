package manifest

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/groupsync/pkg/errors"
)

// Kind distinguishes the two tables a group can be declared in.
type Kind string

const (
	// KindExtra is a [project.optional-dependencies] entry.
	KindExtra Kind = "extra"
	// KindGroup is a [dependency-groups] entry (PEP 735).
	KindGroup Kind = "group"
)

// Invalid records a group entry that could not be parsed.
type Invalid struct {
	Raw string
	Err error
}

// Group is a named, ordered bundle of package constraints.
type Group struct {
	Name        string       // Name as declared
	Kind        Kind         // Table the group came from
	Constraints []Constraint // Parsed requirements in declaration order
	Includes    []string     // Normalised names of included groups, in order
	Invalid     []Invalid    // Entries that failed to parse
}

// Manifest is the dependency-group view of a pyproject.toml file.
type Manifest struct {
	Path         string
	Name         string // Project name, normalised
	Version      string // Project version as written (may be empty when dynamic)
	Dependencies []Constraint
	Groups       []*Group // Declaration order; extras first, then dependency groups
	Invalid      []Invalid
}

type pyproject struct {
	Project struct {
		Name                 string              `toml:"name"`
		Version              string              `toml:"version"`
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	DependencyGroups map[string][]any `toml:"dependency-groups"`
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "manifest %s", path)
	}
	if err != nil {
		return nil, err
	}
	m, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", path)
	}
	m.Path = path
	return m, nil
}

// Parse decodes manifest content. Malformed TOML is an error; malformed
// requirement strings are collected in Group.Invalid and Manifest.Invalid
// so that lint can report all of them at once.
func Parse(data []byte) (*Manifest, error) {
	var doc pyproject
	md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&doc)
	if err != nil {
		return nil, err
	}

	m := &Manifest{
		Name:    Normalize(doc.Project.Name),
		Version: doc.Project.Version,
	}
	for _, raw := range doc.Project.Dependencies {
		c, err := ParseRequirement(raw)
		if err != nil {
			m.Invalid = append(m.Invalid, Invalid{Raw: raw, Err: err})
			continue
		}
		m.Dependencies = append(m.Dependencies, c)
	}

	for _, name := range orderedKeys(md, doc.Project.OptionalDependencies, "project", "optional-dependencies") {
		g := &Group{Name: name, Kind: KindExtra}
		for _, raw := range doc.Project.OptionalDependencies[name] {
			m.addRequirement(g, raw)
		}
		m.Groups = append(m.Groups, g)
	}

	for _, name := range orderedKeys(md, doc.DependencyGroups, "dependency-groups") {
		g := &Group{Name: name, Kind: KindGroup}
		for _, item := range doc.DependencyGroups[name] {
			switch v := item.(type) {
			case string:
				m.addRequirement(g, v)
			case map[string]any:
				inc, ok := v["include-group"].(string)
				if !ok || inc == "" {
					g.Invalid = append(g.Invalid, Invalid{
						Raw: fmt.Sprint(v),
						Err: errors.New(errors.ErrCodeInvalidManifest, "group %s: table entry without include-group", name),
					})
					continue
				}
				g.Includes = append(g.Includes, Normalize(inc))
			default:
				g.Invalid = append(g.Invalid, Invalid{
					Raw: fmt.Sprint(v),
					Err: errors.New(errors.ErrCodeInvalidManifest, "group %s: unsupported entry type %T", name, v),
				})
			}
		}
		m.Groups = append(m.Groups, g)
	}

	return m, nil
}

// addRequirement parses raw into g. A requirement on the project itself
// ("myproject[a,b]") is recorded as an include of those extras.
func (m *Manifest) addRequirement(g *Group, raw string) {
	c, err := ParseRequirement(raw)
	if err != nil {
		g.Invalid = append(g.Invalid, Invalid{Raw: raw, Err: err})
		return
	}
	if m.Name != "" && c.Name == m.Name && c.URL == "" && len(c.Specifiers) == 0 {
		g.Includes = append(g.Includes, c.Extras...)
		return
	}
	g.Constraints = append(g.Constraints, c)
}

// orderedKeys returns the keys of table in the order they appear in the
// source document. Keys missing from the metadata are appended sorted.
func orderedKeys[V any](md toml.MetaData, table map[string]V, prefix ...string) []string {
	seen := make(map[string]bool, len(table))
	var out []string
	for _, k := range md.Keys() {
		if len(k) != len(prefix)+1 || !slices.Equal(k[:len(prefix)], prefix) {
			continue
		}
		name := k[len(prefix)]
		if _, ok := table[name]; ok && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	var rest []string
	for name := range table {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// Group returns the first group whose normalised name matches name.
func (m *Manifest) Group(name string) (*Group, bool) {
	want := Normalize(name)
	for _, g := range m.Groups {
		if Normalize(g.Name) == want {
			return g, true
		}
	}
	return nil, false
}

// GroupOf returns the group of the given kind whose normalised name matches.
func (m *Manifest) GroupOf(kind Kind, name string) (*Group, bool) {
	want := Normalize(name)
	for _, g := range m.Groups {
		if g.Kind == kind && Normalize(g.Name) == want {
			return g, true
		}
	}
	return nil, false
}

// GroupNames returns the declared group names in order.
func (m *Manifest) GroupNames() []string {
	names := make([]string, len(m.Groups))
	for i, g := range m.Groups {
		names[i] = g.Name
	}
	return names
}

// Duplicate describes two declarations that normalise to the same name.
type Duplicate struct {
	Name  string
	First *Group
	Again *Group
}

// Duplicates returns every group whose normalised name was already declared.
// Collisions between an extra and a dependency group are included; callers
// can tell them apart by comparing Kind.
func (m *Manifest) Duplicates() []Duplicate {
	first := make(map[string]*Group)
	var dups []Duplicate
	for _, g := range m.Groups {
		n := Normalize(g.Name)
		if prev, ok := first[n]; ok {
			dups = append(dups, Duplicate{Name: n, First: prev, Again: g})
			continue
		}
		first[n] = g
	}
	return dups
}

// Resolve returns the constraints of the named group followed by those of
// its included groups, depth first, without repeating an identical
// requirement. Includes resolve within the same kind. A missing include
// target or an include cycle is an error.
func (m *Manifest) Resolve(name string) ([]Constraint, error) {
	g, ok := m.Group(name)
	if !ok {
		return nil, errors.New(errors.ErrCodeGroupNotFound, "unknown group %q", name)
	}
	var (
		out     []Constraint
		seen    = make(map[string]bool)
		state   = make(map[string]int)
		resolve func(g *Group, path []string) error
	)
	resolve = func(g *Group, path []string) error {
		key := string(g.Kind) + ":" + Normalize(g.Name)
		path = append(path, g.Name)
		switch state[key] {
		case 1:
			return errors.New(errors.ErrCodeIncludeCycle, "include cycle: %v", path)
		case 2:
			return nil
		}
		state[key] = 1
		for _, c := range g.Constraints {
			if s := c.String(); !seen[s] {
				seen[s] = true
				out = append(out, c)
			}
		}
		for _, inc := range g.Includes {
			child, ok := m.GroupOf(g.Kind, inc)
			if !ok {
				return errors.New(errors.ErrCodeGroupNotFound, "group %s includes unknown %s %q", g.Name, g.Kind, inc)
			}
			if err := resolve(child, path); err != nil {
				return err
			}
		}
		state[key] = 2
		return nil
	}
	if err := resolve(g, nil); err != nil {
		return nil, err
	}
	return out, nil
}
