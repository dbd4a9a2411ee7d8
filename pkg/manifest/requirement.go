package manifest

import (
	"regexp"
	"slices"
	"strings"

	"github.com/matzehuels/groupsync/pkg/errors"
)

var (
	nameRE      = regexp.MustCompile(`^([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)`)
	normalizeRE = regexp.MustCompile(`[-_.]+`)
	specRE      = regexp.MustCompile(`^(~=|===|==|!=|<=|>=|<|>)\s*([A-Za-z0-9_.*+!-]+)$`)
)

// Normalize converts a package or group name to its PEP 503 canonical form:
// lowercase, with runs of "-", "_" and "." collapsed to a single "-".
func Normalize(name string) string {
	return normalizeRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// Specifier is a single version clause such as ">=1.2".
type Specifier struct {
	Op      string // One of ~=, ==, !=, <=, >=, <, >, ===
	Version string // Version text as written (may end in ".*" for == and !=)
}

func (s Specifier) String() string { return s.Op + s.Version }

// Constraint is a PEP 508 requirement as declared in a dependency group.
type Constraint struct {
	Raw        string      // Original requirement text
	Name       string      // PEP 503 normalised package name
	Extras     []string    // Requested extras, normalised, in declaration order
	Specifiers []Specifier // Version clauses in declaration order
	Marker     string      // Environment marker after ";" (may be empty)
	URL        string      // Direct reference after "@" (may be empty)
}

// ParseRequirement parses a PEP 508 requirement string.
//
// Supported forms:
//
//	name
//	name[extra1,extra2]>=1.2, <1.3
//	name (>=1.2,<1.3) ; python_version >= "3.11"
//	name @ https://example.com/pkg.whl
func ParseRequirement(s string) (Constraint, error) {
	c := Constraint{Raw: s}
	rest := strings.TrimSpace(s)
	if rest == "" {
		return c, errors.New(errors.ErrCodeInvalidRequirement, "empty requirement")
	}

	if i := strings.IndexByte(rest, ';'); i >= 0 {
		c.Marker = strings.TrimSpace(rest[i+1:])
		rest = strings.TrimSpace(rest[:i])
		if c.Marker == "" {
			return c, errors.New(errors.ErrCodeInvalidRequirement, "%q: empty marker", s)
		}
	}

	m := nameRE.FindString(rest)
	if m == "" {
		return c, errors.New(errors.ErrCodeInvalidRequirement, "%q: missing package name", s)
	}
	c.Name = Normalize(m)
	rest = strings.TrimSpace(rest[len(m):])

	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return c, errors.New(errors.ErrCodeInvalidRequirement, "%q: unterminated extras", s)
		}
		for _, e := range strings.Split(rest[1:end], ",") {
			e = strings.TrimSpace(e)
			if e == "" {
				continue
			}
			if err := errors.ValidateGroupName(e); err != nil {
				return c, errors.Wrap(errors.ErrCodeInvalidRequirement, err, "%q: bad extra", s)
			}
			c.Extras = append(c.Extras, Normalize(e))
		}
		rest = strings.TrimSpace(rest[end+1:])
	}

	if strings.HasPrefix(rest, "@") {
		c.URL = strings.TrimSpace(rest[1:])
		if c.URL == "" {
			return c, errors.New(errors.ErrCodeInvalidRequirement, "%q: empty URL", s)
		}
		return c, nil
	}

	if strings.HasPrefix(rest, "(") {
		if !strings.HasSuffix(rest, ")") {
			return c, errors.New(errors.ErrCodeInvalidRequirement, "%q: unbalanced parenthesis", s)
		}
		rest = strings.TrimSpace(rest[1 : len(rest)-1])
	}

	if rest == "" {
		return c, nil
	}
	for _, clause := range strings.Split(rest, ",") {
		clause = strings.TrimSpace(clause)
		sm := specRE.FindStringSubmatch(clause)
		if sm == nil {
			return c, errors.New(errors.ErrCodeInvalidRequirement, "%q: bad version clause %q", s, clause)
		}
		c.Specifiers = append(c.Specifiers, Specifier{Op: sm[1], Version: sm[2]})
	}
	return c, nil
}

// Specifier returns the version of the first clause using op.
func (c Constraint) Specifier(op string) (string, bool) {
	for _, s := range c.Specifiers {
		if s.Op == op {
			return s.Version, true
		}
	}
	return "", false
}

// SortedSpecifiers returns the clauses with ">=" first, then "<", then the
// rest in declaration order.
func (c Constraint) SortedSpecifiers() []Specifier {
	rank := func(op string) int {
		switch op {
		case ">=":
			return 0
		case "<":
			return 1
		}
		return 2
	}
	out := slices.Clone(c.Specifiers)
	slices.SortStableFunc(out, func(a, b Specifier) int { return rank(a.Op) - rank(b.Op) })
	return out
}

// String renders the constraint canonically.
func (c Constraint) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	if len(c.Extras) > 0 {
		b.WriteString("[" + strings.Join(c.Extras, ",") + "]")
	}
	if c.URL != "" {
		b.WriteString(" @ " + c.URL)
	} else {
		specs := c.SortedSpecifiers()
		parts := make([]string, len(specs))
		for i, s := range specs {
			parts[i] = s.String()
		}
		b.WriteString(strings.Join(parts, ", "))
	}
	if c.Marker != "" {
		b.WriteString("; " + c.Marker)
	}
	return b.String()
}
