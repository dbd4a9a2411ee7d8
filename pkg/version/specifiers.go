package version

import (
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"

	"github.com/matzehuels/groupsync/pkg/errors"
)

// Specifiers is a parsed PEP 440 specifier set such as
// ">=1.0, <2.0, !=1.2.*". The zero value admits every version.
type Specifiers struct {
	raw string
	set pep440.Specifiers
}

// ParseSpecifiers parses a comma separated specifier set. Pre-releases are
// admitted wherever the clauses allow them, as resolvers do for pinned
// lockfile entries.
func ParseSpecifiers(s string) (Specifiers, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Specifiers{}, nil
	}
	set, err := pep440.NewSpecifiers(s, pep440.WithPreRelease(true))
	if err != nil {
		return Specifiers{}, errors.Wrap(errors.ErrCodeInvalidVersion, err, "invalid specifiers %q", s)
	}
	return Specifiers{raw: s, set: set}, nil
}

// Check reports whether v satisfies every clause.
func (s Specifiers) Check(v Version) bool {
	if s.raw == "" {
		return true
	}
	if v.IsZero() {
		return false
	}
	pv, err := pep440.Parse(v.String())
	if err != nil {
		return false
	}
	return s.set.Check(pv)
}

func (s Specifiers) String() string { return s.raw }
