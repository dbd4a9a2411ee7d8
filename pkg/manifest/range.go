package manifest

import (
	"strings"

	"github.com/matzehuels/groupsync/pkg/errors"
	"github.com/matzehuels/groupsync/pkg/version"
)

// Bound is one end of a [Range].
type Bound struct {
	Version   version.Version
	Inclusive bool
}

// Range is the set of versions admitted by a constraint's specifiers,
// reduced to a lower bound, an upper bound and a list of exclusions.
// A nil bound means the range is open on that side.
type Range struct {
	Lower    *Bound
	Upper    *Bound
	Excluded []version.Version
	// ExcludedPrefixes holds "!=X.*" clauses as the prefix X.
	ExcludedPrefixes []version.Version

	specs version.Specifiers
}

// Range computes the version range of the constraint.
// Direct URL references and bare names yield an unbounded range.
func (c Constraint) Range() (Range, error) {
	var r Range
	var clauses []string
	for _, s := range c.Specifiers {
		if err := r.apply(s); err != nil {
			return Range{}, errors.Wrap(errors.ErrCodeInvalidRequirement, err, "%s", c.Name)
		}
		// Arbitrary equality compares strings, not versions.
		if s.Op != "===" {
			clauses = append(clauses, s.String())
		}
	}
	specs, err := version.ParseSpecifiers(strings.Join(clauses, ","))
	if err != nil {
		return Range{}, errors.Wrap(errors.ErrCodeInvalidRequirement, err, "%s", c.Name)
	}
	r.specs = specs
	return r, nil
}

func (r *Range) apply(s Specifier) error {
	wildcard := strings.HasSuffix(s.Version, ".*")
	raw := strings.TrimSuffix(s.Version, ".*")
	v, err := version.Parse(raw)
	if err != nil {
		return err
	}

	switch s.Op {
	case ">=":
		r.raiseLower(Bound{v, true})
	case ">":
		r.raiseLower(Bound{v, false})
	case "<":
		r.lowerUpper(Bound{v, false})
	case "<=":
		r.lowerUpper(Bound{v, true})
	case "==", "===":
		if wildcard {
			r.raiseLower(Bound{v, true})
			r.lowerUpper(Bound{prefixCeiling(v, len(v.Release)), false})
			return nil
		}
		r.raiseLower(Bound{v, true})
		r.lowerUpper(Bound{v, true})
	case "~=":
		if len(v.Release) < 2 {
			return errors.New(errors.ErrCodeInvalidRequirement, "~= requires at least two release segments: %s", s)
		}
		r.raiseLower(Bound{v, true})
		r.lowerUpper(Bound{prefixCeiling(v, len(v.Release)-1), false})
	case "!=":
		if wildcard {
			r.ExcludedPrefixes = append(r.ExcludedPrefixes, v)
			return nil
		}
		r.Excluded = append(r.Excluded, v)
	}
	return nil
}

// prefixCeiling returns the smallest version greater than every version
// sharing the first n release segments of v.
func prefixCeiling(v version.Version, n int) version.Version {
	rel := make([]int, n)
	for i := range n {
		rel[i] = v.Segment(i)
	}
	rel[n-1]++
	return version.Release(v.Epoch, rel...)
}

func (r *Range) raiseLower(b Bound) {
	if r.Lower == nil {
		r.Lower = &b
		return
	}
	switch c := b.Version.Compare(r.Lower.Version); {
	case c > 0, c == 0 && !b.Inclusive:
		r.Lower = &b
	}
}

func (r *Range) lowerUpper(b Bound) {
	if r.Upper == nil {
		r.Upper = &b
		return
	}
	switch c := b.Version.Compare(r.Upper.Version); {
	case c < 0, c == 0 && !b.Inclusive:
		r.Upper = &b
	}
}

// Bounded reports whether both ends of the range are set.
func (r Range) Bounded() bool { return r.Lower != nil && r.Upper != nil }

// Valid reports whether the range admits at least one version:
// lower < upper, or lower == upper with both ends inclusive.
func (r Range) Valid() bool {
	if !r.Bounded() {
		return true
	}
	switch c := r.Lower.Version.Compare(r.Upper.Version); {
	case c < 0:
		return true
	case c == 0:
		return r.Lower.Inclusive && r.Upper.Inclusive
	}
	return false
}

// Contains reports whether v satisfies the range: it lies within the
// bounds and matches no exclusion.
func (r Range) Contains(v version.Version) bool {
	if !r.WithinBounds(v) {
		return false
	}
	for _, x := range r.Excluded {
		if v.Equal(x) {
			return false
		}
	}
	for _, p := range r.ExcludedPrefixes {
		if hasPrefix(v, p) {
			return false
		}
	}
	return r.specs.Check(v)
}

// WithinBounds reports whether v lies between the lower and upper bound,
// ignoring exclusions. An exclusive upper bound that is a final release
// also rejects pre-releases of that release, so "<1.3" rejects 1.3rc1.
func (r Range) WithinBounds(v version.Version) bool {
	if r.Lower != nil {
		c := v.Compare(r.Lower.Version)
		if c < 0 || c == 0 && !r.Lower.Inclusive {
			return false
		}
	}
	if r.Upper != nil {
		u := r.Upper
		c := v.Compare(u.Version)
		if c > 0 || c == 0 && !u.Inclusive {
			return false
		}
		if !u.Inclusive && v.IsPrerelease() && !u.Version.IsPrerelease() && v.Base().Equal(u.Version.Base()) {
			return false
		}
	}
	return true
}

// hasPrefix reports whether v's release starts with p's release segments.
func hasPrefix(v, p version.Version) bool {
	if v.Epoch != p.Epoch {
		return false
	}
	for i := range p.Release {
		if v.Segment(i) != p.Segment(i) {
			return false
		}
	}
	return true
}

func (r Range) String() string {
	var parts []string
	if r.Lower != nil {
		op := ">"
		if r.Lower.Inclusive {
			op = ">="
		}
		parts = append(parts, op+r.Lower.Version.String())
	}
	if r.Upper != nil {
		op := "<"
		if r.Upper.Inclusive {
			op = "<="
		}
		parts = append(parts, op+r.Upper.Version.String())
	}
	for _, x := range r.Excluded {
		parts = append(parts, "!="+x.String())
	}
	for _, p := range r.ExcludedPrefixes {
		parts = append(parts, "!="+p.String()+".*")
	}
	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, ", ")
}
