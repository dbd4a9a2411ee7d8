package version

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	pep440 "github.com/aquasecurity/go-pep440-version"

	"github.com/matzehuels/groupsync/pkg/errors"
)

// Part names a release segment for [Version.Bump].
type Part string

const (
	Major Part = "major"
	Minor Part = "minor"
	Patch Part = "patch"
)

// ParsePart converts a user-supplied string into a Part.
func ParsePart(s string) (Part, error) {
	switch p := Part(strings.ToLower(strings.TrimSpace(s))); p {
	case Major, Minor, Patch:
		return p, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidInput, "unknown version part %q (want major, minor or patch)", s)
	}
}

// Version is a parsed PEP 440 version.
//
// The zero value is not a valid version; use [Parse].
type Version struct {
	Epoch   int
	Release []int  // At least one component
	PreL    string // "", "a", "b" or "rc"
	PreN    int
	Post    int // -1 when absent
	Dev     int // -1 when absent
	Local   string
}

var versionRE = regexp.MustCompile(`(?i)^\s*v?` +
	`(?:(\d+)!)?` +
	`(\d+(?:\.\d+)*)` +
	`(?:[-_.]?(a|b|c|rc|alpha|beta|pre|preview)[-_.]?(\d+)?)?` +
	`(?:-(\d+)|[-_.]?(post|rev|r)[-_.]?(\d+)?)?` +
	`(?:[-_.]?(dev)[-_.]?(\d+)?)?` +
	`(?:\+([a-z0-9]+(?:[-_.][a-z0-9]+)*))?\s*$`)

// Parse parses s as a PEP 440 version, normalising alternate spellings
// ("1.0-alpha.1" → "1.0a1", "1.0-1" → "1.0.post1").
func Parse(s string) (Version, error) {
	s = strings.TrimSpace(s)
	if _, err := pep440.Parse(s); err != nil {
		return Version{}, errors.Wrap(errors.ErrCodeInvalidVersion, err, "invalid version %q", s)
	}
	m := versionRE.FindStringSubmatch(s)
	if m == nil {
		return Version{}, errors.New(errors.ErrCodeInvalidVersion, "invalid version %q", s)
	}

	v := Version{Post: -1, Dev: -1}
	if m[1] != "" {
		v.Epoch = atoi(m[1])
	}
	for _, part := range strings.Split(m[2], ".") {
		v.Release = append(v.Release, atoi(part))
	}

	if m[3] != "" {
		v.PreL = normalizePre(strings.ToLower(m[3]))
		v.PreN = atoi(m[4])
	}

	switch {
	case m[5] != "":
		v.Post = atoi(m[5])
	case m[6] != "":
		v.Post = atoi(m[7])
	}

	if m[8] != "" {
		v.Dev = atoi(m[9])
	}

	v.Local = strings.ToLower(strings.NewReplacer("-", ".", "_", ".").Replace(m[10]))
	return v, nil
}

// MustParse is like [Parse] but panics on error. Intended for tests and
// package-level constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func normalizePre(l string) string {
	switch l {
	case "alpha":
		return "a"
	case "beta":
		return "b"
	case "c", "pre", "preview":
		return "rc"
	}
	return l
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return math.MaxInt32
	}
	return n
}

// String renders the canonical PEP 440 form.
func (v Version) String() string {
	var b strings.Builder
	if v.Epoch != 0 {
		fmt.Fprintf(&b, "%d!", v.Epoch)
	}
	for i, n := range v.Release {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(n))
	}
	if v.PreL != "" {
		fmt.Fprintf(&b, "%s%d", v.PreL, v.PreN)
	}
	if v.Post >= 0 {
		fmt.Fprintf(&b, ".post%d", v.Post)
	}
	if v.Dev >= 0 {
		fmt.Fprintf(&b, ".dev%d", v.Dev)
	}
	if v.Local != "" {
		b.WriteString("+" + v.Local)
	}
	return b.String()
}

// IsZero reports whether v was never parsed.
func (v Version) IsZero() bool { return len(v.Release) == 0 }

// IsPrerelease reports whether v is a pre- or dev-release.
func (v Version) IsPrerelease() bool { return v.PreL != "" || v.Dev >= 0 }

// Segment returns release component i, or 0 when v has fewer components.
func (v Version) Segment(i int) int {
	if i < len(v.Release) {
		return v.Release[i]
	}
	return 0
}

// Compare returns -1, 0 or +1 following PEP 440 ordering.
// Local version labels do not participate in ordering. The zero Version
// sorts before every parsed one.
func (v Version) Compare(o Version) int {
	switch {
	case v.IsZero() && o.IsZero():
		return 0
	case v.IsZero():
		return -1
	case o.IsZero():
		return 1
	}
	return v.public().Compare(o.public())
}

// public returns v without its local label in the form pep440 orders.
// String always renders a valid version, so parsing cannot fail.
func (v Version) public() pep440.Version {
	p := v
	p.Local = ""
	pv, err := pep440.Parse(p.String())
	if err != nil {
		panic(fmt.Sprintf("version: unparsable canonical form %q: %v", p, err))
	}
	return pv
}

// Base returns the epoch and release segments of v only.
func (v Version) Base() Version {
	return Release(v.Epoch, v.Release...)
}

// Release builds a final release version from its segments.
func Release(epoch int, segments ...int) Version {
	return Version{Epoch: epoch, Release: append([]int(nil), segments...), Post: -1, Dev: -1}
}

// Less reports whether v sorts before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// Equal reports whether v and o are the same version, ignoring local labels
// and trailing zero release components.
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

// Bump returns the next release for part. Lower parts reset to zero and
// pre/post/dev/local suffixes are dropped.
func (v Version) Bump(part Part) (Version, error) {
	maj, mnr, pat := v.Segment(0), v.Segment(1), v.Segment(2)
	switch part {
	case Major:
		maj, mnr, pat = maj+1, 0, 0
	case Minor:
		mnr, pat = mnr+1, 0
	case Patch:
		pat++
	default:
		return Version{}, errors.New(errors.ErrCodeInvalidInput, "unknown version part %q", part)
	}
	return Release(v.Epoch, maj, mnr, pat), nil
}

// MinorWindow returns the conventional constraint window containing v:
// the inclusive lower bound X.Y and the exclusive upper bound X.(Y+1).
// For 0.x releases below 0.1 the window is 0.0 to 0.1.
func MinorWindow(v Version) (lower, upper Version) {
	maj, mnr := v.Segment(0), v.Segment(1)
	return Release(v.Epoch, maj, mnr), Release(v.Epoch, maj, mnr+1)
}
