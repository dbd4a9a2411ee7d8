package lockfile

import (
	"fmt"

	"github.com/matzehuels/groupsync/pkg/manifest"
)

// ViolationKind classifies a [Violation].
type ViolationKind string

const (
	// OutOfRange means the pinned version does not satisfy the declared range.
	OutOfRange ViolationKind = "out-of-range"
	// Missing means a declared package has no pin.
	Missing ViolationKind = "missing"
	// Unparsable means the pinned version is not a PEP 440 version, so the
	// range cannot be checked.
	Unparsable ViolationKind = "unparsable"
)

// Violation is a declared constraint that the lockfile does not honour.
type Violation struct {
	Kind       ViolationKind
	Constraint manifest.Constraint
	Pin        *Pin // nil for Missing
}

func (v Violation) String() string {
	switch v.Kind {
	case Missing:
		return fmt.Sprintf("%s is declared but not pinned", v.Constraint.Name)
	case Unparsable:
		return fmt.Sprintf("%s pinned to non-PEP 440 version %q", v.Constraint.Name, v.Pin.Version)
	}
	r, _ := v.Constraint.Range()
	return fmt.Sprintf("%s==%s (line %d) outside declared range %s", v.Pin.Name, v.Pin.Version, v.Pin.Line, r)
}

// Verify checks every constraint against the lockfile: a pinned package must
// satisfy its declared range, and a declared package without an environment
// marker must be pinned. Direct URL references are only checked for presence.
func Verify(lf *Lockfile, constraints []manifest.Constraint) []Violation {
	var out []Violation
	for _, c := range constraints {
		pin, ok := lf.Pin(c.Name)
		if !ok {
			if c.Marker == "" {
				out = append(out, Violation{Kind: Missing, Constraint: c})
			}
			continue
		}
		if c.URL != "" || len(c.Specifiers) == 0 {
			continue
		}
		if pin.Parsed.IsZero() {
			out = append(out, Violation{Kind: Unparsable, Constraint: c, Pin: &pin})
			continue
		}
		r, err := c.Range()
		if err != nil {
			continue
		}
		if !r.Contains(pin.Parsed) {
			out = append(out, Violation{Kind: OutOfRange, Constraint: c, Pin: &pin})
		}
	}
	return out
}
