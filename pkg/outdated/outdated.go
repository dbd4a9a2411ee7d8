// Package outdated compares a manifest's version ranges with the newest
// releases on PyPI and reports ranges that have fallen behind.
//
// Each distinct distribution is looked up once, with at most
// [Options.Concurrency] requests in flight. Lookups only read; nothing in
// this package touches the manifest.
package outdated

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/groupsync/pkg/errors"
	"github.com/matzehuels/groupsync/pkg/manifest"
	"github.com/matzehuels/groupsync/pkg/version"
)

// DefaultConcurrency bounds in-flight registry requests.
const DefaultConcurrency = 8

// DependenciesGroup is the pseudo-group name used for [project].dependencies.
const DependenciesGroup = "dependencies"

// Lookup returns the newest final release of a distribution.
type Lookup interface {
	LatestVersion(ctx context.Context, name string, refresh bool) (version.Version, error)
}

// Status classifies a constraint against the latest release.
type Status string

const (
	// StatusCurrent means the range admits the latest release.
	StatusCurrent Status = "current"
	// StatusOutdated means the latest release is above the range.
	StatusOutdated Status = "outdated"
	// StatusAhead means the latest release is below the range.
	StatusAhead Status = "ahead"
	// StatusExcluded means the latest release lies within the bounds but a
	// "!=" clause rejects it. The range is not behind.
	StatusExcluded Status = "excluded"
)

// Options controls a check.
type Options struct {
	// Groups limits the check to these groups. Empty means every group plus
	// the project dependencies.
	Groups      []string
	Concurrency int
	// Refresh bypasses the lookup cache.
	Refresh bool
	// All keeps current constraints in the report.
	All bool
}

// Finding is one constraint compared with its latest release.
type Finding struct {
	Group      string
	Constraint manifest.Constraint
	Range      manifest.Range
	Latest     version.Version
	Status     Status
	// Suggested is a minor window around Latest, e.g. ">=2.32, <2.33".
	Suggested string
}

// LookupError records a distribution whose latest release is unknown.
type LookupError struct {
	Name string
	Err  error
}

func (e LookupError) Error() string { return fmt.Sprintf("%s: %v", e.Name, e.Err) }

// Report is the result of [Check].
type Report struct {
	Findings []Finding
	Errors   []LookupError
}

// Outdated returns the findings whose bounds miss the latest release.
func (r *Report) Outdated() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Status == StatusOutdated || f.Status == StatusAhead {
			out = append(out, f)
		}
	}
	return out
}

type item struct {
	group string
	c     manifest.Constraint
	rng   manifest.Range
}

// Check looks up every constrained distribution in the selected groups.
// Failed lookups land in Report.Errors; only cancellation and unknown
// group names are returned as errors.
func Check(ctx context.Context, m *manifest.Manifest, lookup Lookup, opts Options) (*Report, error) {
	items, err := collect(m, opts.Groups)
	if err != nil {
		return nil, err
	}

	var names []string
	seen := make(map[string]bool)
	for _, it := range items {
		if !seen[it.c.Name] {
			seen[it.c.Name] = true
			names = append(names, it.c.Name)
		}
	}

	latest, lookupErrs, err := fetchAll(ctx, lookup, names, opts)
	if err != nil {
		return nil, err
	}

	r := &Report{Errors: lookupErrs}
	for _, it := range items {
		v, ok := latest[it.c.Name]
		if !ok {
			continue
		}
		f := Finding{Group: it.group, Constraint: it.c, Range: it.rng, Latest: v, Status: classify(it.rng, v)}
		if f.Status == StatusCurrent && !opts.All {
			continue
		}
		if f.Status != StatusExcluded {
			lo, hi := version.MinorWindow(v)
			f.Suggested = fmt.Sprintf(">=%s, <%s", lo, hi)
		}
		r.Findings = append(r.Findings, f)
	}
	return r, nil
}

func classify(rng manifest.Range, v version.Version) Status {
	if rng.Contains(v) {
		return StatusCurrent
	}
	if rng.WithinBounds(v) {
		return StatusExcluded
	}
	if rng.Lower != nil && v.Compare(rng.Lower.Version) <= 0 {
		return StatusAhead
	}
	return StatusOutdated
}

func collect(m *manifest.Manifest, groups []string) ([]item, error) {
	var items []item
	add := func(group string, cs []manifest.Constraint) {
		for _, c := range cs {
			if c.URL != "" || len(c.Specifiers) == 0 {
				continue
			}
			rng, err := c.Range()
			if err != nil || !rng.Valid() {
				continue
			}
			items = append(items, item{group: group, c: c, rng: rng})
		}
	}

	if len(groups) == 0 {
		add(DependenciesGroup, m.Dependencies)
		for _, g := range m.Groups {
			add(g.Name, g.Constraints)
		}
		return items, nil
	}
	for _, name := range groups {
		if name == DependenciesGroup {
			add(DependenciesGroup, m.Dependencies)
			continue
		}
		g, ok := m.Group(name)
		if !ok {
			return nil, errors.New(errors.ErrCodeGroupNotFound, "unknown group %q", name)
		}
		add(g.Name, g.Constraints)
	}
	return items, nil
}

func fetchAll(ctx context.Context, lookup Lookup, names []string, opts Options) (map[string]version.Version, []LookupError, error) {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	var (
		mu     sync.Mutex
		latest = make(map[string]version.Version, len(names))
		errs   = make([]error, len(names))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, name := range names {
		g.Go(func() error {
			v, err := lookup.LatestVersion(gctx, name, opts.Refresh)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				errs[i] = err
				return nil
			}
			mu.Lock()
			latest[name] = v
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var lookupErrs []LookupError
	for i, err := range errs {
		if err != nil {
			lookupErrs = append(lookupErrs, LookupError{Name: names[i], Err: err})
		}
	}
	return latest, lookupErrs, nil
}
