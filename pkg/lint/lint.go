// Package lint checks that a project's dependency configuration is well
// formed: the manifest's groups and ranges, the lockfiles generated from
// them, the scripts and CI workflows that reference them, and the
// pre-commit hook manifest.
//
// Checks never stop at the first problem. Every finding becomes a
// [Diagnostic] in the returned [Report], and callers decide what to do
// with errors versus warnings.
package lint

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/groupsync/pkg/graph"
	"github.com/matzehuels/groupsync/pkg/lockfile"
	"github.com/matzehuels/groupsync/pkg/manifest"
	"github.com/matzehuels/groupsync/pkg/precommit"
	"github.com/matzehuels/groupsync/pkg/script"
	"github.com/matzehuels/groupsync/pkg/version"
	"github.com/matzehuels/groupsync/pkg/workflow"
)

const (
	// SeverityWarning marks a finding that does not fail lint.
	SeverityWarning Severity = "warning"
	// SeverityError marks a finding that fails lint.
	SeverityError Severity = "error"
)

// Diagnostic codes.
const (
	CodeDuplicateGroup     = "duplicate_group"
	CodeGroupNameClash     = "group_name_clash"
	CodeInvalidRequirement = "invalid_requirement"
	CodeInvalidRange       = "invalid_range"
	CodeEmptyRange         = "empty_range"
	CodeUnbounded          = "unbounded_constraint"
	CodeMissingInclude     = "missing_include"
	CodeIncludeCycle       = "include_cycle"
	CodeRedundantInclude   = "redundant_include"
	CodeUnknownScriptGroup = "unknown_script_group"
	CodeMissingLockfile    = "missing_lockfile"
	CodeLockOutOfRange     = "lock_out_of_range"
	CodeLockMissingPin     = "lock_missing_pin"
	CodeLockUnparsable     = "lock_unparsable_version"
	CodeHooks              = "precommit"
	CodeWorkflow           = "workflow"
)

type (
	// Severity is a diagnostic level.
	Severity string

	// Diagnostic is one lint finding.
	Diagnostic struct {
		Severity Severity
		// Code is a machine-readable identifier such as "empty_range".
		Code string
		// File is the file the finding is about.
		File string
		// Subject names the group, package, hook or job concerned.
		Subject string
		Message string
	}

	// Input is everything lint looks at. Only Manifest is required.
	Input struct {
		Manifest *manifest.Manifest
		// Locks maps every group name to its lockfile, or to nil when the
		// group has none. Groups absent from the map are not lock-checked.
		Locks map[string]*lockfile.Lockfile
		// LockPaths maps group names to the expected lockfile path, used in
		// missing-lockfile diagnostics.
		LockPaths map[string]string
		Hooks     *precommit.Config
		HooksPath string
		Workflows []*workflow.Workflow
		Scripts   []*script.Script
	}
)

func (d Diagnostic) String() string {
	var sb strings.Builder
	if d.File != "" {
		sb.WriteString(d.File)
		sb.WriteString(": ")
	}
	if d.Subject != "" {
		sb.WriteString(d.Subject)
		sb.WriteString(": ")
	}
	sb.WriteString(d.Message)
	return sb.String()
}

// Report is the result of [Run].
type Report struct {
	Diagnostics []Diagnostic
}

// HasErrors reports whether any diagnostic is an error.
func (r *Report) HasErrors() bool {
	return slices.ContainsFunc(r.Diagnostics, func(d Diagnostic) bool { return d.Severity == SeverityError })
}

// Count returns the number of errors and warnings.
func (r *Report) Count() (errs, warnings int) {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			errs++
		} else {
			warnings++
		}
	}
	return errs, warnings
}

func (r *Report) add(sev Severity, code, file, subject, format string, args ...any) {
	r.Diagnostics = append(r.Diagnostics, Diagnostic{
		Severity: sev,
		Code:     code,
		File:     file,
		Subject:  subject,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Run performs every check whose input is present.
func Run(in Input) *Report {
	r := &Report{}
	m := in.Manifest
	checkDuplicates(r, m)
	checkRequirements(r, m)
	checkIncludes(r, m)
	for _, s := range in.Scripts {
		checkScript(r, m, s)
	}
	checkLocks(r, m, in.Locks, in.LockPaths)
	if in.Hooks != nil {
		checkHooks(r, in.Hooks, in.HooksPath)
	}
	for _, wf := range in.Workflows {
		checkWorkflow(r, wf)
	}
	return r
}

func checkDuplicates(r *Report, m *manifest.Manifest) {
	for _, d := range m.Duplicates() {
		if d.First.Kind == d.Again.Kind {
			r.add(SeverityError, CodeDuplicateGroup, m.Path, d.Again.Name,
				"%s declared twice (first as %q)", d.Again.Kind, d.First.Name)
			continue
		}
		r.add(SeverityWarning, CodeGroupNameClash, m.Path, d.Again.Name,
			"name is used by both an extra and a dependency group")
	}
}

func checkRequirements(r *Report, m *manifest.Manifest) {
	for _, inv := range m.Invalid {
		r.add(SeverityError, CodeInvalidRequirement, m.Path, "dependencies", "%q: %v", inv.Raw, inv.Err)
	}
	for _, c := range m.Dependencies {
		checkConstraint(r, m.Path, "dependencies", c)
	}
	for _, g := range m.Groups {
		for _, inv := range g.Invalid {
			r.add(SeverityError, CodeInvalidRequirement, m.Path, g.Name, "%q: %v", inv.Raw, inv.Err)
		}
		for _, c := range g.Constraints {
			checkConstraint(r, m.Path, g.Name, c)
		}
	}
}

func checkConstraint(r *Report, file, group string, c manifest.Constraint) {
	if c.URL != "" {
		return
	}
	subject := group + "/" + c.Name
	rng, err := c.Range()
	if err != nil {
		r.add(SeverityError, CodeInvalidRange, file, subject, "%v", err)
		return
	}
	if !rng.Valid() {
		r.add(SeverityError, CodeEmptyRange, file, subject, "range %s admits no version", rng)
		return
	}
	if rng.Bounded() {
		return
	}
	msg := "constraint has no upper bound"
	switch {
	case rng.Lower == nil && rng.Upper == nil:
		msg = "constraint is unbounded"
	case rng.Lower == nil:
		msg = "constraint has no lower bound"
	}
	if rng.Lower != nil {
		lo, hi := version.MinorWindow(rng.Lower.Version)
		msg += fmt.Sprintf("; use >=%s, <%s", lo, hi)
	}
	r.add(SeverityWarning, CodeUnbounded, file, subject, "%s", msg)
}

func checkIncludes(r *Report, m *manifest.Manifest) {
	g, dangling := graph.Build(m, graph.Options{})
	for _, d := range dangling {
		r.add(SeverityError, CodeMissingInclude, m.Path, d.Group.Name,
			"includes unknown %s %q", d.Group.Kind, d.Target)
	}
	for _, cycle := range g.Cycles() {
		labels := make([]string, len(cycle))
		for i, id := range cycle {
			n, _ := g.Node(id)
			labels[i] = n.DisplayLabel()
		}
		r.add(SeverityError, CodeIncludeCycle, m.Path, labels[0],
			"include cycle: %s", strings.Join(labels, " -> "))
	}
	for _, e := range g.RedundantEdges() {
		from, _ := g.Node(e.From)
		to, _ := g.Node(e.To)
		r.add(SeverityWarning, CodeRedundantInclude, m.Path, from.DisplayLabel(),
			"include of %q is already implied by another include", to.DisplayLabel())
	}
}

func checkScript(r *Report, m *manifest.Manifest, s *script.Script) {
	// One finding per unknown name; a bound mention outranks a loose one.
	var order []string
	found := make(map[string]script.Reference)
	for _, ref := range s.References() {
		if _, ok := m.Group(ref.Group); ok {
			continue
		}
		prev, seen := found[ref.Group]
		if !seen {
			order = append(order, ref.Group)
		}
		if !seen || ref.Bound && !prev.Bound {
			found[ref.Group] = ref
		}
	}
	for _, name := range order {
		ref := found[name]
		if ref.Bound {
			r.add(SeverityError, CodeUnknownScriptGroup, s.Path, name,
				"line %d references a group the manifest does not declare", ref.Line)
			continue
		}
		r.add(SeverityWarning, CodeUnknownScriptGroup, s.Path, name,
			"line %d lists a name the manifest does not declare as a group", ref.Line)
	}
}

func checkLocks(r *Report, m *manifest.Manifest, locks map[string]*lockfile.Lockfile, paths map[string]string) {
	for _, g := range m.Groups {
		lf, tracked := locks[g.Name]
		if !tracked {
			continue
		}
		if lf == nil {
			r.add(SeverityWarning, CodeMissingLockfile, paths[g.Name], g.Name, "group has no lockfile")
			continue
		}
		constraints, err := m.Resolve(g.Name)
		if err != nil {
			// Reported by checkIncludes.
			continue
		}
		if g.Kind == manifest.KindExtra {
			constraints = append(slices.Clone(m.Dependencies), constraints...)
		}
		for _, v := range lockfile.Verify(lf, constraints) {
			switch v.Kind {
			case lockfile.OutOfRange:
				r.add(SeverityError, CodeLockOutOfRange, lf.Path, g.Name, "%s", v)
			case lockfile.Missing:
				r.add(SeverityError, CodeLockMissingPin, lf.Path, g.Name, "%s", v)
			case lockfile.Unparsable:
				r.add(SeverityWarning, CodeLockUnparsable, lf.Path, g.Name, "%s", v)
			}
		}
	}
}

func checkHooks(r *Report, cfg *precommit.Config, path string) {
	for _, p := range cfg.Check() {
		sev := SeverityWarning
		if p.Error {
			sev = SeverityError
		}
		subject := p.Repo
		if p.Line > 0 {
			subject = fmt.Sprintf("%s (line %d)", p.Repo, p.Line)
		}
		r.add(sev, CodeHooks, path, subject, "%s", p.Message)
	}
}

func checkWorkflow(r *Report, wf *workflow.Workflow) {
	for _, p := range wf.Check() {
		sev := SeverityWarning
		if p.Error {
			sev = SeverityError
		}
		r.add(sev, CodeWorkflow, wf.Path, p.Job, "%s", p.Message)
	}
}
