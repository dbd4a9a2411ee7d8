// Package workflow reads CI workflow manifests (GitHub Actions syntax) and
// expands their job matrices.
//
// Only the static structure is modelled: jobs, their operating-system ×
// interpreter matrix, steps, environment and timeouts. Expression syntax
// ("${{ ... }}") is kept verbatim and never evaluated.
package workflow

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/groupsync/pkg/errors"
)

// Workflow is a parsed workflow file.
type Workflow struct {
	Path string            `yaml:"-"`
	Name string            `yaml:"name"`
	Env  map[string]string `yaml:"env"`
	Jobs map[string]*Job   `yaml:"jobs"`

	order []string
}

// Job is one workflow job.
type Job struct {
	ID             string            `yaml:"-"`
	Name           string            `yaml:"name"`
	RunsOn         any               `yaml:"runs-on"`
	TimeoutMinutes int               `yaml:"timeout-minutes"`
	Env            map[string]string `yaml:"env"`
	Strategy       *Strategy         `yaml:"strategy"`
	Steps          []Step            `yaml:"steps"`
}

// Strategy holds the job matrix.
type Strategy struct {
	FailFast *bool  `yaml:"fail-fast"`
	Matrix   Matrix `yaml:"matrix"`
}

// Matrix is a job matrix: named axes plus include/exclude adjustments.
type Matrix struct {
	Axes    map[string][]any
	Include []map[string]any
	Exclude []map[string]any

	order []string
}

// UnmarshalYAML keeps axis declaration order and separates include/exclude.
func (m *Matrix) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: matrix must be a mapping", n.Line)
	}
	m.Axes = make(map[string][]any)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i].Value, n.Content[i+1]
		switch key {
		case "include":
			if err := val.Decode(&m.Include); err != nil {
				return err
			}
		case "exclude":
			if err := val.Decode(&m.Exclude); err != nil {
				return err
			}
		default:
			if val.Kind != yaml.SequenceNode {
				// Expression axes like "${{ fromJSON(...) }}" cannot be expanded.
				continue
			}
			var values []any
			if err := val.Decode(&values); err != nil {
				return err
			}
			m.Axes[key] = values
			m.order = append(m.order, key)
		}
	}
	return nil
}

// AxisNames returns matrix axis names in declaration order.
func (m Matrix) AxisNames() []string { return slices.Clone(m.order) }

// Step is one job step.
type Step struct {
	Name string            `yaml:"name"`
	ID   string            `yaml:"id"`
	Uses string            `yaml:"uses"`
	Run  string            `yaml:"run"`
	With map[string]any    `yaml:"with"`
	Env  map[string]string `yaml:"env"`
	If   string            `yaml:"if"`
}

// Label returns the step name, falling back to its action or first command line.
func (s Step) Label() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Uses != "":
		return s.Uses
	}
	first, _, _ := strings.Cut(strings.TrimSpace(s.Run), "\n")
	return first
}

// Load reads and parses the workflow at path.
func Load(path string) (*Workflow, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "workflow %s", path)
	}
	if err != nil {
		return nil, err
	}
	wf, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidWorkflow, err, "parse %s", path)
	}
	wf.Path = path
	return wf, nil
}

// Parse decodes workflow content, preserving job declaration order.
func Parse(data []byte) (*Workflow, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	var wf Workflow
	if err := root.Decode(&wf); err != nil {
		return nil, err
	}
	wf.order = jobOrder(&root)
	for id, j := range wf.Jobs {
		if j == nil {
			j = &Job{}
			wf.Jobs[id] = j
		}
		j.ID = id
	}
	if len(wf.order) != len(wf.Jobs) {
		wf.order = slices.Sorted(maps.Keys(wf.Jobs))
	}
	return &wf, nil
}

func jobOrder(root *yaml.Node) []string {
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil
	}
	doc := root.Content[0]
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value != "jobs" || doc.Content[i+1].Kind != yaml.MappingNode {
			continue
		}
		var ids []string
		jobs := doc.Content[i+1]
		for k := 0; k+1 < len(jobs.Content); k += 2 {
			ids = append(ids, jobs.Content[k].Value)
		}
		return ids
	}
	return nil
}

// JobIDs returns job ids in declaration order.
func (w *Workflow) JobIDs() []string { return slices.Clone(w.order) }

// Combination is one concrete matrix entry, keyed by axis name.
type Combination map[string]any

// String renders the combination as "k=v, k=v" in sorted key order.
func (c Combination) String() string {
	keys := slices.Sorted(maps.Keys(c))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, c[k])
	}
	return strings.Join(parts, ", ")
}

// Expand returns the job's matrix combinations: the cartesian product of
// the axes in declaration order (last axis varying fastest), minus every
// combination matching an exclude entry, followed by include entries that
// did not extend an existing combination. A job without a matrix expands
// to a single empty combination.
func (j *Job) Expand() []Combination {
	if j.Strategy == nil || len(j.Strategy.Matrix.order) == 0 && len(j.Strategy.Matrix.Include) == 0 {
		return []Combination{{}}
	}
	m := j.Strategy.Matrix

	combos := []Combination{{}}
	for _, axis := range m.order {
		var next []Combination
		for _, base := range combos {
			for _, v := range m.Axes[axis] {
				c := maps.Clone(base)
				c[axis] = v
				next = append(next, c)
			}
		}
		combos = next
	}
	if len(m.order) == 0 {
		combos = nil
	}

	combos = slices.DeleteFunc(combos, func(c Combination) bool {
		for _, ex := range m.Exclude {
			if matches(c, ex) {
				return true
			}
		}
		return false
	})

	// Include entries extend only the combinations produced by the axes.
	original := len(combos)
	for _, inc := range m.Include {
		extended := false
		for _, c := range combos[:original] {
			if !compatible(c, inc, m.Axes) {
				continue
			}
			maps.Copy(c, inc)
			extended = true
		}
		if !extended {
			combos = append(combos, Combination(maps.Clone(inc)))
		}
	}
	return combos
}

// matches reports whether every key of pattern has an equal value in c.
func matches(c Combination, pattern map[string]any) bool {
	for k, v := range pattern {
		if fmt.Sprint(c[k]) != fmt.Sprint(v) {
			return false
		}
	}
	return true
}

// compatible reports whether applying the include entry to c would leave
// every original axis value unchanged. Keys added by earlier includes may
// be overwritten.
func compatible(c Combination, inc map[string]any, axes map[string][]any) bool {
	for k, v := range inc {
		if _, isAxis := axes[k]; isAxis && fmt.Sprint(c[k]) != fmt.Sprint(v) {
			return false
		}
	}
	return true
}

// Problem is a workflow defect.
type Problem struct {
	Error   bool
	Job     string
	Message string
}

func (p Problem) String() string { return p.Job + ": " + p.Message }

// Check validates each job: a positive timeout-minutes, a runner, at least
// one step, and exactly one of uses/run per step.
func (w *Workflow) Check() []Problem {
	var out []Problem
	if len(w.Jobs) == 0 {
		out = append(out, Problem{Error: true, Job: "(workflow)", Message: "no jobs declared"})
	}
	for _, id := range w.order {
		j := w.Jobs[id]
		add := func(isErr bool, format string, args ...any) {
			out = append(out, Problem{Error: isErr, Job: id, Message: fmt.Sprintf(format, args...)})
		}
		switch {
		case j.TimeoutMinutes < 0:
			add(true, "timeout-minutes must be positive, got %d", j.TimeoutMinutes)
		case j.TimeoutMinutes == 0:
			add(false, "timeout-minutes not set (runner default applies)")
		}
		if j.RunsOn == nil {
			add(true, "runs-on is required")
		}
		if len(j.Steps) == 0 {
			add(true, "job has no steps")
		}
		for i, s := range j.Steps {
			switch {
			case s.Uses != "" && s.Run != "":
				add(true, "step %d (%s) sets both uses and run", i+1, s.Label())
			case s.Uses == "" && s.Run == "":
				add(true, "step %d (%s) sets neither uses nor run", i+1, s.Label())
			}
		}
		if j.Strategy != nil && len(j.Expand()) == 0 {
			add(true, "matrix expands to no combinations")
		}
	}
	return out
}
