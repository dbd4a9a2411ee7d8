package outdated

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/groupsync/pkg/errors"
	"github.com/matzehuels/groupsync/pkg/manifest"
	"github.com/matzehuels/groupsync/pkg/version"
)

type fakeLookup struct {
	latest   map[string]string
	mu       sync.Mutex
	calls    map[string]int
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeLookup) LatestVersion(ctx context.Context, name string, refresh bool) (version.Version, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
	f.mu.Unlock()

	raw, ok := f.latest[name]
	if !ok {
		return version.Version{}, fmt.Errorf("not found: %s", name)
	}
	return version.MustParse(raw), nil
}

const pyproject = `[project]
name = "demo"
dependencies = ["click>=8.1, <8.2"]

[project.optional-dependencies]
git = ["gitpython>=3.1, <3.2", "click>=8.0, <8.1"]
pins = ["requests==2.31.0", "local @ file:///tmp/local", "anything"]

[dependency-groups]
future = ["hypothesis>=7.0, <7.1"]
`

func mustManifest(t *testing.T) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse([]byte(pyproject))
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func summary(fs []Finding) []string {
	var out []string
	for _, f := range fs {
		out = append(out, fmt.Sprintf("%s/%s:%s:%s", f.Group, f.Constraint.Name, f.Status, f.Suggested))
	}
	return out
}

func TestCheck(t *testing.T) {
	lookup := &fakeLookup{latest: map[string]string{
		"click":      "8.1.7",
		"gitpython":  "3.1.43",
		"requests":   "2.32.3",
		"hypothesis": "6.100.0",
	}}
	r, err := Check(context.Background(), mustManifest(t), lookup, Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"git/click:outdated:>=8.1, <8.2",
		"pins/requests:outdated:>=2.32, <2.33",
		"future/hypothesis:ahead:>=6.100, <6.101",
	}
	if got := summary(r.Findings); !slices.Equal(got, want) {
		t.Errorf("Findings =\n%v\nwant\n%v", got, want)
	}
	if lookup.calls["click"] != 1 {
		t.Errorf("click looked up %d times, want 1", lookup.calls["click"])
	}
	if _, ok := lookup.calls["local"]; ok {
		t.Error("URL requirement was looked up")
	}
	if _, ok := lookup.calls["anything"]; ok {
		t.Error("unconstrained requirement was looked up")
	}
}

func TestCheckGroupsAndAll(t *testing.T) {
	lookup := &fakeLookup{latest: map[string]string{"click": "8.1.7", "gitpython": "3.1.43"}}
	r, err := Check(context.Background(), mustManifest(t), lookup, Options{
		Groups: []string{"dependencies", "git"},
		All:    true,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"dependencies/click:current:>=8.1, <8.2",
		"git/gitpython:current:>=3.1, <3.2",
		"git/click:outdated:>=8.1, <8.2",
	}
	if got := summary(r.Findings); !slices.Equal(got, want) {
		t.Errorf("Findings = %v, want %v", got, want)
	}
	if got := summary(r.Outdated()); !slices.Equal(got, want[2:]) {
		t.Errorf("Outdated() = %v", got)
	}
}

func TestCheckExcludedLatest(t *testing.T) {
	m, err := manifest.Parse([]byte(`[project.optional-dependencies]
http = ["requests>=2.30, <2.33, !=2.32.3", "idna>=3.0, <4.0, !=3.*"]
`))
	if err != nil {
		t.Fatal(err)
	}
	lookup := &fakeLookup{latest: map[string]string{"requests": "2.32.3", "idna": "3.7"}}
	r, err := Check(context.Background(), m, lookup, Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"http/requests:excluded:", "http/idna:excluded:"}
	if got := summary(r.Findings); !slices.Equal(got, want) {
		t.Errorf("Findings = %v, want %v", got, want)
	}
	if got := r.Outdated(); len(got) != 0 {
		t.Errorf("Outdated() = %v, want none", summary(got))
	}
}

func TestCheckLookupErrors(t *testing.T) {
	lookup := &fakeLookup{latest: map[string]string{"click": "8.1.7"}}
	r, err := Check(context.Background(), mustManifest(t), lookup, Options{Groups: []string{"git"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Errors) != 1 || r.Errors[0].Name != "gitpython" {
		t.Errorf("Errors = %v", r.Errors)
	}
}

func TestCheckUnknownGroup(t *testing.T) {
	_, err := Check(context.Background(), mustManifest(t), &fakeLookup{}, Options{Groups: []string{"nope"}})
	if !errors.Is(err, errors.ErrCodeGroupNotFound) {
		t.Errorf("code = %v, want GROUP_NOT_FOUND", errors.GetCode(err))
	}
}

func TestCheckConcurrencyLimit(t *testing.T) {
	var deps []string
	latest := make(map[string]string)
	for i := range 20 {
		name := fmt.Sprintf("pkg%d", i)
		deps = append(deps, fmt.Sprintf("%q", name+">=1.0, <1.1"))
		latest[name] = "1.0.5"
	}
	src := fmt.Sprintf("[project]\nname = \"x\"\ndependencies = [%s]\n", strings.Join(deps, ", "))
	m, err := manifest.Parse([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	lookup := &fakeLookup{latest: latest}
	if _, err := Check(context.Background(), m, lookup, Options{Concurrency: 3}); err != nil {
		t.Fatal(err)
	}
	if p := lookup.peak.Load(); p > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", p)
	}
	if len(lookup.calls) != 20 {
		t.Errorf("lookups = %d, want 20", len(lookup.calls))
	}
}

func TestCheckCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Check(ctx, mustManifest(t), &fakeLookup{}, Options{})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
