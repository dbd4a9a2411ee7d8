package render

import (
	"strings"
	"testing"

	"github.com/matzehuels/groupsync/pkg/dag"
)

func sampleGraph() *dag.DAG {
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: "group:test", Label: "test", Kind: dag.NodeKindGroup})
	_ = g.AddNode(dag.Node{ID: "extra:git", Label: "git", Kind: dag.NodeKindExtra})
	_ = g.AddNode(dag.Node{ID: "pkg:pytest", Label: "pytest", Kind: dag.NodeKindPackage,
		Meta: dag.Metadata{"range": ">=8.3, <8.4"}})
	_ = g.AddEdge(dag.Edge{From: "group:test", To: "pkg:pytest", Meta: dag.Metadata{"label": ">=8.3, <8.4"}})
	g.AssignLayers()
	return g
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sampleGraph(), Options{})

	for _, want := range []string{
		"digraph G",
		`"group:test" [label="test", shape=box, style="rounded,filled"`,
		`"extra:git" [label="git", shape=box, style="rounded,filled,dashed"`,
		`"pkg:pytest" [label="pytest", shape=ellipse`,
		`"group:test" -> "pkg:pytest" [label=">=8.3, <8.4"];`,
		`{ rank=same; "group:test"; "extra:git"; }`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q in:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "range:") {
		t.Error("non-detailed output should not include metadata")
	}
}

func TestToDOT_Detailed(t *testing.T) {
	dot := ToDOT(sampleGraph(), Options{Detailed: true, Highlight: map[string]bool{"group:test": true}})
	if !strings.Contains(dot, `pytest\nrange: >=8.3, <8.4`) {
		t.Errorf("detailed label missing metadata:\n%s", dot)
	}
	if !strings.Contains(dot, "color=red") {
		t.Error("highlighted node not marked")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	if !strings.Contains(got, `viewBox="0 0 100.00 50.00" width="100" height="50"`) {
		t.Errorf("normalizeViewBox() = %s", got)
	}

	plain := []byte(`<svg><g/></svg>`)
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("svg without viewBox should be unchanged")
	}
}
