package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/groupsync/pkg/dag"
)

// Graph is the JSON form of a group graph.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is a serialised graph node.
type Node struct {
	ID    string         `json:"id"`
	Label string         `json:"label,omitempty"`
	Kind  string         `json:"kind"`
	Row   int            `json:"row"`
	Meta  map[string]any `json:"meta,omitempty"`
}

// Edge is a serialised directed edge.
type Edge struct {
	From string         `json:"from"`
	To   string         `json:"to"`
	Meta map[string]any `json:"meta,omitempty"`
}

// FromDAG converts a DAG to its serialisation format. Nodes are sorted by
// ID; edges keep insertion order.
func FromDAG(g *dag.DAG) Graph {
	nodes := g.Nodes()
	slices.SortFunc(nodes, func(a, b *dag.Node) int { return strings.Compare(a.ID, b.ID) })

	edges := g.Edges()
	out := Graph{
		Nodes: make([]Node, len(nodes)),
		Edges: make([]Edge, len(edges)),
	}
	for i, n := range nodes {
		out.Nodes[i] = Node{ID: n.ID, Label: n.Label, Kind: n.Kind.String(), Row: n.Row, Meta: cleanMeta(n.Meta)}
	}
	for i, e := range edges {
		out.Edges[i] = Edge{From: e.From, To: e.To, Meta: cleanMeta(e.Meta)}
	}
	return out
}

func cleanMeta(m dag.Metadata) map[string]any {
	if len(m) == 0 {
		return nil
	}
	return maps.Clone(m)
}

// MarshalGraph converts a DAG to indented JSON.
func MarshalGraph(g *dag.DAG) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteGraph(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraph writes a DAG as indented JSON to w.
func WriteGraph(g *dag.DAG, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromDAG(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
