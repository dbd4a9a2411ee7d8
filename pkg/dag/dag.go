package dag

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a node with the
	// same ID already exists in the graph.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrGraphHasCycle is returned by [DAG.Validate] when a cycle is detected.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Metadata stores arbitrary key-value pairs attached to nodes or edges.
// Metadata maps are never nil after insertion.
type Metadata map[string]any

// NodeKind distinguishes the things a group graph connects.
type NodeKind int

const (
	// NodeKindGroup is a PEP 735 dependency group.
	NodeKindGroup NodeKind = iota
	// NodeKindExtra is a pyproject optional-dependencies extra.
	NodeKindExtra
	// NodeKindPackage is a required distribution.
	NodeKindPackage
)

func (k NodeKind) String() string {
	switch k {
	case NodeKindGroup:
		return "group"
	case NodeKindExtra:
		return "extra"
	case NodeKindPackage:
		return "package"
	}
	return "unknown"
}

// Node is a vertex in the graph. Row is the node's layer, filled in by
// [DAG.AssignLayers].
type Node struct {
	ID    string
	Label string // display label; ID when empty
	Kind  NodeKind
	Row   int
	Meta  Metadata
}

// DisplayLabel returns Label, falling back to ID.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Edge is a directed connection between two nodes.
type Edge struct {
	From string
	To   string
	Meta Metadata
}

// DAG is a directed graph that is expected to be acyclic. Cycles can be
// inserted (include-group declarations are user input) and are reported
// by [DAG.Validate] and [DAG.Cycles].
//
// The zero value is not usable; use New. DAG is not safe for concurrent use.
type DAG struct {
	nodes    map[string]*Node
	order    []string
	edges    []Edge
	outgoing map[string][]string
	incoming map[string][]string
}

// New creates an empty graph.
func New() *DAG {
	return &DAG{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
}

// AddNode adds a node. Returns ErrInvalidNodeID for an empty ID and
// ErrDuplicateNodeID if the ID is taken.
func (d *DAG) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := d.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	d.nodes[n.ID] = &n
	d.order = append(d.order, n.ID)
	return nil
}

// AddEdge adds a directed edge between two existing nodes. Duplicate
// edges are ignored.
func (d *DAG) AddEdge(e Edge) error {
	if _, ok := d.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := d.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if slices.Contains(d.outgoing[e.From], e.To) {
		return nil
	}
	if e.Meta == nil {
		e.Meta = Metadata{}
	}
	d.edges = append(d.edges, e)
	d.outgoing[e.From] = append(d.outgoing[e.From], e.To)
	d.incoming[e.To] = append(d.incoming[e.To], e.From)
	return nil
}

// RemoveEdge removes the edge from→to if it exists.
func (d *DAG) RemoveEdge(from, to string) {
	d.edges = slices.DeleteFunc(d.edges, func(e Edge) bool { return e.From == from && e.To == to })
	d.outgoing[from] = slices.DeleteFunc(d.outgoing[from], func(s string) bool { return s == to })
	d.incoming[to] = slices.DeleteFunc(d.incoming[to], func(s string) bool { return s == from })
}

// Nodes returns all nodes in insertion order. The pointers refer to the
// graph's own nodes.
func (d *DAG) Nodes() []*Node {
	nodes := make([]*Node, len(d.order))
	for i, id := range d.order {
		nodes[i] = d.nodes[id]
	}
	return nodes
}

// Node returns the node with the given ID.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Edges returns a copy of all edges in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes in the graph.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// Children returns the IDs this node has edges to. Read-only view.
func (d *DAG) Children(id string) []string { return d.outgoing[id] }

// Parents returns the IDs that have edges to this node. Read-only view.
func (d *DAG) Parents(id string) []string { return d.incoming[id] }

// InDegree returns the number of incoming edges to the node.
func (d *DAG) InDegree(id string) int { return len(d.incoming[id]) }

// Sources returns nodes with no incoming edges, in insertion order.
func (d *DAG) Sources() []*Node {
	var out []*Node
	for _, id := range d.order {
		if len(d.incoming[id]) == 0 {
			out = append(out, d.nodes[id])
		}
	}
	return out
}

// Sinks returns nodes with no outgoing edges, in insertion order.
func (d *DAG) Sinks() []*Node {
	var out []*Node
	for _, id := range d.order {
		if len(d.outgoing[id]) == 0 {
			out = append(out, d.nodes[id])
		}
	}
	return out
}

// Reachable returns every node reachable from id, excluding id itself
// unless it lies on a cycle, in depth-first discovery order.
func (d *DAG) Reachable(id string) []string {
	seen := make(map[string]bool)
	var out []string
	var visit func(string)
	visit = func(n string) {
		for _, c := range d.outgoing[n] {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
			visit(c)
		}
	}
	visit(id)
	return out
}

// Validate returns ErrGraphHasCycle if the graph has a directed cycle.
func (d *DAG) Validate() error {
	if len(d.Cycles()) > 0 {
		return ErrGraphHasCycle
	}
	return nil
}

// Cycles returns one path per back edge found by a white/gray/black
// depth-first search, each starting and ending at the same node
// (for example [a b a]). Traversal starts from sources, then from any node
// still unvisited, in insertion order, so the result is deterministic.
func (d *DAG) Cycles() [][]string {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(d.nodes))
	var stack []string
	var cycles [][]string

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		stack = append(stack, id)
		for _, child := range d.outgoing[id] {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				start := slices.Index(stack, child)
				cycle := slices.Clone(stack[start:])
				cycles = append(cycles, append(cycle, child))
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
	}

	for _, n := range d.Sources() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}
	for _, id := range d.order {
		if color[id] == white {
			dfs(id)
		}
	}
	return cycles
}

// AssignLayers sets each node's Row to the length of the longest path
// reaching it from a source (Kahn's algorithm). Nodes on a cycle never
// reach zero in-degree and stay at row 0.
func (d *DAG) AssignLayers() {
	inDegree := make(map[string]int, len(d.nodes))
	rows := make(map[string]int, len(d.nodes))
	queue := make([]string, 0, len(d.nodes))

	for _, id := range d.order {
		inDegree[id] = len(d.incoming[id])
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, child := range d.outgoing[curr] {
			if row := rows[curr] + 1; row > rows[child] {
				rows[child] = row
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	for id, n := range d.nodes {
		n.Row = rows[id]
	}
}

// Rows groups node IDs by row, returning the rows in ascending order.
func (d *DAG) Rows() [][]string {
	byRow := make(map[int][]string)
	for _, id := range d.order {
		r := d.nodes[id].Row
		byRow[r] = append(byRow[r], id)
	}
	out := make([][]string, 0, len(byRow))
	for _, r := range slices.Sorted(maps.Keys(byRow)) {
		out = append(out, byRow[r])
	}
	return out
}
