package dag

// RedundantEdges returns the edges (u, v) for which u also reaches v
// through another child, in insertion order. For A→B, B→C and A→C the
// edge A→C is redundant. A graph with a cycle has no well-defined
// reduction and yields nil.
func (d *DAG) RedundantEdges() []Edge {
	if len(d.nodes) == 0 || len(d.Cycles()) > 0 {
		return nil
	}

	index := make(map[string]int, len(d.order))
	for i, id := range d.order {
		index[id] = i
	}
	adjacency := make([][]int, len(d.order))
	for _, e := range d.edges {
		adjacency[index[e.From]] = append(adjacency[index[e.From]], index[e.To])
	}
	reach := reachability(adjacency)

	var out []Edge
	for _, e := range d.edges {
		src, dst := index[e.From], index[e.To]
		for _, mid := range adjacency[src] {
			if mid != dst && reach[mid][dst] {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// TransitiveReduction removes every edge reported by [DAG.RedundantEdges]
// and returns how many were removed. Metadata of kept edges is preserved.
func (d *DAG) TransitiveReduction() int {
	redundant := d.RedundantEdges()
	for _, e := range redundant {
		d.RemoveEdge(e.From, e.To)
	}
	return len(redundant)
}

// reachability returns reach[i][j], true when j is reachable from i
// (every node reaches itself).
func reachability(adjacency [][]int) [][]bool {
	reach := make([][]bool, len(adjacency))
	for i := range reach {
		reach[i] = make([]bool, len(adjacency))
	}
	var dfs func(source, current int)
	dfs = func(source, current int) {
		if reach[source][current] {
			return
		}
		reach[source][current] = true
		for _, next := range adjacency[current] {
			dfs(source, next)
		}
	}
	for i := range reach {
		dfs(i, i)
	}
	return reach
}
