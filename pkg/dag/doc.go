// Package dag provides the directed graph behind the group structure view.
//
// # Overview
//
// A project's optional dependencies form a small graph: extras and
// dependency groups include other groups (PEP 735 include-group, or a
// self-referencing extra such as "pkg[test]"), and every group requires
// packages. This package stores that graph and answers the structural
// questions lint and the graph command ask of it: what does a group
// reach, is there an include cycle, and which layer does each node sit in.
//
// # Basic Usage
//
//	g := dag.New()
//	_ = g.AddNode(dag.Node{ID: "group:test", Kind: dag.NodeKindGroup})
//	_ = g.AddNode(dag.Node{ID: "pkg:pytest", Kind: dag.NodeKindPackage})
//	_ = g.AddEdge(dag.Edge{From: "group:test", To: "pkg:pytest"})
//
// # Cycles
//
// Include declarations are user input, so the graph may contain cycles.
// [DAG.Cycles] runs a white/gray/black depth-first search and returns the
// path of every back edge it finds; [DAG.Validate] reduces that to
// [ErrGraphHasCycle].
//
// # Layers
//
// [DAG.AssignLayers] places every node on the longest path from a source,
// which is what the DOT export uses to rank groups above the packages they
// pull in.
package dag
