// Package graph builds the group structure graph of a manifest and
// serialises it.
//
// [Build] turns a [manifest.Manifest] into a [dag.DAG]: one node per extra
// and dependency group, edges for include declarations, and optionally one
// node per required package with the declared range (and, when lockfiles
// are supplied, the pinned version) on the edge. Include targets that do
// not exist are returned separately as [Dangling] so that lint can report
// them; include cycles are found with [dag.DAG.Cycles].
//
// The JSON form ([MarshalGraph], [WriteGraph]) sorts nodes by ID so output
// is stable across runs.
package graph
