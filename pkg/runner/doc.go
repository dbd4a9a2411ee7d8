// Package runner drives the sequential sync-and-test operation.
//
// # Overview
//
// For each group name, in order, the runner invokes the external sync
// command against the group's lockfile and then the external test command
// scoped to the group's test path. The first non-zero exit aborts the whole
// run; the failing tool's exit code is carried out unchanged in an
// [errors.CommandError]. There are no retries, no parallelism and no
// rollback.
//
// Compile mode runs the lock-compile command once per group with the same
// abort semantics.
//
// # Templates
//
// Commands are configured as shell-like template strings, split into
// arguments once and expanded per group. The placeholders are:
//
//	{group}     the group name
//	{selector}  --group={group} for a dependency group, else --extra={group}
//	{module}    the group name with "-" replaced by "_"
//	{lockfile}  the group's lockfile path
//	{testpath}  the group's test path
//	{manifest}  the manifest path
//	{always}    one argument per always-on group, e.g. --only-group=core
//
// {always} must stand alone as an argument; every other placeholder may be
// embedded (--extra={group}).
//
// # Resume markers
//
// With Resume set, a group whose marker file exists under the marker
// directory is skipped, and the marker is written after the group passes.
// Deleting the marker directory restarts from the beginning.
package runner
