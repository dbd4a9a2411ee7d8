// Package pkg provides the libraries behind groupsync, a tool that keeps the
// optional dependency groups of a Python project consistent and tests each
// group in isolation.
//
// # Overview
//
// A project declares extras ([project.optional-dependencies]) and PEP 735
// dependency groups in pyproject.toml. Each group has a lockfile generated
// by uv pip compile and a test module. groupsync checks that manifest,
// lockfiles, helper scripts, pre-commit hooks and CI workflows agree, and
// runs "sync the group's lockfile, then run the group's tests" for one
// group after another.
//
// The typical data flow:
//
//	pyproject.toml ──► [manifest] ──► [graph] ──► [render] (DOT/SVG/PNG/PDF)
//	                       │
//	requirements/*.txt ─► [lockfile] ─┐
//	run_tests.sh ──────► [script] ────┼──► [lint] ──► diagnostics
//	.pre-commit-config ─► [precommit] │
//	.github/workflows ──► [workflow] ─┘
//
//	group names ──► [runner] ──► uv pip sync / pytest, first failure wins
//
// # Main Packages
//
// ## Project Files
//
// [manifest] parses pyproject.toml into groups of PEP 508 constraints and
// resolves include-group chains. Constraints convert to version ranges over
// [version], a PEP 440 subset.
//
// [lockfile] parses pinned requirement files and verifies pins against
// declared ranges. [script], [precommit] and [workflow] read the shell
// scripts, hook manifest and CI workflows that name groups.
//
// ## Checks and Reports
//
// [lint] runs every consistency check and returns a report of diagnostics.
// [outdated] compares ranges with the latest releases on PyPI, fetched by
// [integrations/pypi] through the response [cache] with [httputil] retries.
// [bump] rewrites the project version across configured files.
//
// ## Graphs
//
// [dag] is the directed graph with cycle detection, layering and transitive
// reduction. [graph] builds the group graph from a manifest and serialises
// it as JSON; [render] exports it as DOT and renders SVG with Graphviz.
//
// ## Execution
//
// [runner] executes the sequential sync-and-test loop and the compile loop
// from command templates, propagating the failing command's exit code.
//
// ## Support
//
// [errors] defines coded errors and the process exit code mapping.
// [buildinfo] carries version information set at link time.
package pkg
