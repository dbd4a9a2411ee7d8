// Package version parses, orders and bumps Python package versions.
//
// Validation, ordering and specifier matching are delegated to
// github.com/aquasecurity/go-pep440-version. [Version] exposes the parsed
// segments (epoch, release, pre/post/dev, local label) that the bump and
// suggestion helpers need. Ordering follows PEP 440 (dev < pre < final <
// post), so that range checks in
// [github.com/matzehuels/groupsync/pkg/manifest] agree with the package
// manager that produced the lockfile. [Specifiers] wraps a full specifier
// set such as ">=1.0, <2.0, !=1.2.*".
//
// # Bumping
//
// [Version.Bump] implements the major/minor/patch increments used by the
// bump command; [MinorWindow] computes the conventional ">=X.Y, <X.(Y+1)"
// window used when suggesting replacement constraints.
package version
