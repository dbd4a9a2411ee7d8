// Package manifest models the dependency groups declared in pyproject.toml.
//
// A manifest holds two kinds of named groups: extras from
// [project.optional-dependencies] and PEP 735 groups from
// [dependency-groups]. Each group maps a name to an ordered list of
// [Constraint] values (PEP 508 requirements). Groups keep their declaration
// order, which is the order scripts and lockfile generation iterate in.
//
// # Ranges
//
// [Constraint.Range] reduces a constraint's specifiers to a [Range] with an
// inclusive lower bound and an exclusive upper bound in the common
// ">=X.Y, <X.(Y+1)" convention. Lint uses [Range.Valid] to reject empty
// windows, and the lockfile verifier uses [Range.Contains] to check pins.
//
// # Includes
//
// PEP 735 "{include-group = ...}" entries and self-referencing extras
// ("myproject[a,b]") become [Group.Includes]; [Manifest.Resolve] expands
// them and rejects cycles.
package manifest
