package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// pythonPackageNameRegex matches valid Python package names (PEP 508).
var pythonPackageNameRegex = regexp.MustCompile(`^([A-Za-z0-9]|[A-Za-z0-9][A-Za-z0-9._-]*[A-Za-z0-9])$`)

// ValidatePythonPackageName validates a Python package name per PEP 508.
// Extras and dependency-group names follow the same rule.
func ValidatePythonPackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidRequirement, "package name cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidRequirement, "package name too long (max 256 characters)")
	}
	if !pythonPackageNameRegex.MatchString(name) {
		return New(ErrCodeInvalidRequirement, "invalid Python package name: %q", name)
	}
	return nil
}

// ValidateGroupName validates a dependency-group or extra name.
func ValidateGroupName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidManifest, "group name cannot be empty")
	}
	if !pythonPackageNameRegex.MatchString(name) {
		return New(ErrCodeInvalidManifest, "invalid group name: %q", name)
	}
	return nil
}

// ValidatePath validates a file path relative to the project root.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}
