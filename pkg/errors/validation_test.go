package errors

import (
	"testing"
)

func TestValidatePythonPackageName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "requests", false},
		{"valid with dash", "my-package", false},
		{"valid with underscore", "my_package", false},
		{"valid with dot", "zope.interface", false},
		{"single char", "x", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"leading dash", "-pkg", true},
		{"trailing dot", "pkg.", true},
		{"space", "my pkg", true},
		{"bracket", "pkg[extra]", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePythonPackageName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePythonPackageName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateGroupName(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"core", false},
		{"test-sqlalchemy-polars", false},
		{"", true},
		{"bad name", true},
		{"-x", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateGroupName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGroupName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidManifest) {
				t.Errorf("ValidateGroupName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidManifest)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "requirements/core.txt", false},
		{"dotted name", "requirements/core..txt", false},
		{"nested", "src/tests/test_git.py", false},

		{"empty", "", true},
		{"absolute", "/etc/passwd", true},
		{"traversal", "../secret", true},
		{"inner traversal", "a/../../b", true},
		{"null byte", "a\x00b", true},
		{"too long", string(make([]byte, 600)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
