package manifest

import (
	"slices"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"Requests":          "requests",
		"typing_extensions": "typing-extensions",
		"zope.interface":    "zope-interface",
		"A__B-.c":           "a-b-c",
		"  spaced ":         "spaced",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseRequirement(t *testing.T) {
	tests := []struct {
		in     string
		name   string
		extras []string
		specs  []Specifier
		marker string
		url    string
		canon  string
	}{
		{
			in:    "requests",
			name:  "requests",
			canon: "requests",
		},
		{
			in:    "SQLAlchemy <2.1, >=2.0",
			name:  "sqlalchemy",
			specs: []Specifier{{"<", "2.1"}, {">=", "2.0"}},
			canon: "sqlalchemy>=2.0, <2.1",
		},
		{
			in:     "uvicorn[standard, http2]>=0.30,<0.31",
			name:   "uvicorn",
			extras: []string{"standard", "http2"},
			specs:  []Specifier{{">=", "0.30"}, {"<", "0.31"}},
			canon:  "uvicorn[standard,http2]>=0.30, <0.31",
		},
		{
			in:     `tzdata (>=2024.1, <2024.2) ; sys_platform == "win32"`,
			name:   "tzdata",
			specs:  []Specifier{{">=", "2024.1"}, {"<", "2024.2"}},
			marker: `sys_platform == "win32"`,
			canon:  `tzdata>=2024.1, <2024.2; sys_platform == "win32"`,
		},
		{
			in:    "pkg @ https://example.com/pkg-1.0.whl",
			name:  "pkg",
			url:   "https://example.com/pkg-1.0.whl",
			canon: "pkg @ https://example.com/pkg-1.0.whl",
		},
		{
			in:    "numpy==1.*, !=1.3",
			name:  "numpy",
			specs: []Specifier{{"==", "1.*"}, {"!=", "1.3"}},
			canon: "numpy==1.*, !=1.3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseRequirement(tt.in)
			if err != nil {
				t.Fatalf("ParseRequirement(%q): %v", tt.in, err)
			}
			if c.Name != tt.name {
				t.Errorf("Name = %q, want %q", c.Name, tt.name)
			}
			if !slices.Equal(c.Extras, tt.extras) {
				t.Errorf("Extras = %v, want %v", c.Extras, tt.extras)
			}
			if !slices.Equal(c.Specifiers, tt.specs) {
				t.Errorf("Specifiers = %v, want %v", c.Specifiers, tt.specs)
			}
			if c.Marker != tt.marker {
				t.Errorf("Marker = %q, want %q", c.Marker, tt.marker)
			}
			if c.URL != tt.url {
				t.Errorf("URL = %q, want %q", c.URL, tt.url)
			}
			if got := c.String(); got != tt.canon {
				t.Errorf("String() = %q, want %q", got, tt.canon)
			}
		})
	}
}

func TestParseRequirementErrors(t *testing.T) {
	for _, in := range []string{
		"",
		">=1.0",
		"pkg[extra",
		"pkg >>1.0",
		"pkg ; ",
		"pkg (>=1.0",
		"pkg @ ",
		"pkg[bad extra]",
	} {
		if _, err := ParseRequirement(in); err == nil {
			t.Errorf("ParseRequirement(%q) expected error", in)
		}
	}
}

func TestConstraintSpecifier(t *testing.T) {
	c, err := ParseRequirement("click>=8.1, <8.2")
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := c.Specifier(">="); !ok || v != "8.1" {
		t.Errorf(`Specifier(">=") = %q, %v`, v, ok)
	}
	if _, ok := c.Specifier("~="); ok {
		t.Error(`Specifier("~=") should be absent`)
	}
}
