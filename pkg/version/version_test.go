package version

import (
	"slices"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.2.3", "1.2.3"},
		{"v1.2", "1.2"},
		{"1.0a1", "1.0a1"},
		{"1.0-alpha.1", "1.0a1"},
		{"1.0.beta2", "1.0b2"},
		{"1.0c3", "1.0rc3"},
		{"1.0rc", "1.0rc0"},
		{"1.0.post2", "1.0.post2"},
		{"1.0-1", "1.0.post1"},
		{"1.0.rev3", "1.0.post3"},
		{"1.0.dev4", "1.0.dev4"},
		{"1.0a1.post2.dev3", "1.0a1.post2.dev3"},
		{"2!1.0", "2!1.0"},
		{"1.0+ubuntu-1", "1.0+ubuntu.1"},
		{" 0.25.7 ", "0.25.7"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.in, err)
			}
			if got := v.String(); got != tt.want {
				t.Errorf("Parse(%q).String() = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	for _, in := range []string{"", "abc", "1..2", "1.0-", "==1.0", "1.0 2"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) expected error", in)
		}
	}
}

func TestCompareOrdering(t *testing.T) {
	// Ascending PEP 440 order.
	ordered := []string{
		"1.0.dev0",
		"1.0a1.dev1",
		"1.0a1",
		"1.0a2",
		"1.0b1",
		"1.0rc1",
		"1.0",
		"1.0.post1.dev0",
		"1.0.post1",
		"1.0.1",
		"1.1",
		"2.0",
		"1!0.1",
	}

	for i := 0; i < len(ordered)-1; i++ {
		a, b := MustParse(ordered[i]), MustParse(ordered[i+1])
		if !a.Less(b) {
			t.Errorf("expected %s < %s", a, b)
		}
		if b.Less(a) {
			t.Errorf("expected !(%s < %s)", b, a)
		}
	}
}

func TestEqualIgnoresTrailingZerosAndLocal(t *testing.T) {
	tests := []struct{ a, b string }{
		{"1.0", "1.0.0"},
		{"1", "1.0.0.0"},
		{"1.2+local", "1.2"},
	}
	for _, tt := range tests {
		if !MustParse(tt.a).Equal(MustParse(tt.b)) {
			t.Errorf("expected %s == %s", tt.a, tt.b)
		}
	}
}

func TestSortStable(t *testing.T) {
	vs := []Version{MustParse("0.10"), MustParse("0.9"), MustParse("0.9.1"), MustParse("0.10rc1")}
	slices.SortFunc(vs, Version.Compare)

	var got []string
	for _, v := range vs {
		got = append(got, v.String())
	}
	want := []string{"0.9", "0.9.1", "0.10rc1", "0.10"}
	if !slices.Equal(got, want) {
		t.Errorf("sorted = %v, want %v", got, want)
	}
}

func TestBump(t *testing.T) {
	tests := []struct {
		in   string
		part Part
		want string
	}{
		{"0.25.7", Patch, "0.25.8"},
		{"0.25.7", Minor, "0.26.0"},
		{"0.25.7", Major, "1.0.0"},
		{"1.2", Patch, "1.2.1"},
		{"1.2.3rc1", Patch, "1.2.4"},
		{"1.2.3.post4", Minor, "1.3.0"},
	}

	for _, tt := range tests {
		t.Run(tt.in+"/"+string(tt.part), func(t *testing.T) {
			got, err := MustParse(tt.in).Bump(tt.part)
			if err != nil {
				t.Fatalf("Bump error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("Bump(%s) = %s, want %s", tt.part, got, tt.want)
			}
		})
	}

	if _, err := MustParse("1.0").Bump("huge"); err == nil {
		t.Error("Bump with unknown part should fail")
	}
}

func TestParsePart(t *testing.T) {
	for _, s := range []string{"major", "Minor", " patch "} {
		if _, err := ParsePart(s); err != nil {
			t.Errorf("ParsePart(%q) error: %v", s, err)
		}
	}
	if _, err := ParsePart("build"); err == nil {
		t.Error("ParsePart(build) expected error")
	}
}

func TestMinorWindow(t *testing.T) {
	lo, hi := MinorWindow(MustParse("2.31.4"))
	if lo.String() != "2.31" || hi.String() != "2.32" {
		t.Errorf("MinorWindow = %s, %s; want 2.31, 2.32", lo, hi)
	}
	lo, hi = MinorWindow(MustParse("7"))
	if lo.String() != "7.0" || hi.String() != "7.1" {
		t.Errorf("MinorWindow = %s, %s; want 7.0, 7.1", lo, hi)
	}
}

func TestSpecifiersCheck(t *testing.T) {
	tests := []struct {
		specs string
		in    []string
		out   []string
	}{
		{">=1.0, <2.0, !=1.2.*", []string{"1.0", "1.3.1"}, []string{"0.9", "1.2.4", "2.0"}},
		{"~=2.31", []string{"2.31", "2.99"}, []string{"3.0", "2.30"}},
		{"==1.4.*", []string{"1.4", "1.4.7"}, []string{"1.5"}},
		{"", []string{"0.1", "9!9"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.specs, func(t *testing.T) {
			s, err := ParseSpecifiers(tt.specs)
			if err != nil {
				t.Fatalf("ParseSpecifiers(%q) error: %v", tt.specs, err)
			}
			for _, v := range tt.in {
				if !s.Check(MustParse(v)) {
					t.Errorf("%q should admit %s", tt.specs, v)
				}
			}
			for _, v := range tt.out {
				if s.Check(MustParse(v)) {
					t.Errorf("%q should reject %s", tt.specs, v)
				}
			}
		})
	}

	if _, err := ParseSpecifiers(">>1.0"); err == nil {
		t.Error("ParseSpecifiers(>>1.0) expected error")
	}
	if (Specifiers{}).Check(Version{}) != true {
		t.Error("zero Specifiers should admit everything")
	}
}

func TestBase(t *testing.T) {
	if got := MustParse("1!2.3rc1.post2.dev3+local").Base().String(); got != "1!2.3" {
		t.Errorf("Base() = %s, want 1!2.3", got)
	}
	if !MustParse("1.3").Equal(Release(0, 1, 3, 0)) {
		t.Error("Release(0, 1, 3, 0) != 1.3")
	}
}
