package region

import "testing"

func TestCodeMatchesAllAliases(t *testing.T) {
	cases := []struct {
		alias string
		code  int
	}{
		{"Europe", 0},
		{"EUR", 0},
		{"e", 0},
		{"usa", 1},
		{"U", 1},
		{"Japan", 7},
		{"jpn", 7},
		{"J", 7},
		{"DUTCH", 8},
		{"australia", 19},
		{"KOR", 22},
	}
	for _, tc := range cases {
		code, ok := Code(tc.alias)
		if !ok {
			t.Errorf("Code(%q) not found", tc.alias)
			continue
		}
		if code != tc.code {
			t.Errorf("Code(%q) = %d, want %d", tc.alias, code, tc.code)
		}
	}
}

func TestCodeUnknownAlias(t *testing.T) {
	if _, ok := Code("Atlantis"); ok {
		t.Error("expected no match for unknown alias")
	}
	if _, ok := Code(""); ok {
		t.Error("expected no match for empty alias")
	}
}

func TestNameUnknownCode(t *testing.T) {
	if got := Name(42); got != "Unknown: 42" {
		t.Errorf("Name(42) = %q", got)
	}
	if got := Name(1); got != "USA" {
		t.Errorf("Name(1) = %q", got)
	}
}
