package util

import (
	"errors"
	"strings"
	"testing"
)

func TestHashKey(t *testing.T) {
	got := HashKey("co-42")
	if got != HashKey("co-42") {
		t.Fatalf("expected stable hash, got %s", got)
	}
	if got == HashKey("co-43") {
		t.Fatalf("expected distinct hashes")
	}
	if len(got) != 64 || strings.Trim(got, "0123456789abcdef") != "" {
		t.Fatalf("expected 64 lowercase hex characters, got %q", got)
	}
}

func TestSanitizeFileName(t *testing.T) {
	cases := []struct{ in, want string }{
		{" Jane Doe ", "Jane_Doe"},
		{"a/b\\c", "a_b_c"},
		{"offer-1.pdf", "offer-1.pdf"},
		{"José  Núñez (HR)", "José_Núñez_HR"},
		{"//lead", "lead"},
		{strings.Repeat("x", 80), strings.Repeat("x", 64)},
	}
	for _, tc := range cases {
		got, err := SanitizeFileName(tc.in)
		if err != nil {
			t.Fatalf("SanitizeFileName(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
	for _, bad := range []string{"", "   ", "../x", "%%%"} {
		if _, err := SanitizeFileName(bad); !errors.Is(err, ErrInvalidFileName) {
			t.Fatalf("expected ErrInvalidFileName for %q, got %v", bad, err)
		}
	}
}
