package qrcodes

import (
	"strings"
	"testing"
)

func TestNewCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		code, err := NewCode()
		if err != nil {
			t.Fatalf("NewCode() error = %v", err)
		}
		if len(code) != CodeLength {
			t.Fatalf("len(%q) = %d, want %d", code, len(code), CodeLength)
		}
		for _, ch := range code {
			if !strings.ContainsRune(codeAlphabet, ch) {
				t.Fatalf("code %q contains %q outside alphabet", code, ch)
			}
		}
		if seen[code] {
			t.Fatalf("duplicate code %q within 500 draws", code)
		}
		seen[code] = true
	}
}
