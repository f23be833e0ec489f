package registrations

import "testing"

func TestFormatRegistrationNo(t *testing.T) {
	tests := []struct {
		seq  int64
		want string
	}{
		{1, "MCVU-00000001"},
		{1234, "MCVU-00001234"},
		{99999999, "MCVU-99999999"},
		{100000000, "MCVU-100000000"},
	}
	for _, tt := range tests {
		if got := FormatRegistrationNo(tt.seq); got != tt.want {
			t.Errorf("FormatRegistrationNo(%d) = %q, want %q", tt.seq, got, tt.want)
		}
	}
}

func TestNormalizeRegistrationNo(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"canonical form", "MCVU-00001234", "MCVU-00001234", true},
		{"lowercase", "mcvu-00001234", "MCVU-00001234", true},
		{"surrounding whitespace", "  MCVU-00001234 ", "MCVU-00001234", true},
		{"bare digits", "00001234", "MCVU-00001234", true},
		{"short digits left-padded", "1234", "MCVU-00001234", true},
		{"digits with separators", "mcvu 12-34", "MCVU-00001234", true},
		{"no digits", "MCVU-", "", false},
		{"empty", "", "", false},
		{"nine digits round-trip", "MCVU-100000000", "MCVU-100000000", true},
		{"nine bare digits", "100000000", "MCVU-100000000", true},
		{"more digits than the sequence emits", "1234567890123456789", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeRegistrationNo(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("NormalizeRegistrationNo(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}
