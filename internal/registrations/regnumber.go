package registrations

import (
	"fmt"
	"regexp"
	"strings"
)

// RegistrationNoPrefix prefixes every registration number.
const RegistrationNoPrefix = "MCVU-"

// maxRegistrationNoDigits bounds the numeric part to what the int64
// sequence can actually emit.
const maxRegistrationNoDigits = 18

var (
	registrationNoPattern = regexp.MustCompile(`^MCVU-\d{8,18}$`)
	nonDigits             = regexp.MustCompile(`\D`)
)

// FormatRegistrationNo renders a sequence value as MCVU-########. Sequence
// values past 99999999 grow the numeric part instead of wrapping, and
// NormalizeRegistrationNo accepts the wider form.
func FormatRegistrationNo(seq int64) string {
	return fmt.Sprintf("%s%08d", RegistrationNoPrefix, seq)
}

// NormalizeRegistrationNo canonicalizes user input into MCVU-######## form.
// Accepts the full number in any case, the bare digits, or digits with
// stray separators ("mcvu 1234"); returns false when no digits survive or
// there are more of them than the sequence can produce.
func NormalizeRegistrationNo(input string) (string, bool) {
	s := strings.ToUpper(strings.TrimSpace(input))
	if registrationNoPattern.MatchString(s) {
		return s, true
	}
	digits := nonDigits.ReplaceAllString(s, "")
	if digits == "" || len(digits) > maxRegistrationNoDigits {
		return "", false
	}
	if len(digits) < 8 {
		digits = strings.Repeat("0", 8-len(digits)) + digits
	}
	return RegistrationNoPrefix + digits, true
}
