package recipient

import "regexp"

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
)

// IsValidEmail reports whether s looks like local-part@domain with a dot in
// the domain and no whitespace.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// IsValidPhone reports whether s is 10 to 15 digits after an optional leading +.
func IsValidPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// IsDistinctRecipient compares exact strings. Case and formatting
// differences make recipients distinct.
func IsDistinctRecipient(a, b string) bool {
	return a != "" && b != "" && a != b
}
