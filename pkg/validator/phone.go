package validator

import (
	"regexp"
	"strings"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{9,15}$`)

// IsValidPhone reports whether the value looks like a usable contact
// number: optional leading +, 9 to 15 digits, spaces and dashes ignored.
func IsValidPhone(value string) bool {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(value))
	if cleaned == "" {
		return false
	}
	return phonePattern.MatchString(cleaned)
}

// NormalizePhone strips spaces and dashes from a contact number
func NormalizePhone(value string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(value))
}
