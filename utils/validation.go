// utils/validation.go
package utils

import (
	"regexp"
	"strings"
)

var digitsOnly = regexp.MustCompile(`\D`)

// ValidatePhone checks if a phone number is in a valid international format
func ValidatePhone(phone string) bool {
	// Clean the phone number
	cleaned := strings.ReplaceAll(phone, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	cleaned = strings.ReplaceAll(cleaned, "(", "")
	cleaned = strings.ReplaceAll(cleaned, ")", "")

	// Regular expression for international phone numbers
	// Allows + prefix followed by 7-15 digits
	regex := `^\+?[1-9]\d{1,14}$`
	match, _ := regexp.MatchString(regex, cleaned)
	return match
}

// NormalizePhone converts a raw phone string to E.164 form for outbound SMS.
// Rules: a 10-digit number is assumed US/Canada and gets a +1 prefix, an
// 11-digit number starting with 1 gets a + prefix, a number already starting
// with + passes through unchanged, and anything else gets + plus its digits.
func NormalizePhone(phone string) string {
	digits := digitsOnly.ReplaceAllString(phone, "")

	if len(digits) == 10 {
		return "+1" + digits
	}
	if len(digits) == 11 && strings.HasPrefix(digits, "1") {
		return "+" + digits
	}
	if strings.HasPrefix(strings.TrimSpace(phone), "+") {
		return phone
	}
	return "+" + digits
}
