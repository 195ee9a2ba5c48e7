// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

// IsDigits reports whether s is a non-empty run of ASCII digits.
//
// Example:
//
//	utils.IsDigits("500100") // true
//	utils.IsDigits("")       // false
//	utils.IsDigits("12a")    // false
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsCode reports whether s is a verification code of exactly n digits.
func IsCode(s string, n int) bool {
	return len(s) == n && IsDigits(s)
}
