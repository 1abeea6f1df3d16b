package domain

import "strings"

// NormalizeEmail canonicalizes an address before it is used as a lookup or
// storage key. Every entry point must pass emails through here so one typed
// address never maps to more than one user row.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ValidEmail reports whether a normalized address is acceptable as a user key.
func ValidEmail(email string) bool {
	return email != "" && strings.Contains(email, "@")
}
