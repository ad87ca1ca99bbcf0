package utils

import "strings"

// NewNullString is a helper for string pointers, returning nil if string is empty.
// Useful for fields that are optional and should be NULL in DB if not provided.
func NewNullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ExtractBearerToken accepts "Bearer <token>" (scheme case-insensitive) or a bare "<token>".
// It returns "" when the header carries nothing usable.
func ExtractBearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	switch len(parts) {
	case 1:
		if strings.EqualFold(parts[0], "bearer") {
			return ""
		}
		return parts[0]
	case 2:
		if strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	return ""
}

// StripSeparators removes spaces and dashes, used to normalise phone and IC numbers.
func StripSeparators(s string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(s)
}
