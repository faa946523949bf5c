package service

import "strings"

// SanitizeFileName maps every character outside [A-Za-z0-9.] to an
// underscore so the result is a safe object-storage key segment.
func SanitizeFileName(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}
