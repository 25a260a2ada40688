package services

import (
	"path"
	"strings"
)

// SanitizeFilename strips path components and unsafe runes from an
// uploaded file name so it is usable as both an object-storage key and a
// database record. Spaces become underscores; anything outside
// [A-Za-z0-9._-] is dropped.
func SanitizeFilename(raw string) string {
	name := strings.ReplaceAll(raw, "\\", "/")
	name = path.Base(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}

	return strings.Trim(b.String(), "._-")
}

// fileExtension returns the lower-cased extension of a sanitized name, or
// "" when the name carries none.
func fileExtension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}
