package util

import (
	"errors"
	"strings"
	"unicode"
)

const maxFileNameLen = 64

// ErrInvalidFileName is returned for names that are empty or try to climb
// out of their directory.
var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName keeps letters, digits, '.', '-' and '_' and collapses any
// other run of characters into a single '_'.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	var b strings.Builder
	gap := false
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' || r == '_' {
			if gap && b.Len() > 0 {
				b.WriteByte('_')
			}
			gap = false
			b.WriteRune(r)
			continue
		}
		gap = true
	}
	s := b.String()
	if len(s) > maxFileNameLen {
		s = strings.TrimRight(strings.ToValidUTF8(s[:maxFileNameLen], ""), "_")
	}
	if s == "" {
		return "", ErrInvalidFileName
	}
	return s, nil
}
