package textutil

import (
	"strings"
	"unicode"
)

// SanitizeFileName makes name usable as a single path component on any
// common filesystem. Separators, colons and asterisks become dashes; other
// reserved characters and control characters are dropped. Leading dots and
// trailing dots or spaces are trimmed, so the result never names a hidden
// file or a parent directory.
func SanitizeFileName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case strings.ContainsRune(`/\:*`, r):
			return '-'
		case strings.ContainsRune(`?"<>|`, r), unicode.IsControl(r):
			return -1
		}
		return r
	}, name)
	name = strings.TrimLeft(strings.TrimSpace(name), ".")
	return strings.TrimSpace(strings.TrimRight(name, ". "))
}
