package util

import (
	"errors"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxFileNameLen = 255

// SanitizeFileName reduces a client-supplied name to a display-safe base name.
// Path components and control characters are removed.
func SanitizeFileName(name string) (string, error) {
	s := strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	s = path.Base(s)
	if s == "." || s == "/" || s == ".." {
		return "", errors.New("invalid file name")
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("invalid file name")
	}
	if len(s) > maxFileNameLen {
		// Cut on a rune boundary so the name stays valid UTF-8.
		cut := maxFileNameLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s, nil
}
