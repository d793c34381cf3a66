package util

import (
	"path"
	"strings"
)

const fallbackFileName = "upload"

// SanitizeFileName strips directories and control characters from a
// client-supplied file name so it is safe to log or echo back.
func SanitizeFileName(name string) string {
	s := strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	s = path.Base(s)
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if s == "" || s == "." || s == ".." || s == "/" {
		return fallbackFileName
	}
	if len([]rune(s)) > 128 {
		s = string([]rune(s)[:128])
	}
	return s
}
