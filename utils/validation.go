package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._\s()\[\]-]`)

// SanitizeFilename reduces a client-supplied upload name to its base name,
// drops characters outside a conservative set and limits length. Some
// browsers send full local paths; only the final element is kept. Returns
// "" when nothing usable is left.
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "\\", "/")
	sanitized := filepath.Base(filename)
	if sanitized == "." || sanitized == "/" {
		return ""
	}
	sanitized = strings.Trim(sanitized, " .")
	sanitized = strings.ReplaceAll(sanitized, "..", "")
	sanitized = unsafeFilenameChars.ReplaceAllString(sanitized, "_")
	if len(sanitized) > 255 {
		ext := filepath.Ext(sanitized)
		if len(ext) < 255 {
			sanitized = sanitized[:255-len(ext)] + ext
		} else {
			sanitized = sanitized[:255]
		}
	}
	return sanitized
}

// IsRegularFile reports whether path exists and is not a directory.
func IsRegularFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// GenerateMessageID creates a unique message identifier using UUID v4.
func GenerateMessageID() string {
	return uuid.New().String()
}
