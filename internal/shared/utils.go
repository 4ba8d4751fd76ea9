package shared

import (
	"os"
	"strings"
	"unicode/utf8"
)

const (
	UserAgent       = "songlist-downloader/1.0"
	maxFileNameSize = 255
)

var illegalFileNameChars = `/\:*?"<>|`

// Device names Windows refuses as file names, with or without an extension.
var reservedFileNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// SanitizeFileName strips characters that are illegal in file names. The
// result is never empty and never a reserved device name. Two different
// inputs can sanitize to the same name; callers do not coordinate that and
// the last writer wins.
func SanitizeFileName(name string) string {
	result := strings.Map(func(r rune) rune {
		if r < 0x20 || strings.ContainsRune(illegalFileNameChars, r) {
			return -1
		}
		return r
	}, name)

	result = strings.Trim(result, " .")
	result = truncateBytes(result, maxFileNameSize)
	result = strings.TrimRight(result, " .")

	if result == "" {
		return UnknownField
	}

	base := result
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	if reservedFileNames[strings.ToUpper(strings.TrimSpace(base))] {
		result = "_" + result
	}
	return result
}

// MediaFileName builds the "<title> - <artist>" base name of a track.
func MediaFileName(title, artist string) string {
	return SanitizeFileName(title + " - " + artist)
}

// truncateBytes cuts s to at most n bytes without splitting a rune.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// FileExists checks if a file exists at the given path
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// CreateDirIfNotExists creates a directory if it doesn't exist
func CreateDirIfNotExists(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// TruncateString truncates a string to the specified length, adding ellipsis if truncated.
func TruncateString(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-3]) + "..."
}
