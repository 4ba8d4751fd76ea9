package shared

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "Song - Singer", "Song - Singer"},
		{"illegal characters", `a/b\c:d*e?f"g<h>i|j`, "abcdefghij"},
		{"control characters", "line\nbreak\ttab", "linebreaktab"},
		{"surrounding dots and spaces", "  .hidden. ", "hidden"},
		{"only illegal", `/\:*?"<>|`, UnknownField},
		{"empty", "", UnknownField},
		{"reserved name", "CON", "_CON"},
		{"reserved name with extension", "nul.txt", "_nul.txt"},
		{"reserved prefix is fine", "CONCERT", "CONCERT"},
		{"unicode kept", "晴天 - 周杰伦", "晴天 - 周杰伦"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFileName(tt.input); got != tt.expected {
				t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeFileNameLength(t *testing.T) {
	long := strings.Repeat("晴", 200) // 600 bytes
	got := SanitizeFileName(long)
	if len(got) > maxFileNameSize {
		t.Errorf("Expected at most %d bytes, got %d", maxFileNameSize, len(got))
	}
	if !utf8.ValidString(got) {
		t.Error("truncation split a rune")
	}
}

func TestSanitizeFileNameIsIdempotent(t *testing.T) {
	for _, input := range []string{"a:b", " CON ", "..x..", strings.Repeat("y", 300)} {
		once := SanitizeFileName(input)
		if twice := SanitizeFileName(once); twice != once {
			t.Errorf("SanitizeFileName not stable for %q: %q then %q", input, once, twice)
		}
	}
}

func TestMediaFileName(t *testing.T) {
	if got := MediaFileName("A/B", "C"); got != "AB - C" {
		t.Errorf("MediaFileName() = %q", got)
	}
	// Distinct tracks can collide after sanitizing.
	if MediaFileName("A?", "B") != MediaFileName("A", "B") {
		t.Error("expected collision for names differing only in illegal characters")
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file")
	if FileExists(path) {
		t.Error("file should not exist yet")
	}
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if !FileExists(path) {
		t.Error("file should exist")
	}
	if FileExists(dir) {
		t.Error("directories are not files")
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("short", 10); got != "short" {
		t.Errorf("unexpected %q", got)
	}
	if got := TruncateString("a very long title", 10); got != "a very ..." {
		t.Errorf("unexpected %q", got)
	}
	if got := TruncateString("晴天晴天晴天晴天晴天晴天", 6); got != "晴天晴..." {
		t.Errorf("unexpected %q", got)
	}
}
