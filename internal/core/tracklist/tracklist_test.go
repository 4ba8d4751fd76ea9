package tracklist

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"songlist-downloader/internal/shared"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "list.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return path
}

func TestLoadPreservesOrder(t *testing.T) {
	path := writeFile(t, `[{"songname":"A","songmid":"m1"},{"songname":"B","songmid":"m2"},{"songname":"C","songmid":"m3"}]`)

	tracks, skipped, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(skipped) != 0 {
		t.Errorf("Expected no skipped entries, got %d", len(skipped))
	}
	want := []string{"m1", "m2", "m3"}
	if len(tracks) != len(want) {
		t.Fatalf("Expected %d tracks, got %d", len(want), len(tracks))
	}
	for i, id := range want {
		if tracks[i].Identifier != id {
			t.Errorf("track %d: expected %s, got %s", i, id, tracks[i].Identifier)
		}
	}
	if tracks[0].Name != "A" {
		t.Errorf("Expected name A, got %q", tracks[0].Name)
	}
}

func TestLoadSkipsIncompleteEntries(t *testing.T) {
	path := writeFile(t, `[{"songname":"A"},{"songmid":"m2"},{"songname":"C","songmid":"m3"}]`)

	tracks, skipped, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(tracks) != 1 || tracks[0].Identifier != "m3" {
		t.Errorf("Expected only m3, got %+v", tracks)
	}
	if len(skipped) != 2 {
		t.Errorf("Expected 2 skipped entries, got %d", len(skipped))
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.json"))

	var notFound *shared.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("NotFoundError should wrap fs.ErrNotExist")
	}
}

func TestLoadMalformed(t *testing.T) {
	for _, content := range []string{`{"songname":"A"}`, `[{"songname":`, `null`, `"text"`} {
		path := writeFile(t, content)
		_, _, err := Load(path)

		var parseErr *shared.ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("content %q: expected ParseError, got %v", content, err)
		}
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "list.json")
	tracks := []shared.TrackDescriptor{
		{Name: "晴天", Identifier: "0039MnYb0qxYhV"},
		{Name: "A & B", Identifier: "m2"},
	}

	if err := Save(path, tracks); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "晴天") || !strings.Contains(string(data), "A & B") {
		t.Errorf("names should be written unescaped, got %s", data)
	}
	if !strings.Contains(string(data), `"songmid"`) {
		t.Errorf("expected songmid key, got %s", data)
	}

	loaded, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 2 || loaded[0] != tracks[0] || loaded[1] != tracks[1] {
		t.Errorf("Expected %+v, got %+v", tracks, loaded)
	}
}
