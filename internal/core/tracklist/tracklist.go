package tracklist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"songlist-downloader/internal/shared"
)

// Load reads the track list at path. Order is preserved. Entries without a
// name or an identifier are dropped and returned separately so the caller can
// report them.
func Load(path string) (tracks []shared.TrackDescriptor, skipped []shared.TrackDescriptor, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, &shared.NotFoundError{Path: path, Err: err}
		}
		return nil, nil, fmt.Errorf("failed to read track list: %w", err)
	}

	var entries []shared.TrackDescriptor
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, nil, &shared.ParseError{Path: path, Err: err}
	}
	if entries == nil {
		// "null" decodes without error but is not a sequence
		return nil, nil, &shared.ParseError{Path: path, Err: errors.New("expected a JSON array")}
	}

	tracks = make([]shared.TrackDescriptor, 0, len(entries))
	for _, entry := range entries {
		if entry.Name == "" || entry.Identifier == "" {
			skipped = append(skipped, entry)
			continue
		}
		tracks = append(tracks, entry)
	}
	return tracks, skipped, nil
}

// Save writes tracks as an indented JSON array, leaving non-ASCII names
// unescaped.
func Save(path string, tracks []shared.TrackDescriptor) error {
	if tracks == nil {
		tracks = []shared.TrackDescriptor{}
	}
	return writeJSON(path, tracks)
}

// SaveRaw writes an arbitrary JSON document, used for unprocessed API
// payloads.
func SaveRaw(path string, payload interface{}) error {
	return writeJSON(path, payload)
}

func writeJSON(path string, v interface{}) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode track list: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := shared.CreateDirIfNotExists(dir); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write track list: %w", err)
	}
	return nil
}
