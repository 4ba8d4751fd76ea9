package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"songlist-downloader/internal/config"
	"songlist-downloader/internal/shared"
)

const fakeFFmpeg = `#!/bin/sh
in=""
prev=""
out=""
for a in "$@"; do
  if [ "$prev" = "-i" ]; then in="$a"; fi
  prev="$a"
  out="$a"
done
cp "$in" "$out"
`

func TestServiceIntegration(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake ffmpeg is a shell script")
	}
	dir := t.TempDir()

	ffmpeg := filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(ffmpeg, []byte(fakeFFmpeg), 0755); err != nil {
		t.Fatalf("Failed to write fake ffmpeg: %v", err)
	}

	var server *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/resolve", func(w http.ResponseWriter, r *http.Request) {
		mid := r.URL.Query().Get("mid")
		if mid == "vip" {
			fmt.Fprint(w, `{"code":-1,"msg":"needs VIP"}`)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]string{"src": server.URL + "/media/" + mid, "songname": "Song " + mid, "name": "Singer"},
		})
	})
	mux.HandleFunc("/media/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Repeat("x", 2048))
	})
	mux.HandleFunc("/songlist", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `jsonCallback({"cdlist":[{"songlist":[{"songname":"One","songmid":"m1"},{"songname":"Two","songmid":"m2"},{"songname":"Paid","songmid":"vip"}]}]});`)
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	cfg := config.GetDefaultConfig()
	cfg.ResolverURL = server.URL + "/resolve"
	cfg.SongListURL = server.URL + "/songlist"
	cfg.OutputDir = filepath.Join(dir, "music")
	cfg.InputPath = filepath.Join(dir, "list.json")
	cfg.FFmpegPath = ffmpeg
	cfg.Parallelism = 2

	container := NewServiceContainer(cfg, server.Client(), false)
	ctx := context.Background()

	// songlist command: fetch and persist the track list
	tracks, err := container.TrackSource.FetchSongList(ctx, "12345")
	if err != nil {
		t.Fatalf("FetchSongList failed: %v", err)
	}
	if err := container.TrackSource.Save(cfg.InputPath, tracks); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// download command: load the list and run the pipeline
	loaded, skipped, err := container.TrackSource.Load(cfg.InputPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 3 || len(skipped) != 0 {
		t.Fatalf("unexpected track list: %v, skipped %v", loaded, skipped)
	}

	stats, err := container.Download.DownloadTracks(ctx, loaded)
	if err != nil {
		t.Fatalf("DownloadTracks failed: %v", err)
	}

	snap := stats.Snapshot()
	if snap.Transcoded != 2 || snap.ResolveFailed != 1 {
		t.Errorf("unexpected stats: %+v", snap)
	}
	for _, name := range []string{"Song m1 - Singer.mp3", "Song m2 - Singer.mp3"} {
		if !shared.FileExists(filepath.Join(cfg.OutputDir, name)) {
			t.Errorf("missing output %s", name)
		}
	}
	if shared.FileExists(filepath.Join(cfg.OutputDir, "Song m1 - Singer")) {
		t.Error("source should have been removed after conversion")
	}
	if container.Diagnostics.GetWarningCount() != 1 {
		t.Errorf("Expected exactly one diagnostic, got %d", container.Diagnostics.GetWarningCount())
	}
}
