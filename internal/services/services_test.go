package services

import (
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"songlist-downloader/internal/config"
	"songlist-downloader/internal/shared"
)

func TestNewServiceContainer(t *testing.T) {
	cfg := config.GetDefaultConfig()

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	container := NewServiceContainer(cfg, httpClient, false)

	// Verify all services are initialized
	if container.TrackSource == nil {
		t.Error("TrackSource service not initialized")
	}
	if container.Resolver == nil {
		t.Error("Resolver service not initialized")
	}
	if container.Fetcher == nil {
		t.Error("Fetcher service not initialized")
	}
	if container.Conversion == nil {
		t.Error("Conversion service not initialized")
	}
	if container.Download == nil {
		t.Error("Download service not initialized")
	}
	if container.Publish == nil {
		t.Error("Publish service not initialized")
	}
	if container.Logger == nil {
		t.Error("Logger service not initialized")
	}
	if container.Diagnostics == nil {
		t.Error("Diagnostics service not initialized")
	}
}

func TestConfigService(t *testing.T) {
	cs := NewConfigService()

	defaultConfig := cs.GetDefaultConfig()
	if err := cs.ValidateConfig(defaultConfig); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}

	configFile := filepath.Join(t.TempDir(), "nested", "config.json")
	if err := cs.EnsureConfigExists(configFile); err != nil {
		t.Fatalf("EnsureConfigExists failed: %v", err)
	}
	if !shared.FileExists(configFile) {
		t.Fatal("config file should have been created")
	}

	loaded, err := cs.LoadConfig(configFile)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Parallelism != defaultConfig.Parallelism || loaded.Format != defaultConfig.Format {
		t.Errorf("loaded config differs from default: %+v", loaded)
	}

	loaded.Parallelism = 0
	if err := cs.ValidateConfig(loaded); err == nil {
		t.Error("Expected validation error for zero parallelism")
	}
}

func TestConversionService(t *testing.T) {
	cs := NewConversionService(config.GetDefaultConfig(), nil, nil, false)

	src := &shared.LocalMediaFile{Path: filepath.Join("music", "Song - Singer")}
	if got := cs.TargetPath(src); got != src.Path+".mp3" {
		t.Errorf("unexpected target path %s", got)
	}
}

func TestConversionServiceAvailable(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.FFmpegPath = filepath.Join(t.TempDir(), "no-such-ffmpeg")
	if NewConversionService(cfg, nil, nil, false).Available() {
		t.Error("missing binary should not be available")
	}
}

func TestConsoleLogger(t *testing.T) {
	logger := NewConsoleLogger()
	if logger.debugMode {
		t.Error("debug mode should start disabled")
	}
	logger.SetDebugMode(true)
	if !logger.debugMode {
		t.Error("SetDebugMode(true) had no effect")
	}
	logger.Info("info %d", 1)
	logger.Debug("debug %s", "message")
	logger.Success("done")
}
