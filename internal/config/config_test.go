package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := GetDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Parallelism != 3 {
		t.Errorf("Expected default parallelism 3, got %d", cfg.Parallelism)
	}
	if cfg.MaxRetryAttempts != 0 {
		t.Errorf("Retries must be off by default, got %d", cfg.MaxRetryAttempts)
	}
	if cfg.RequestTimeout() != 10*time.Minute {
		t.Errorf("Expected 10m request timeout, got %v", cfg.RequestTimeout())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero parallelism", func(c *Config) { c.Parallelism = 0 }},
		{"unknown format", func(c *Config) { c.Format = "wav" }},
		{"non-numeric bitrate", func(c *Config) { c.Bitrate = "abc" }},
		{"unsupported bitrate", func(c *Config) {
			c.Format = "opus"
			c.Bitrate = "500"
		}},
		{"empty bitrate", func(c *Config) {
			c.Format = "m4a"
			c.Bitrate = ""
		}},
		{"empty output", func(c *Config) { c.OutputDir = "" }},
		{"empty input", func(c *Config) { c.InputPath = "" }},
		{"negative timeout", func(c *Config) { c.RequestTimeoutSec = -1 }},
		{"negative retries", func(c *Config) { c.MaxRetryAttempts = -2 }},
		{"bad warning behavior", func(c *Config) { c.WarningBehavior = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateBitrateIgnoredForFlacAndOgg(t *testing.T) {
	for _, format := range []string{"flac", "ogg"} {
		cfg := GetDefaultConfig()
		cfg.Format = format
		cfg.Bitrate = "abc"
		if err := cfg.Validate(); err != nil {
			t.Errorf("%s: bitrate should be ignored, got %v", format, err)
		}
	}
}

func TestLoadConfigKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"Parallelism": 7, "Format": "flac"}`), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg := GetDefaultConfig()
	if err := LoadConfig(path, cfg); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Parallelism != 7 || cfg.Format != "flac" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.OutputDir != "music" {
		t.Errorf("Expected default OutputDir to survive, got %q", cfg.OutputDir)
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := GetDefaultConfig()
	cfg.UIN = "12345"

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded := &Config{}
	if err := LoadConfig(path, loaded); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.UIN != "12345" || loaded.ResolverURL != DefaultResolverURL {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	cfg := GetDefaultConfig()
	if err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"), cfg); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	os.WriteFile(path, []byte("{not json"), 0644)
	if err := LoadConfig(path, cfg); err == nil {
		t.Error("expected error for malformed file")
	}
}
