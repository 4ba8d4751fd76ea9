package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"songlist-downloader/internal/shared"
)

const (
	DefaultConfigFile  = "config.json"
	DefaultResolverURL = "https://api.xingzhige.com/API/QQmusicVIP/"
	DefaultSongListURL = "https://i.y.qq.com/qzone-music/fcg-bin/fcg_ucc_getcdinfo_byids_cp.fcg"
	RequestTimeout     = 10 * time.Minute
)

// SupportedFormats lists the transcode targets.
var SupportedFormats = []string{"mp3", "ogg", "opus", "flac", "m4a"}

// SupportedBitrates lists the kbps values accepted for bitrate-driven encoders.
var SupportedBitrates = []string{"96", "128", "160", "192", "256", "320"}

// Configuration structure
type Config struct {
	InputPath         string  `json:"InputPath"`
	OutputDir         string  `json:"OutputDir"`
	Parallelism       int     `json:"Parallelism"`
	Format            string  `json:"Format"`
	Bitrate           string  `json:"Bitrate"`
	ResolverURL       string  `json:"ResolverURL"`
	SongListURL       string  `json:"SongListURL"`
	Quality           int     `json:"Quality"`     // "br" query parameter
	ResultIndex       int     `json:"ResultIndex"` // "n" query parameter
	UIN               string  `json:"UIN,omitempty"`
	SKey              string  `json:"SKey,omitempty"`
	RequestTimeoutSec int     `json:"RequestTimeoutSec"` // 0 disables the per-request timeout
	MaxRetryAttempts  int     `json:"MaxRetryAttempts"`  // extra attempts after the first
	RequestsPerSecond float64 `json:"RequestsPerSecond"` // 0 disables resolver rate limiting
	FFmpegPath        string  `json:"FFmpegPath"`
	WaitTranscodes    bool    `json:"WaitTranscodes"`
	WarningBehavior   string  `json:"WarningBehavior"` // "immediate", "summary", or "silent"
	NavidromeURL      string  `json:"NavidromeURL,omitempty"`
	NavidromeUsername string  `json:"NavidromeUsername,omitempty"`
	NavidromePassword string  `json:"NavidromePassword,omitempty"`
}

// GetDefaultConfig returns the configuration used when no file overrides it.
func GetDefaultConfig() *Config {
	return &Config{
		InputPath:         "list.json",
		OutputDir:         "music",
		Parallelism:       3,
		Format:            "mp3",
		Bitrate:           "320",
		ResolverURL:       DefaultResolverURL,
		SongListURL:       DefaultSongListURL,
		Quality:           4,
		ResultIndex:       1,
		RequestTimeoutSec: int(RequestTimeout / time.Second),
		FFmpegPath:        "ffmpeg",
		WaitTranscodes:    true,
		WarningBehavior:   shared.WarningSummary,
	}
}

// RequestTimeout returns the per-request timeout; zero means none.
func (cfg *Config) RequestTimeout() time.Duration {
	return time.Duration(cfg.RequestTimeoutSec) * time.Second
}

// NavidromeEnabled reports whether a Navidrome server is configured.
func (cfg *Config) NavidromeEnabled() bool {
	return cfg.NavidromeURL != "" && cfg.NavidromeUsername != ""
}

// Validate checks the settings the pipeline depends on.
func (cfg *Config) Validate() error {
	if cfg.InputPath == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if cfg.ResolverURL == "" {
		return fmt.Errorf("resolver URL is required")
	}
	if cfg.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1, got %d", cfg.Parallelism)
	}
	if err := ValidateFormat(cfg.Format); err != nil {
		return err
	}
	if err := ValidateBitrate(cfg.Format, cfg.Bitrate); err != nil {
		return err
	}
	if cfg.RequestTimeoutSec < 0 {
		return fmt.Errorf("request timeout must not be negative")
	}
	if cfg.MaxRetryAttempts < 0 {
		return fmt.Errorf("max retry attempts must not be negative")
	}
	if cfg.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second must not be negative")
	}
	switch cfg.WarningBehavior {
	case shared.WarningImmediate, shared.WarningSummary, shared.WarningSilent:
	default:
		return fmt.Errorf("invalid warning behavior: %q", cfg.WarningBehavior)
	}
	return nil
}

// ValidateFormat validates that a format is supported
func ValidateFormat(format string) error {
	for _, supported := range SupportedFormats {
		if format == supported {
			return nil
		}
	}
	return fmt.Errorf("unsupported format: %s", format)
}

// ValidateBitrate checks bitrate for formats encoded at a fixed bitrate.
// flac is lossless and ogg is quality-based, so both ignore it.
func ValidateBitrate(format, bitrate string) error {
	if format == "flac" || format == "ogg" {
		return nil
	}
	for _, valid := range SupportedBitrates {
		if bitrate == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid bitrate for %s: %q (supported: %s)", format, bitrate, strings.Join(SupportedBitrates, ", "))
}

// LoadConfig loads configuration from a JSON file on top of the values
// already in config, so keys missing from the file keep their defaults.
func LoadConfig(filePath string, config *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// SaveConfig saves configuration to a JSON file
func SaveConfig(filePath string, config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := shared.CreateDirIfNotExists(filepath.Dir(filePath)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
