package interfaces

import (
	"context"

	"github.com/cheggaaa/pb/v3"

	"songlist-downloader/internal/config"
	"songlist-downloader/internal/shared"
)

// ConfigService defines the interface for configuration management
type ConfigService interface {
	// LoadConfig loads configuration from file on top of the defaults
	LoadConfig(configFile string) (*config.Config, error)

	// SaveConfig saves configuration to file
	SaveConfig(configFile string, config *config.Config) error

	// ValidateConfig validates configuration settings
	ValidateConfig(config *config.Config) error

	// GetDefaultConfig returns a default configuration
	GetDefaultConfig() *config.Config

	// EnsureConfigExists creates a default config file if it doesn't exist
	EnsureConfigExists(configFile string) error
}

// TrackSourceService reads and writes track lists
type TrackSourceService interface {
	// Load reads a track list file; incomplete entries are returned separately
	Load(path string) ([]shared.TrackDescriptor, []shared.TrackDescriptor, error)

	// Save writes a track list file
	Save(path string, tracks []shared.TrackDescriptor) error

	// FetchSongList retrieves the tracks of a published song list
	FetchSongList(ctx context.Context, disstid string) ([]shared.TrackDescriptor, error)

	// SaveRawSongList writes the undecoded song list payload
	SaveRawSongList(ctx context.Context, disstid, path string) error
}

// ResolverService turns track identifiers into media links
type ResolverService interface {
	Resolve(ctx context.Context, identifier string) (*shared.ResolvedMedia, error)
}

// FetchService downloads resolved media
type FetchService interface {
	Fetch(ctx context.Context, media *shared.ResolvedMedia, dest string, bar *pb.ProgressBar) (*shared.LocalMediaFile, error)
}

// ConversionService defines the interface for audio format conversion
type ConversionService interface {
	// TargetPath returns where the converted file for src is written
	TargetPath(src *shared.LocalMediaFile) string

	// Transcode converts src and removes it on success
	Transcode(ctx context.Context, src *shared.LocalMediaFile, media *shared.ResolvedMedia, target string) (*shared.TranscodedFile, error)

	// Available reports whether the encoder binary can be found
	Available() bool
}

// DownloadService runs the resolve, fetch and convert pipeline
type DownloadService interface {
	// DownloadTracks processes tracks; conversions are awaited when the
	// configuration asks for it
	DownloadTracks(ctx context.Context, tracks []shared.TrackDescriptor) (*shared.RunStats, error)

	// Wait joins conversions still running from the last DownloadTracks call
	Wait()
}

// PublishService adds finished tracks to a media server playlist
type PublishService interface {
	Authenticate() error
	Publish(ctx context.Context, playlistName string, outputs []*shared.TranscodedFile, reporter shared.Reporter) (int, error)
}

// LoggerService defines the interface for logging operations
type LoggerService interface {
	// Info logs an informational message
	Info(message string, args ...interface{})

	// Warning logs a warning message
	Warning(message string, args ...interface{})

	// Error logs an error message
	Error(message string, args ...interface{})

	// Debug logs a debug message
	Debug(message string, args ...interface{})

	// Success logs a success message
	Success(message string, args ...interface{})

	// SetDebugMode enables or disables debug logging
	SetDebugMode(enabled bool)
}

// DiagnosticsService collects per-track failures for the run summary
type DiagnosticsService interface {
	shared.Reporter

	// AddSkippedEntry records an incomplete track list entry
	AddSkippedEntry(context string)

	// HasWarnings returns true if there are any warnings
	HasWarnings() bool

	// GetWarningCount returns the total number of warnings
	GetWarningCount() int

	// PrintSummary prints a formatted summary of all warnings
	PrintSummary()
}
