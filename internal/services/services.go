package services

import (
	"context"
	"net/http"

	"songlist-downloader/internal/api/navidrome"
	"songlist-downloader/internal/api/resolver"
	"songlist-downloader/internal/api/songlist"
	"songlist-downloader/internal/config"
	"songlist-downloader/internal/core/downloader"
	"songlist-downloader/internal/core/pipeline"
	"songlist-downloader/internal/core/tracklist"
	"songlist-downloader/internal/interfaces"
	"songlist-downloader/internal/shared"
)

// ServiceContainer holds all application services
type ServiceContainer struct {
	TrackSource interfaces.TrackSourceService
	Resolver    interfaces.ResolverService
	Fetcher     interfaces.FetchService
	Conversion  interfaces.ConversionService
	Download    interfaces.DownloadService
	Publish     interfaces.PublishService
	Logger      interfaces.LoggerService
	Diagnostics interfaces.DiagnosticsService
}

// NewServiceContainer creates a new service container with all services initialized
func NewServiceContainer(cfg *config.Config, httpClient *http.Client, debug bool) *ServiceContainer {
	// Create logger first as other services may need it
	logger := NewConsoleLogger()
	logger.SetDebugMode(debug)

	diagnostics := shared.NewWarningCollector(cfg.WarningBehavior)

	retry := shared.NewRetryPolicy(cfg.MaxRetryAttempts)
	retry.Debug = debug

	resolverClient := resolver.NewClient(cfg.ResolverURL, resolver.Options{
		ResultIndex:       cfg.ResultIndex,
		Quality:           cfg.Quality,
		UIN:               cfg.UIN,
		SKey:              cfg.SKey,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Retry:             retry,
	}, httpClient, diagnostics)

	fetcher := downloader.NewFetcher(httpClient, retry, debug)
	conversion := NewConversionService(cfg, httpClient, diagnostics, debug)
	trackSource := NewTrackSourceService(songlist.NewClient(cfg.SongListURL, httpClient))

	return &ServiceContainer{
		TrackSource: trackSource,
		Resolver:    resolverClient,
		Fetcher:     fetcher,
		Conversion:  conversion,
		Download:    NewDownloadService(cfg, resolverClient, fetcher, conversion, diagnostics, logger, debug),
		Publish:     navidrome.NewClient(cfg.NavidromeURL, cfg.NavidromeUsername, cfg.NavidromePassword, httpClient, debug),
		Logger:      logger,
		Diagnostics: diagnostics,
	}
}

// ConfigService implementation
type ConfigService struct{}

func NewConfigService() *ConfigService {
	return &ConfigService{}
}

func (cs *ConfigService) LoadConfig(configFile string) (*config.Config, error) {
	cfg := config.GetDefaultConfig()
	return cfg, config.LoadConfig(configFile, cfg)
}

func (cs *ConfigService) SaveConfig(configFile string, cfg *config.Config) error {
	return config.SaveConfig(configFile, cfg)
}

func (cs *ConfigService) ValidateConfig(cfg *config.Config) error {
	return cfg.Validate()
}

func (cs *ConfigService) GetDefaultConfig() *config.Config {
	return config.GetDefaultConfig()
}

func (cs *ConfigService) EnsureConfigExists(configFile string) error {
	if !shared.FileExists(configFile) {
		return cs.SaveConfig(configFile, cs.GetDefaultConfig())
	}
	return nil
}

// TrackSourceService implementation
type TrackSourceService struct {
	songLists *songlist.Client
}

func NewTrackSourceService(songLists *songlist.Client) *TrackSourceService {
	return &TrackSourceService{songLists: songLists}
}

func (ts *TrackSourceService) Load(path string) ([]shared.TrackDescriptor, []shared.TrackDescriptor, error) {
	return tracklist.Load(path)
}

func (ts *TrackSourceService) Save(path string, tracks []shared.TrackDescriptor) error {
	return tracklist.Save(path, tracks)
}

func (ts *TrackSourceService) FetchSongList(ctx context.Context, disstid string) ([]shared.TrackDescriptor, error) {
	return ts.songLists.FetchTracks(ctx, disstid)
}

func (ts *TrackSourceService) SaveRawSongList(ctx context.Context, disstid, path string) error {
	payload, err := ts.songLists.FetchRaw(ctx, disstid)
	if err != nil {
		return err
	}
	return tracklist.SaveRaw(path, payload)
}

// DownloadService implementation
type DownloadService struct {
	cfg         *config.Config
	resolver    interfaces.ResolverService
	fetcher     interfaces.FetchService
	conversion  interfaces.ConversionService
	diagnostics *shared.WarningCollector
	logger      interfaces.LoggerService
	debug       bool

	coordinator *pipeline.Coordinator
}

func NewDownloadService(cfg *config.Config, resolver interfaces.ResolverService, fetcher interfaces.FetchService, conversion interfaces.ConversionService, diagnostics *shared.WarningCollector, logger interfaces.LoggerService, debug bool) *DownloadService {
	return &DownloadService{
		cfg:         cfg,
		resolver:    resolver,
		fetcher:     fetcher,
		conversion:  conversion,
		diagnostics: diagnostics,
		logger:      logger,
		debug:       debug,
	}
}

func (ds *DownloadService) DownloadTracks(ctx context.Context, tracks []shared.TrackDescriptor) (*shared.RunStats, error) {
	ds.coordinator = pipeline.New(pipeline.Options{
		OutputDir:    ds.cfg.OutputDir,
		Parallelism:  ds.cfg.Parallelism,
		ShowProgress: shared.IsTTY() && !ds.debug,
		Debug:        ds.debug,
	}, ds.resolver, ds.fetcher, ds.conversion, ds.diagnostics)

	stats, err := ds.coordinator.Run(ctx, tracks)
	if err != nil {
		return nil, err
	}
	ds.logger.Debug("Run %s finished downloading", stats.RunID)

	if ds.cfg.WaitTranscodes {
		ds.logger.Info("Waiting for conversions to finish...")
		ds.coordinator.Wait()
	}
	return stats, nil
}

func (ds *DownloadService) Wait() {
	if ds.coordinator != nil {
		ds.coordinator.Wait()
	}
}

// ConversionService implementation
type ConversionService struct {
	*downloader.Transcoder
	ffmpegPath string
}

func NewConversionService(cfg *config.Config, httpClient *http.Client, reporter shared.Reporter, debug bool) *ConversionService {
	return &ConversionService{
		Transcoder: downloader.NewTranscoder(cfg.FFmpegPath, cfg.Format, cfg.Bitrate, httpClient, reporter, debug),
		ffmpegPath: cfg.FFmpegPath,
	}
}

func (cs *ConversionService) Available() bool {
	return downloader.CheckFFmpeg(cs.ffmpegPath)
}

// ConsoleLogger implementation
type ConsoleLogger struct {
	debugMode bool
}

func NewConsoleLogger() *ConsoleLogger {
	return &ConsoleLogger{debugMode: false}
}

func (cl *ConsoleLogger) Info(message string, args ...interface{}) {
	shared.ColorInfo.Printf(message+"\n", args...)
}

func (cl *ConsoleLogger) Warning(message string, args ...interface{}) {
	shared.ColorWarning.Printf("⚠️ "+message+"\n", args...)
}

func (cl *ConsoleLogger) Error(message string, args ...interface{}) {
	shared.ColorError.Printf("❌ "+message+"\n", args...)
}

func (cl *ConsoleLogger) Debug(message string, args ...interface{}) {
	if cl.debugMode {
		shared.ColorDebug.Printf("🐛 DEBUG: "+message+"\n", args...)
	}
}

func (cl *ConsoleLogger) Success(message string, args ...interface{}) {
	shared.ColorSuccess.Printf("✅ "+message+"\n", args...)
}

func (cl *ConsoleLogger) SetDebugMode(enabled bool) {
	cl.debugMode = enabled
}
