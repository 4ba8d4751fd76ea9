package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"songlist-downloader/internal/api/resolver"
	"songlist-downloader/internal/config"
	"songlist-downloader/internal/interfaces"
	"songlist-downloader/internal/services"
	"songlist-downloader/internal/shared"
)

// Version is the application version reported by the version command.
const Version = "1.0.0"

// initConfigAndServices loads the configuration file, applies flag
// overrides and builds the service container.
func initConfigAndServices(cmd *cobra.Command) (*config.Config, *services.ServiceContainer, error) {
	shared.InitializeColors()

	configFile, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")
	debug = debug || shared.IsDebugMode()

	var configs interfaces.ConfigService = services.NewConfigService()
	cfg := configs.GetDefaultConfig()
	switch {
	case shared.FileExists(configFile):
		loaded, err := configs.LoadConfig(configFile)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
		shared.DebugPrint(debug, "Loaded configuration from %s", configFile)
	case cmd.Flags().Changed("config"):
		return nil, nil, fmt.Errorf("config file not found: %s", configFile)
	}

	applyFlagOverrides(cmd, cfg)
	if err := configs.ValidateConfig(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	httpClient := resolver.NewHTTPClient(cfg.RequestTimeout())
	return cfg, services.NewServiceContainer(cfg, httpClient, debug), nil
}

// applyFlagOverrides copies every flag the user set explicitly onto cfg.
// Flags that are not defined on cmd are ignored.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	changed := func(name string) bool {
		return flags.Lookup(name) != nil && flags.Changed(name)
	}

	if changed("input") {
		cfg.InputPath, _ = flags.GetString("input")
	}
	if changed("output") {
		cfg.OutputDir, _ = flags.GetString("output")
	}
	if changed("parallelism") {
		cfg.Parallelism, _ = flags.GetInt("parallelism")
	}
	if changed("format") {
		cfg.Format, _ = flags.GetString("format")
	}
	if changed("bitrate") {
		cfg.Bitrate, _ = flags.GetString("bitrate")
	}
	if changed("uin") {
		cfg.UIN, _ = flags.GetString("uin")
	}
	if changed("skey") {
		cfg.SKey, _ = flags.GetString("skey")
	}
	if changed("retries") {
		cfg.MaxRetryAttempts, _ = flags.GetInt("retries")
	}
	if changed("rps") {
		cfg.RequestsPerSecond, _ = flags.GetFloat64("rps")
	}
	if changed("timeout") {
		timeout, _ := flags.GetDuration("timeout")
		cfg.RequestTimeoutSec = timeoutSeconds(timeout)
	}
	if changed("ffmpeg") {
		cfg.FFmpegPath, _ = flags.GetString("ffmpeg")
	}
	if changed("wait-transcodes") {
		cfg.WaitTranscodes, _ = flags.GetBool("wait-transcodes")
	}
	if changed("warnings") {
		cfg.WarningBehavior, _ = flags.GetString("warnings")
	}
}

// timeoutSeconds converts a flag duration to whole seconds, rounding up so a
// positive timeout never becomes 0 (no timeout).
func timeoutSeconds(d time.Duration) int {
	if d <= 0 {
		return int(d / time.Second)
	}
	return int((d + time.Second - 1) / time.Second)
}

func printInstallInstructions() {
	shared.ColorError.Println("❌ ffmpeg is not installed or not in your PATH. Please install ffmpeg to convert downloads.")
	shared.ColorInfo.Println("💡 On macOS: brew install ffmpeg")
	shared.ColorInfo.Println("💡 On Debian/Ubuntu: sudo apt install ffmpeg")
	shared.ColorInfo.Println("💡 On Windows: winget install ffmpeg")
	shared.ColorInfo.Println("💡 Or set FFmpegPath in the configuration file.")
}
