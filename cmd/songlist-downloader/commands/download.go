package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"songlist-downloader/internal/config"
	"songlist-downloader/internal/services"
	"songlist-downloader/internal/shared"
)

// NewDownloadCommand creates the track list download command
func NewDownloadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download and convert every track of the track list.",
		Args:  cobra.NoArgs,
		RunE:  runDownloadCommand,
	}

	cmd.Flags().StringP("input", "i", "list.json", "Track list file")
	cmd.Flags().StringP("output", "o", "music", "Directory to save converted tracks")
	cmd.Flags().IntP("parallelism", "k", 3, "Maximum number of concurrent resolve and download chains")
	cmd.Flags().String("format", "mp3", "Format to convert to ("+strings.Join(config.SupportedFormats, ", ")+")")
	cmd.Flags().String("bitrate", "320", "Bitrate for lossy formats (in kbps, e.g., 192, 256, 320)")
	cmd.Flags().String("uin", "", "Account number sent to the resolution service")
	cmd.Flags().String("skey", "", "Session key sent to the resolution service")
	cmd.Flags().Int("retries", 0, "Extra attempts for transient network failures (0 disables retries)")
	cmd.Flags().Float64("rps", 0, "Maximum resolution requests per second (0 means unlimited)")
	cmd.Flags().Duration("timeout", config.RequestTimeout, "Per-request network timeout (0 means none)")
	cmd.Flags().String("ffmpeg", "ffmpeg", "Path to the ffmpeg binary")
	cmd.Flags().Bool("wait-transcodes", true, "Wait for all conversions before exiting")
	cmd.Flags().String("warnings", shared.WarningSummary, "How to show per-track failures (immediate, summary, silent)")
	cmd.Flags().String("navidrome-playlist", "", "Add converted tracks to this Navidrome playlist")

	return cmd
}

func runDownloadCommand(cmd *cobra.Command, args []string) error {
	cfg, serviceContainer, err := initConfigAndServices(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if !serviceContainer.Conversion.Available() {
		printInstallInstructions()
		return fmt.Errorf("ffmpeg not found: %s", cfg.FFmpegPath)
	}

	tracks, skipped, err := serviceContainer.TrackSource.Load(cfg.InputPath)
	if err != nil {
		return fmt.Errorf("failed to load track list: %w", err)
	}
	for _, entry := range skipped {
		serviceContainer.Diagnostics.AddSkippedEntry(shared.TrackContext(entry))
	}
	if len(tracks) == 0 {
		serviceContainer.Logger.Warning("No tracks to download in %s", cfg.InputPath)
		return nil
	}

	serviceContainer.Logger.Info("🎵 Downloading %d tracks to %s (parallelism %d, format %s)", len(tracks), cfg.OutputDir, cfg.Parallelism, cfg.Format)
	start := time.Now()

	stats, err := serviceContainer.Download.DownloadTracks(ctx, tracks)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return shared.ErrDownloadCancelled
		}
		return err
	}
	if ctx.Err() != nil {
		serviceContainer.Logger.Warning("Download cancelled by user; remaining tracks were not processed.")
	}
	if !cfg.WaitTranscodes {
		serviceContainer.Logger.Warning("Not waiting for conversions; some files may still be converting.")
	}

	playlist, _ := cmd.Flags().GetString("navidrome-playlist")
	if playlist != "" {
		publishToNavidrome(ctx, cfg, serviceContainer, stats, playlist)
	}

	if cfg.WarningBehavior == shared.WarningSummary {
		serviceContainer.Diagnostics.PrintSummary()
	}
	printDownloadSummary(stats.Snapshot(), cfg, time.Since(start), cfg.WaitTranscodes)
	return nil
}

func publishToNavidrome(ctx context.Context, cfg *config.Config, serviceContainer *services.ServiceContainer, stats *shared.RunStats, playlist string) {
	if !cfg.NavidromeEnabled() {
		serviceContainer.Logger.Warning("Navidrome is not configured; skipping playlist %q", playlist)
		return
	}
	// Publishing needs the finished files.
	serviceContainer.Download.Wait()

	if err := serviceContainer.Publish.Authenticate(); err != nil {
		serviceContainer.Logger.Error("%v", err)
		return
	}
	added, err := serviceContainer.Publish.Publish(ctx, playlist, stats.Snapshot().Outputs, serviceContainer.Diagnostics)
	if err != nil {
		serviceContainer.Logger.Error("Failed to publish playlist %q: %v", playlist, err)
		return
	}
	serviceContainer.Logger.Success("Added %d tracks to Navidrome playlist %q", added, playlist)
}

func printDownloadSummary(snap shared.Snapshot, cfg *config.Config, elapsed time.Duration, complete bool) {
	fmt.Printf("\n")
	shared.ColorInfo.Printf("📊 Download Summary:\n")

	if snap.Transcoded > 0 {
		shared.ColorSuccess.Printf("✅ Converted: %d tracks\n", snap.Transcoded)
	}
	if !complete && snap.Fetched > snap.Transcoded+snap.TranscodeFailed {
		shared.ColorWarning.Printf("⏳ Still converting: %d tracks\n", snap.Fetched-snap.Transcoded-snap.TranscodeFailed)
	}

	failed := snap.ResolveFailed + snap.FetchFailed + snap.TranscodeFailed
	if failed > 0 {
		shared.ColorError.Printf("❌ Failed: %d tracks (resolve %d, download %d, convert %d)\n", failed, snap.ResolveFailed, snap.FetchFailed, snap.TranscodeFailed)
		if len(snap.FailedItems) > 0 {
			shared.ColorError.Printf("   Failed items: %s\n", strings.Join(snap.FailedItems, ", "))
		}
	}

	shared.ColorSuccess.Printf("📁 Files saved to: %s\n", cfg.OutputDir)
	shared.ColorInfo.Printf("⏱️  Elapsed: %s\n", elapsed.Round(time.Second))
}
