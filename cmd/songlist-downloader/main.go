package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"songlist-downloader/cmd/songlist-downloader/commands"
	"songlist-downloader/internal/config"
	"songlist-downloader/internal/shared"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "songlist-downloader",
		Version: commands.Version,
		Short:   "Download every track of a song list and convert it to your preferred format.",
		Long: fmt.Sprintf(`Songlist Downloader (v%s)

Reads a track list of {songname, songmid} entries, resolves each track to a
direct media link, downloads it with bounded parallelism and converts it
with ffmpeg. Use the songlist command to build the track list from a
published song list.`, commands.Version),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", config.DefaultConfigFile, "Path to the JSON configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(commands.NewDownloadCommand())
	rootCmd.AddCommand(commands.NewSongListCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		shared.ColorError.Printf("❌ %v\n", err)
		stop()
		os.Exit(1)
	}
}
