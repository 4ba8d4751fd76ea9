package commands

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"

	"songlist-downloader/internal/shared"
)

// NewSongListCommand creates the command that builds a track list from a
// published song list.
func NewSongListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "songlist [disstid]",
		Short: "Write the tracks of a published song list to the track list file.",
		Args:  cobra.ExactArgs(1),
		RunE:  runSongListCommand,
	}

	cmd.Flags().StringP("input", "i", "list.json", "Track list file to write")
	cmd.Flags().Bool("raw", false, "Write the unmodified song list response instead of the track list")

	return cmd
}

func runSongListCommand(cmd *cobra.Command, args []string) error {
	cfg, serviceContainer, err := initConfigAndServices(cmd)
	if err != nil {
		return err
	}
	disstid := args[0]
	raw, _ := cmd.Flags().GetBool("raw")

	var saved int
	fetch := func(ctx context.Context) error {
		if raw {
			if err := serviceContainer.TrackSource.SaveRawSongList(ctx, disstid, cfg.InputPath); err != nil {
				return fmt.Errorf("failed to fetch song list: %w", err)
			}
			return nil
		}

		tracks, err := serviceContainer.TrackSource.FetchSongList(ctx, disstid)
		if err != nil {
			return fmt.Errorf("failed to fetch song list: %w", err)
		}
		if err := serviceContainer.TrackSource.Save(cfg.InputPath, tracks); err != nil {
			return fmt.Errorf("failed to write track list: %w", err)
		}
		saved = len(tracks)
		return nil
	}

	if shared.IsTTY() {
		err = spinner.New().Title(fmt.Sprintf("Fetching song list %s...", disstid)).Context(cmd.Context()).ActionWithErr(fetch).Run()
	} else {
		serviceContainer.Logger.Info("🔍 Fetching song list %s", disstid)
		err = fetch(cmd.Context())
	}
	if err != nil {
		return err
	}

	if raw {
		serviceContainer.Logger.Success("Raw song list saved to %s", cfg.InputPath)
	} else {
		serviceContainer.Logger.Success("Saved %d tracks to %s", saved, cfg.InputPath)
	}
	return nil
}
