package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"songlist-downloader/internal/interfaces"
	"songlist-downloader/internal/services"
	"songlist-downloader/internal/shared"
)

// NewConfigCommand creates the config command group
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file.",
	}
	cmd.AddCommand(newConfigInitCommand())
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default settings.",
		Args:  cobra.NoArgs,
		RunE:  runConfigInitCommand,
	}
	cmd.Flags().Bool("force", false, "Overwrite an existing configuration file")
	return cmd
}

func runConfigInitCommand(cmd *cobra.Command, args []string) error {
	shared.InitializeColors()
	configFile, _ := cmd.Flags().GetString("config")
	force, _ := cmd.Flags().GetBool("force")

	var configs interfaces.ConfigService = services.NewConfigService()
	if force {
		if err := configs.SaveConfig(configFile, configs.GetDefaultConfig()); err != nil {
			return err
		}
		shared.ColorSuccess.Printf("✅ Configuration written to %s\n", configFile)
		return nil
	}

	if shared.FileExists(configFile) {
		if _, err := configs.LoadConfig(configFile); err != nil {
			return fmt.Errorf("existing configuration is unreadable: %w", err)
		}
		shared.ColorInfo.Printf("Configuration already exists at %s (use --force to overwrite)\n", configFile)
		return nil
	}
	if err := configs.EnsureConfigExists(configFile); err != nil {
		return err
	}
	shared.ColorSuccess.Printf("✅ Configuration written to %s\n", configFile)
	return nil
}
