package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/basel-ax/museframe/internal/config"
	"github.com/basel-ax/museframe/internal/logger"
)

var (
	// Command line flags
	logLevel string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "museframe",
	Short: "Muses picture frame - shows the latest prompt and image from the muses API",
	Long: `museframe fetches a prompt/image pair from the muses entry endpoint, keeps an
archive of downloaded images and renders them to a frame file and a web page.
The image is refreshed at the top of every hour and when button B is pressed.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded

		// The flag wins over LOG_LEVEL when given explicitly
		level := cfg.LogLevel
		if cmd.Flags().Changed("log-level") {
			level = logLevel
		}
		logger.Init(level)
		logger.Sugar().Debugf("Log level set to: %s", level)

		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		// Default behavior when no subcommands are provided
		cmd.Help()
	},
}

// Execute runs the root command and handles errors
func Execute() error {
	// Subcommands are added in their respective init() functions
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Set the logging level (debug, info, warn, error, dpanic, panic, fatal)")
}
