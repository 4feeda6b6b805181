package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mizu-20/statify/internal/config"
	"github.com/Mizu-20/statify/internal/logger"
)

var (
	// Global flags
	port          string
	storageDriver string
)

var rootCmd = &cobra.Command{
	Use:   "statify",
	Short: "Statify - listening stats with friends and mood posts",
	Long: `Statify serves the social API behind the Statify web app: Spotify
login, listening stats, friend requests, friendships and mood posts, plus a
websocket for live updates.

Running without a subcommand starts the server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&port, "port", "", "HTTP port (overrides SERVER_PORT)")
	rootCmd.PersistentFlags().StringVar(&storageDriver, "storage", "", "Storage driver: memory or postgres (overrides STORAGE_DRIVER)")
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfigWith(func(c *config.Config) {
		if port != "" {
			c.ServerPort = port
		}
		if storageDriver != "" {
			c.StorageDriver = storageDriver
		}
	})
	if err != nil {
		return nil, nil, err
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	return cfg, log, nil
}
