// Package main is the entry point for the snapvec CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/snapvec/snapvec/internal/config"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapvec",
		Short: "Snapvec similarity search server",
		Long:  `Snapvec maintains embedding vectors for media gallery entities and serves semantic search with keyword and tag fallback.`,
	}

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(embedCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from .env file and environment variables.
func loadConfig(envFile string) (config.AppConfig, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
