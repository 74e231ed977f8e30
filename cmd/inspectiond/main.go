package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/crimow28-boop/ins-radiolab/config"
)

var logger = log.New(os.Stdout, "inspection-backend ", log.LstdFlags)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "inspectiond",
		Short:         "Radio device inspection backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultPath := os.Getenv("CONFIG_PATH")
	if defaultPath == "" {
		defaultPath = "./config/config.yaml" // Default path for local development
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultPath, "Config file path (YAML)")

	load := func() *config.Config {
		cfg, err := config.Load(configPath)
		if err != nil {
			logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
		}
		logger.Printf("configuration loaded successfully from %s", configPath)
		return cfg
	}

	cmd.AddCommand(serveCmd(load), migrateCmd(load), exportCmd(load))
	return cmd
}
