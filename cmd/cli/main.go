package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericwooz/yt-fetch-go/internal/app"
	"github.com/ericwooz/yt-fetch-go/internal/domain"
	"github.com/ericwooz/yt-fetch-go/internal/infrastructure"
	"github.com/ericwooz/yt-fetch-go/pkg/logger"
)

const version = "1.0.0"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "ytfetch",
		Short: "yt-fetch command line tools",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	rootCmd.AddCommand(infoCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <url>",
		Short: "Print the stream catalog for a URL as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := args[0]
			if domain.ExtractVideoID(url) == "" {
				return fmt.Errorf("invalid URL format")
			}

			config, err := app.LoadConfig(configPath)
			if err != nil {
				return err
			}

			log := logger.NewDefault()
			defer log.Sync()

			engine := infrastructure.NewYTDLPClient(config.Download.YTDLPBinary, log)
			catalog := app.NewCatalogService(engine, &config.Download, log)

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			info, err := catalog.Build(ctx, url)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("ytfetch", version)
		},
	}
}
