// Command roster harvests player listings and extracts profile records into CSV.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/baxromumarov/roster-scraper/internal/config"
)

var (
	debug       bool
	fetcherKind string
	cfg         config.Config

	rootCmd = &cobra.Command{
		Use:           "roster",
		Short:         "Harvest and extract player profiles",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if debug {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			loaded, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if fetcherKind != "" {
				loaded.Scrape.Fetcher = fetcherKind
				if err := loaded.Validate(); err != nil {
					return err
				}
			}
			cfg = loaded
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&fetcherKind, "fetcher", "", "fetcher implementation: colly or http")

	rootCmd.AddCommand(harvestCmd(), filterNamesCmd(), enrichCmd(), runCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
