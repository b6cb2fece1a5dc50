package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "shop-scraper",
		Short: "Scrape products, reviews and testimonials into a JSON snapshot",
		Long: `Drive a headless browser through web-scraping.dev, collect products,
reviews newer than the cutoff year and testimonials, label review sentiment
and write everything to one JSON snapshot.

Running without a subcommand performs a full scrape. Configuration comes from
the environment (or a .env file); see config/config.go for every variable.`,
		SilenceUsage: true,
		RunE:         runScrape,
	}

	root.AddCommand(scrapeCmd(), enrichCmd(), reportCmd(), wordcloudCmd())
	return root
}
