package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"shop-scraper/config"
	"shop-scraper/models"
	"shop-scraper/scraper"
	"shop-scraper/scraper/webscrapingdev"
	"shop-scraper/services"
	"shop-scraper/storage"
	"shop-scraper/utils"
)

// setup loads configuration and builds the logger every command shares.
func setup() (*config.Config, *utils.Logger, error) {
	logger := utils.NewLogger()
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Invalid configuration: %v", err)
		return nil, nil, err
	}
	logger.SetLevel(utils.ParseLevel(cfg.LogLevel))
	return cfg, logger, nil
}

func scrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Run a full scrape and write the snapshot (default command)",
		Args:  cobra.NoArgs,
		RunE:  runScrape,
	}
}

func runScrape(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	logger.Info("=== Shop Scraping System starting ===")
	logger.Info("Config — target: %s | cutoff: %d | parallel phases: %v | sentiment: %s",
		cfg.BaseURL, cfg.CutoffYear, cfg.ParallelPhases, cfg.SentimentProvider)

	metrics := utils.NewMetrics()
	if cfg.MetricsAddr != "" {
		metrics.Serve(cfg.MetricsAddr, logger)
	}

	browser, err := scraper.NewBrowser(cfg, logger)
	if err != nil {
		logger.Error("Failed to start the browser: %v", err)
		return err
	}
	defer browser.Close()

	ds, err := webscrapingdev.New(cfg, browser, logger, metrics).Scrape(ctx)
	if err != nil {
		logger.Error("Scrape aborted: %v", err)
		return err
	}

	ds.Reviews = enrichOrKeep(ctx, cfg, ds.Reviews, logger, metrics)

	if err := storage.WriteSnapshot(cfg.SnapshotPath, ds); err != nil {
		logger.Error("Snapshot write failed: %v", err)
		return err
	}
	logger.Info("Snapshot saved to %s", cfg.SnapshotPath)

	writeMirrors(cfg, ds, logger)
	writeWordClouds(cfg, ds.Reviews, logger)

	insights := services.NewInsightService(logger)
	insights.Print(os.Stdout, insights.Generate(ds))

	fmt.Printf("  Done. Snapshot → %s | Word clouds → %s\n\n", cfg.SnapshotPath, cfg.WordCloudDir)
	return nil
}

// enrichOrKeep labels reviews with the configured classifier. On failure the
// raw reviews are kept and the error is only reported.
func enrichOrKeep(ctx context.Context, cfg *config.Config, reviews []models.Review, logger *utils.Logger, metrics *utils.Metrics) []models.Review {
	classifier := services.NewClassifier(cfg)
	if classifier == nil {
		logger.Info("[enrich] Sentiment provider disabled — keeping raw reviews")
		return reviews
	}

	start := time.Now()
	enriched, err := services.NewEnricher(cfg, classifier, logger, metrics).Enrich(ctx, reviews)
	metrics.ObservePhase("enrich", time.Since(start))
	if err != nil {
		logger.Error("[enrich] Sentiment enrichment failed, keeping %d raw reviews: %v", len(reviews), err)
		return reviews
	}
	return enriched
}

// writeMirrors copies the dataset to every configured secondary store.
// Mirror failures never fail the run.
func writeMirrors(cfg *config.Config, ds *models.Dataset, logger *utils.Logger) {
	var writers []storage.DatasetWriter

	if cfg.ReviewsCSVPath != "" {
		if w, err := storage.NewCSVWriter(cfg.ReviewsCSVPath); err != nil {
			logger.Error("Failed to create CSV writer: %v", err)
		} else {
			writers = append(writers, w)
		}
	}
	if cfg.PostgresDSN != "" {
		if w, err := storage.NewPostgresWriter(cfg.PostgresDSN); err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
		} else {
			writers = append(writers, w)
		}
	}
	if cfg.MongoURI != "" {
		if w, err := storage.NewMongoWriter(cfg.MongoURI, cfg.MongoDatabase); err != nil {
			logger.Error("Failed to connect to MongoDB: %v", err)
		} else {
			writers = append(writers, w)
		}
	}

	if len(writers) == 0 {
		return
	}
	multi := storage.NewMultiWriter(logger, writers...)
	defer multi.Close()
	_ = multi.Write(ds)
}

func writeWordClouds(cfg *config.Config, reviews []models.Review, logger *utils.Logger) {
	paths, err := services.NewWordCloud(logger).Generate(reviews, cfg.WordCloudDir)
	if err != nil {
		logger.Warn("[wordcloud] Generation failed: %v", err)
		return
	}
	logger.Info("[wordcloud] %d image(s) written to %s", len(paths), cfg.WordCloudDir)
}

// loadSnapshot reads the configured snapshot, turning a missing file into a
// message that tells the user how to create one.
func loadSnapshot(cfg *config.Config, logger *utils.Logger) (*models.Dataset, error) {
	ds, err := storage.ReadSnapshot(cfg.SnapshotPath)
	if errors.Is(err, storage.ErrSnapshotNotFound) {
		logger.Error("No snapshot at %s — run `shop-scraper scrape` first", cfg.SnapshotPath)
		return nil, err
	}
	if err != nil {
		logger.Error("Could not load snapshot: %v", err)
		return nil, err
	}
	return ds, nil
}

func enrichCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enrich",
		Short: "Label the reviews of an existing snapshot and rewrite it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			ds, err := loadSnapshot(cfg, logger)
			if err != nil {
				return err
			}

			classifier := services.NewClassifier(cfg)
			if classifier == nil {
				return fmt.Errorf("enrich: SENTIMENT_PROVIDER is %q", cfg.SentimentProvider)
			}
			enriched, err := services.NewEnricher(cfg, classifier, logger, nil).Enrich(cmd.Context(), ds.Reviews)
			if err != nil {
				logger.Error("[enrich] %v", err)
				return err
			}
			ds.Reviews = enriched

			if err := storage.WriteSnapshot(cfg.SnapshotPath, ds); err != nil {
				return err
			}
			logger.Info("[enrich] %d reviews labelled, snapshot rewritten", len(enriched))
			return nil
		},
	}
}

func wordcloudCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wordcloud",
		Short: "Render one word-cloud PNG per review month from the snapshot",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			ds, err := loadSnapshot(cfg, logger)
			if err != nil {
				return err
			}
			paths, err := services.NewWordCloud(logger).Generate(ds.Reviews, cfg.WordCloudDir)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Println(p)
			}
			return nil
		},
	}
}

type reportOptions struct {
	rating  int
	month   string
	year    int
	analyze bool
}

func reportCmd() *cobra.Command {
	var opts reportOptions

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print products, testimonials and reviews from the snapshot",
		Long: `Print the snapshot as terminal tables.

Testimonials can be narrowed with --rating. Reviews are shown for one year
(default: the cutoff year) and optionally one month, with the sentiment
distribution of the selection. --analyze labels unlabelled reviews on the fly;
if that fails the error is printed along with the raw table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReport(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVar(&opts.rating, "rating", 0, "only testimonials with this many stars (1-5)")
	cmd.Flags().StringVar(&opts.month, "month", "", "only reviews from this month (name or 1-12)")
	cmd.Flags().IntVar(&opts.year, "year", 0, "year of reviews to show (default: CUTOFF_YEAR)")
	cmd.Flags().BoolVar(&opts.analyze, "analyze", false, "run sentiment analysis on unlabelled reviews")

	return cmd
}

func runReport(ctx context.Context, opts reportOptions) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if opts.rating < 0 || opts.rating > 5 {
		return fmt.Errorf("report: --rating must be between 1 and 5")
	}
	month, err := parseMonth(opts.month)
	if err != nil {
		return err
	}
	year := opts.year
	if year == 0 {
		year = cfg.CutoffYear
	}

	ds, err := loadSnapshot(cfg, logger)
	if err != nil {
		return err
	}

	svc := services.NewInsightService(logger)
	out := os.Stdout

	fmt.Fprintf(out, "\n\033[1;33m  Products\033[0m\n")
	svc.ProductsTable(out, ds.Products).Render()

	fmt.Fprintf(out, "\n\033[1;33m  Testimonials\033[0m\n")
	if len(services.FilterTestimonials(ds.Testimonials, opts.rating)) == 0 {
		fmt.Fprintf(out, "  No testimonials with %d star(s)\n", opts.rating)
	} else {
		svc.TestimonialsTable(out, ds.Testimonials, opts.rating).Render()
	}

	reviews := services.FilterReviews(ds.Reviews, year, month)
	label := strconv.Itoa(year)
	if month != 0 {
		label = month.String() + " " + label
	}
	fmt.Fprintf(out, "\n\033[1;33m  Reviews — %s (%d)\033[0m\n", label, len(reviews))
	if len(reviews) == 0 {
		fmt.Fprintf(out, "  No reviews for %s\n", label)
		return nil
	}

	if opts.analyze && !allEnriched(reviews) {
		classifier := services.NewClassifier(cfg)
		if classifier == nil {
			classifier = services.LexiconClassifier{}
		}
		enriched, err := services.NewEnricher(cfg, classifier, logger, nil).Enrich(ctx, reviews)
		if err != nil {
			fmt.Fprintf(out, "  \033[1;31mSentiment analysis failed: %v\033[0m\n", err)
			svc.ReviewsTable(out, reviews).Render()
			return nil
		}
		reviews = enriched
	}

	if stats := services.SentimentStats(reviews); len(stats) > 0 {
		svc.SentimentTable(out, stats).Render()
	}
	svc.ReviewsTable(out, reviews).Render()
	return nil
}

func allEnriched(reviews []models.Review) bool {
	for _, r := range reviews {
		if !r.Enriched() {
			return false
		}
	}
	return true
}

// parseMonth accepts "", a month name or abbreviation, or a number 1-12.
func parseMonth(s string) (time.Month, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("report: month %d out of range", n)
		}
		return time.Month(n), nil
	}
	lower := strings.ToLower(s)
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if lower == name || (len(lower) >= 3 && strings.HasPrefix(name, lower)) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("report: unknown month %q", s)
}
