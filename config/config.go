package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	BaseURL    string `envconfig:"BASE_URL" default:"https://web-scraping.dev"`
	StartPage  int    `envconfig:"START_PAGE" default:"1"`
	CutoffYear int    `envconfig:"CUTOFF_YEAR" default:"2023"`

	// Fixed waits between browser actions.
	PageSettle      time.Duration `envconfig:"PAGE_SETTLE" default:"1s"`
	ScrollSettle    time.Duration `envconfig:"SCROLL_SETTLE" default:"3s"`
	LoadMoreTimeout time.Duration `envconfig:"LOAD_MORE_TIMEOUT" default:"10s"`
	PollInterval    time.Duration `envconfig:"POLL_INTERVAL" default:"250ms"`

	NavigationTimeout time.Duration `envconfig:"NAVIGATION_TIMEOUT" default:"60s"`
	NavigationDelay   time.Duration `envconfig:"NAVIGATION_DELAY" default:"1s"`
	MaxNavAttempts    int           `envconfig:"MAX_NAV_ATTEMPTS" default:"1"`
	ParallelPhases    bool          `envconfig:"PARALLEL_PHASES" default:"false"`

	ChromeBin string `envconfig:"CHROME_BIN"`
	Headless  bool   `envconfig:"HEADLESS" default:"true"`

	SnapshotPath   string `envconfig:"SNAPSHOT_PATH" default:"scraped_data.json"`
	ReviewsCSVPath string `envconfig:"REVIEWS_CSV_PATH"`
	WordCloudDir   string `envconfig:"WORDCLOUD_DIR" default:"wc_images"`

	// SentimentProvider is one of "huggingface", "lexicon" or "none".
	SentimentProvider    string        `envconfig:"SENTIMENT_PROVIDER" default:"huggingface"`
	SentimentEndpoint    string        `envconfig:"SENTIMENT_ENDPOINT" default:"https://api-inference.huggingface.co/models/distilbert-base-uncased-finetuned-sst-2-english"`
	SentimentToken       string        `envconfig:"SENTIMENT_TOKEN"`
	SentimentBatchSize   int           `envconfig:"SENTIMENT_BATCH_SIZE" default:"16"`
	SentimentConcurrency int           `envconfig:"SENTIMENT_CONCURRENCY" default:"2"`
	SentimentRateLimit   time.Duration `envconfig:"SENTIMENT_RATE_LIMIT" default:"0s"`
	SentimentMaxChars    int           `envconfig:"SENTIMENT_MAX_CHARS" default:"512"`
	SentimentTimeout     time.Duration `envconfig:"SENTIMENT_TIMEOUT" default:"60s"`

	PostgresDSN   string `envconfig:"POSTGRES_DSN"`
	MongoURI      string `envconfig:"MONGO_URI"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"shop_scraper"`

	MetricsAddr string `envconfig:"METRICS_ADDR"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads the .env file (if any) and returns a validated Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if _, statErr := os.Stat(".env"); statErr == nil {
			log.Printf("[config] .env file found but could not be loaded: %v", err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges that envconfig cannot express.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("config: BASE_URL must not be empty")
	}
	if c.StartPage < 1 {
		return fmt.Errorf("config: START_PAGE must be >= 1, got %d", c.StartPage)
	}
	if c.CutoffYear < 2000 || c.CutoffYear > 2099 {
		return fmt.Errorf("config: CUTOFF_YEAR must be a year in the 2000s, got %d", c.CutoffYear)
	}
	if c.MaxNavAttempts < 1 {
		return fmt.Errorf("config: MAX_NAV_ATTEMPTS must be >= 1, got %d", c.MaxNavAttempts)
	}
	if c.SentimentBatchSize < 1 || c.SentimentConcurrency < 1 {
		return fmt.Errorf("config: sentiment batch size and concurrency must be >= 1")
	}
	if c.SentimentMaxChars < 1 {
		return fmt.Errorf("config: SENTIMENT_MAX_CHARS must be >= 1, got %d", c.SentimentMaxChars)
	}
	switch c.SentimentProvider {
	case "huggingface", "lexicon", "none":
	default:
		return fmt.Errorf("config: unknown SENTIMENT_PROVIDER %q", c.SentimentProvider)
	}
	return nil
}

// URL joins a site-relative path onto BaseURL.
func (c *Config) URL(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
