package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"shop-scraper/models"
)

// CSVWriter mirrors the reviews of a dataset into a CSV file for
// spreadsheet use. It is safe for concurrent use.
type CSVWriter struct {
	mu   sync.Mutex
	path string
}

// NewCSVWriter prepares a writer for path. Intermediate directories are
// created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}
	return &CSVWriter{path: path}, nil
}

func (c *CSVWriter) Name() string { return "csv" }

// Write truncates the file and writes one row per review in collection order.
func (c *CSVWriter) Write(ds *models.Dataset) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", c.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", "rating", "sentiment_label", "confidence", "text"}); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, r := range ds.Reviews {
		conf := ""
		if r.Enriched() {
			conf = strconv.FormatFloat(r.Confidence, 'f', 4, 64)
		}
		row := []string{
			r.Date,
			strconv.Itoa(r.Rating),
			string(r.SentimentLabel),
			conf,
			r.Text,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csv: flush: %w", err)
	}
	return f.Close()
}

// Close is a no-op; every Write opens and closes its own file.
func (c *CSVWriter) Close() error {
	return nil
}
