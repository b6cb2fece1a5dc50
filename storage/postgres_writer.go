package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"shop-scraper/models"
)

// PostgresWriter mirrors a dataset into three PostgreSQL tables.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 5; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS products (
			position INTEGER PRIMARY KEY,
			title    TEXT    UNIQUE NOT NULL,
			price    TEXT    NOT NULL DEFAULT 'N/A'
		);

		CREATE TABLE IF NOT EXISTS testimonials (
			position INTEGER  PRIMARY KEY,
			text     TEXT     NOT NULL,
			rating   SMALLINT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS reviews (
			position        INTEGER  PRIMARY KEY,
			date_line       TEXT     NOT NULL,
			text            TEXT     NOT NULL,
			rating          SMALLINT NOT NULL,
			sentiment_label TEXT,
			confidence      NUMERIC(6,5)
		);

		CREATE INDEX IF NOT EXISTS idx_reviews_rating    ON reviews(rating);
		CREATE INDEX IF NOT EXISTS idx_reviews_sentiment ON reviews(sentiment_label);
	`)
	return err
}

func (pw *PostgresWriter) Name() string { return "postgres" }

// Write replaces the contents of all three tables inside one transaction.
func (pw *PostgresWriter) Write(ds *models.Dataset) error {
	tx, err := pw.db.Begin()
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("TRUNCATE products, testimonials, reviews"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	products := make([][]any, len(ds.Products))
	for i, p := range ds.Products {
		products[i] = []any{i, p.Title, p.Price}
	}
	testimonials := make([][]any, len(ds.Testimonials))
	for i, t := range ds.Testimonials {
		testimonials[i] = []any{i, t.Text, t.Rating}
	}
	reviews := make([][]any, len(ds.Reviews))
	for i, r := range ds.Reviews {
		var label, conf any
		if r.Enriched() {
			label, conf = string(r.SentimentLabel), r.Confidence
		}
		reviews[i] = []any{i, r.Date, r.Text, r.Rating, label, conf}
	}

	inserts := []struct {
		table string
		cols  []string
		rows  [][]any
	}{
		{"products", []string{"position", "title", "price"}, products},
		{"testimonials", []string{"position", "text", "rating"}, testimonials},
		{"reviews", []string{"position", "date_line", "text", "rating", "sentiment_label", "confidence"}, reviews},
	}

	const batchSize = 50
	for _, in := range inserts {
		for i := 0; i < len(in.rows); i += batchSize {
			end := i + batchSize
			if end > len(in.rows) {
				end = len(in.rows)
			}
			query, args := buildInsert(in.table, in.cols, in.rows[i:end])
			if _, err := tx.Exec(query, args...); err != nil {
				return fmt.Errorf("postgres: insert %s: %w", in.table, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// buildInsert renders a multi-row INSERT with numbered placeholders.
func buildInsert(table string, cols []string, rows [][]any) (string, []any) {
	valueStrings := make([]string, 0, len(rows))
	valueArgs := make([]any, 0, len(rows)*len(cols))

	n := 1
	for _, row := range rows {
		ph := make([]string, len(row))
		for j := range row {
			ph[j] = fmt.Sprintf("$%d", n)
			n++
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")
		valueArgs = append(valueArgs, row...)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		table, strings.Join(cols, ", "), strings.Join(valueStrings, ","))
	return query, valueArgs
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
