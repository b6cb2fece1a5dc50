package storage

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"shop-scraper/models"
	"shop-scraper/utils"
)

func TestCSVWriterReviews(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "reviews.csv")
	w, err := NewCSVWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(sampleDataset()))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"date", "rating", "sentiment_label", "confidence", "text"},
		{"2024-02-01", "5", "POSITIVE", "0.9900", "Tasty & <fresh>"},
		{"2023-12-24", "2", "", "", "Not for me"},
	}, rows)
}

func TestBuildInsert(t *testing.T) {
	query, args := buildInsert("products", []string{"position", "title", "price"}, [][]any{
		{0, "A", "$1.00"},
		{1, "B", "N/A"},
	})

	require.Equal(t,
		"INSERT INTO products (position, title, price) VALUES ($1,$2,$3),($4,$5,$6)",
		query)
	require.Equal(t, []any{0, "A", "$1.00", 1, "B", "N/A"}, args)
}

func TestMongoDocuments(t *testing.T) {
	docs := mongoDocuments(sampleDataset())

	require.Len(t, docs["products"], 2)
	require.Len(t, docs["testimonials"], 1)
	require.Len(t, docs["reviews"], 2)

	enriched := docs["reviews"][0].(bson.D)
	require.Len(t, enriched, 6)
	raw := docs["reviews"][1].(bson.D)
	require.Len(t, raw, 4, "un-enriched reviews carry no sentiment fields")
	require.Equal(t, bson.E{Key: "position", Value: 1}, raw[0])
}

type stubWriter struct {
	name   string
	err    error
	writes int
	closed bool
}

func (s *stubWriter) Name() string { return s.name }

func (s *stubWriter) Write(*models.Dataset) error {
	s.writes++
	return s.err
}

func (s *stubWriter) Close() error {
	s.closed = true
	return nil
}

func TestMultiWriterContinuesPastFailure(t *testing.T) {
	boom := errors.New("boom")
	a := &stubWriter{name: "a", err: boom}
	b := &stubWriter{name: "b"}

	m := NewMultiWriter(utils.NewDiscardLogger(), a, b)
	require.Equal(t, 2, m.Len())

	err := m.Write(sampleDataset())
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, b.writes, "second mirror must still be written")

	require.NoError(t, m.Close())
	require.True(t, a.closed && b.closed)
}
