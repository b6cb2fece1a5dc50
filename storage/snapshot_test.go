package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"shop-scraper/models"
)

func sampleDataset() *models.Dataset {
	return &models.Dataset{
		Products: []models.Product{
			{Title: "Box of Chocolate Candy", Price: "$24.99"},
			{Title: "Gift Card", Price: "N/A"},
		},
		Reviews: []models.Review{
			{Date: "2024-02-01", Text: "Tasty & <fresh>", Rating: 5, SentimentLabel: models.Positive, Confidence: 0.99},
			{Date: "2023-12-24", Text: "Not for me", Rating: 2},
		},
		Testimonials: []models.Testimonial{
			{Text: "Great shop, would order again", Rating: 4},
		},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "scraped_data.json")
	want := sampleDataset()

	require.NoError(t, WriteSnapshot(path, want))

	got, err := ReadSnapshot(path)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraped_data.json")
	require.NoError(t, WriteSnapshot(path, sampleDataset()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	s := string(raw)

	require.Contains(t, s, "\n    \"products\": [")
	require.Contains(t, s, "Tasty & <fresh>", "HTML characters must not be escaped")
	require.NotContains(t, s, `"content"`)
	// The un-enriched review omits the sentiment fields.
	require.Equal(t, 1, strings.Count(s, "sentiment_label"))
}

func TestSnapshotEmptyDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, WriteSnapshot(path, &models.Dataset{}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"reviews": []`)

	got, err := ReadSnapshot(path)
	require.NoError(t, err)
	require.NotNil(t, got.Products)
	require.Empty(t, got.Reviews)
}

func TestReadSnapshotMissing(t *testing.T) {
	_, err := ReadSnapshot(filepath.Join(t.TempDir(), "nope.json"))
	require.True(t, errors.Is(err, ErrSnapshotNotFound), "got %v", err)
}

func TestReadSnapshotRejectsLegacyBodyField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.json")
	legacy := `{"products":[],"testimonials":[],"reviews":[{"date":"2024","content":"old schema","rating":5}]}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	_, err := ReadSnapshot(path)
	require.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestReadSnapshotGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := ReadSnapshot(path)
	require.ErrorIs(t, err, ErrInvalidSnapshot)
}
