package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"shop-scraper/models"
)

var (
	// ErrSnapshotNotFound is returned when no scrape run has produced a
	// snapshot at the requested path yet.
	ErrSnapshotNotFound = errors.New("snapshot not found")
	// ErrInvalidSnapshot is returned for a snapshot that does not decode or
	// breaks the dataset schema.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// WriteSnapshot serialises ds as indented UTF-8 JSON. The file is written to a
// temporary sibling and renamed into place, so readers never see a partial
// snapshot.
func WriteSnapshot(path string, ds *models.Dataset) error {
	if ds == nil {
		ds = models.NewDataset()
	}
	out := normalise(*ds)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("snapshot: create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("snapshot: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(&out); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("snapshot: rename into place: %w", err)
	}
	return nil
}

// ReadSnapshot loads a snapshot written by WriteSnapshot. Review bodies are
// always read from "text"; a review without one is rejected rather than
// guessed from another field.
func ReadSnapshot(path string) (*models.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSnapshotNotFound, path)
		}
		return nil, fmt.Errorf("snapshot: read %s: %w", path, err)
	}

	var ds models.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSnapshot, path, err)
	}
	for i, r := range ds.Reviews {
		if strings.TrimSpace(r.Text) == "" {
			return nil, fmt.Errorf("%w: review %d has no text", ErrInvalidSnapshot, i)
		}
	}

	out := normalise(ds)
	return &out, nil
}

// normalise replaces nil collections with empty ones so they encode as [].
func normalise(ds models.Dataset) models.Dataset {
	if ds.Products == nil {
		ds.Products = []models.Product{}
	}
	if ds.Reviews == nil {
		ds.Reviews = []models.Review{}
	}
	if ds.Testimonials == nil {
		ds.Testimonials = []models.Testimonial{}
	}
	return ds
}
