package storage

import (
	"shop-scraper/models"
	"shop-scraper/utils"
)

// DatasetWriter is the interface any mirror of the snapshot must satisfy.
// Each Write replaces what the previous run stored.
type DatasetWriter interface {
	Name() string
	Write(ds *models.Dataset) error
	Close() error
}

// MultiWriter fans a dataset out to several mirrors. A failing mirror is
// logged and does not stop the others.
type MultiWriter struct {
	writers []DatasetWriter
	logger  *utils.Logger
}

// NewMultiWriter creates a writer over the given mirrors.
func NewMultiWriter(logger *utils.Logger, writers ...DatasetWriter) *MultiWriter {
	return &MultiWriter{writers: writers, logger: logger}
}

func (m *MultiWriter) Name() string { return "multi" }

// Len returns the number of mirrors.
func (m *MultiWriter) Len() int { return len(m.writers) }

func (m *MultiWriter) Write(ds *models.Dataset) error {
	var firstErr error
	for _, w := range m.writers {
		if err := w.Write(ds); err != nil {
			m.logger.Error("[storage] %s write failed: %v", w.Name(), err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		m.logger.Info("[storage] %s mirror updated", w.Name())
	}
	return firstErr
}

func (m *MultiWriter) Close() error {
	var firstErr error
	for _, w := range m.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
