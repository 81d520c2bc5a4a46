package storage

import (
	"errors"
	"log/slog"
)

// HybridStorage writes every table to a primary store and mirrors it to a
// secondary one. Only the primary is authoritative: tables load from it, and
// its errors are returned. Mirror failures are logged and otherwise ignored.
type HybridStorage struct {
	// primary holds the compatibility format (CSV files).
	primary Storage

	// mirror receives a copy after every successful primary save, typically
	// Parquet files for columnar tooling.
	mirror Storage

	logger *slog.Logger
}

// NewHybridStorage pairs a primary store with a best-effort mirror.
func NewHybridStorage(primary, mirror Storage, logger *slog.Logger) *HybridStorage {
	if logger == nil {
		logger = slog.Default()
	}
	return &HybridStorage{primary: primary, mirror: mirror, logger: logger}
}

// Load implements Storage.Load from the primary store.
func (s *HybridStorage) Load() ([]*Table, error) {
	return s.primary.Load()
}

// Save implements Storage.Save: primary first, then the mirror.
func (s *HybridStorage) Save(t *Table) error {
	if err := s.primary.Save(t); err != nil {
		return err
	}
	if err := s.mirror.Save(t); err != nil {
		s.logger.Warn("mirror save failed", "table", t.Name, "error", err)
	}
	return nil
}

// Sync copies every primary table to the mirror. Mirror errors are joined.
func (s *HybridStorage) Sync() error {
	tables, err := s.primary.Load()
	if err != nil {
		return err
	}
	var errs []error
	for _, t := range tables {
		if err := s.mirror.Save(t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close implements Storage.Close by closing both stores.
func (s *HybridStorage) Close() error {
	return errors.Join(s.primary.Close(), s.mirror.Close())
}
