package storage

import (
	"fmt"
	"log/slog"
)

type StorageType string

const (
	CSVStorageType     StorageType = "csv"
	ParquetStorageType StorageType = "parquet"
	HybridStorageType  StorageType = "hybrid"
)

type StorageConfig struct {
	Type      StorageType
	Dir       string // table directory
	MirrorDir string // Parquet mirror directory, hybrid only
	Logger    *slog.Logger
}

// NewStorage creates a new storage instance based on the provided configuration
func NewStorage(config StorageConfig) (Storage, error) {
	if config.Dir == "" {
		return nil, fmt.Errorf("data directory is required")
	}

	switch config.Type {
	case CSVStorageType, "":
		return NewCSVStorage(config.Dir), nil
	case ParquetStorageType:
		return NewParquetStorage(config.Dir), nil
	case HybridStorageType:
		if config.MirrorDir == "" {
			return nil, fmt.Errorf("mirror directory is required for hybrid storage")
		}
		return NewHybridStorage(NewCSVStorage(config.Dir), NewParquetStorage(config.MirrorDir), config.Logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}
}
