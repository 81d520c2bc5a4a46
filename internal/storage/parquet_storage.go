package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"
)

const (
	parquetExt = ".parquet"

	kindHeader = "header"
	kindRow    = "row"
)

// ParquetRow is the on-disk record of a table in Parquet form. The first
// record of a file carries the column names, every later one a row; fields
// are stored as a JSON array so arbitrary values round-trip.
type ParquetRow struct {
	TableName string `parquet:"name=table_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	Kind      string `parquet:"name=kind, type=BYTE_ARRAY, convertedtype=UTF8"`
	DataJSON  string `parquet:"name=data_json, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// ParquetStorage keeps one <table>.parquet file per table. Unlike the CSV
// format it survives commas and line breaks inside values.
type ParquetStorage struct {
	baseDir string
}

// NewParquetStorage creates a new Parquet storage
func NewParquetStorage(dataDir string) *ParquetStorage {
	return &ParquetStorage{baseDir: dataDir}
}

// Path returns the file backing the named table.
func (s *ParquetStorage) Path(table string) string {
	return filepath.Join(s.baseDir, table+parquetExt)
}

// Save implements Storage.Save
func (s *ParquetStorage) Save(t *Table) error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return &PersistenceError{Op: "save", Path: s.baseDir, Err: err}
	}
	path := s.Path(t.Name)
	if err := writeParquetFile(path, t); err != nil {
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}
	return nil
}

func writeParquetFile(path string, t *Table) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(ParquetRow), 4)
	if err != nil {
		return err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	write := func(kind string, fields []string) error {
		data, err := json.Marshal(fields)
		if err != nil {
			return err
		}
		return pw.Write(&ParquetRow{TableName: t.Name, Kind: kind, DataJSON: string(data)})
	}

	if err := write(kindHeader, t.Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := write(kindRow, row); err != nil {
			return err
		}
	}

	// Flush and close writer
	return pw.WriteStop()
}

// Load implements Storage.Load, reading every *.parquet file in name order.
func (s *ParquetStorage) Load() ([]*Table, error) {
	matches, err := filepath.Glob(filepath.Join(s.baseDir, "*"+parquetExt))
	if err != nil {
		return nil, &PersistenceError{Op: "load", Path: s.baseDir, Err: err}
	}
	sort.Strings(matches)

	var tables []*Table
	for _, path := range matches {
		name := strings.TrimSuffix(filepath.Base(path), parquetExt)
		t, err := s.ReadTable(name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// ReadTable reads one table back from its Parquet file.
func (s *ParquetStorage) ReadTable(name string) (*Table, error) {
	path := s.Path(name)
	t, err := readParquetFile(path, name)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Path: path, Err: err}
	}
	return t, nil
}

func readParquetFile(path, name string) (*Table, error) {
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, err
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(ParquetRow), 4)
	if err != nil {
		return nil, fmt.Errorf("failed to create Parquet reader: %w", err)
	}
	defer pr.ReadStop()

	numRows := int(pr.GetNumRows())
	records := make([]ParquetRow, numRows)
	if numRows > 0 {
		if err := pr.Read(&records); err != nil {
			return nil, fmt.Errorf("failed to read Parquet rows: %w", err)
		}
	}

	var table *Table
	for i, rec := range records {
		var fields []string
		if err := json.Unmarshal([]byte(rec.DataJSON), &fields); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		switch {
		case rec.Kind == kindHeader && table == nil:
			table, err = NewTable(name, fields)
			if err != nil {
				return nil, fmt.Errorf("header: %w", err)
			}
		case rec.Kind == kindRow && table != nil:
			if err := table.Insert(fields); err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
		default:
			return nil, fmt.Errorf("record %d: unexpected %s record", i, rec.Kind)
		}
	}
	if table == nil {
		return nil, errors.New("missing header record")
	}
	return table, nil
}

// Close implements Storage.Close
func (s *ParquetStorage) Close() error {
	return nil
}
