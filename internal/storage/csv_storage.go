package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zakazai/flatdb/internal/types"
)

const csvExt = ".csv"

// CSVStorage keeps one <table>.csv file per table in a directory. The first
// line holds the column names, every further line one row. Fields are joined
// with commas and never quoted or escaped, so a value containing a comma or a
// line break does not survive a round trip.
type CSVStorage struct {
	dir string
}

// NewCSVStorage creates a CSV storage rooted at dir. The directory is
// created on the first save.
func NewCSVStorage(dir string) *CSVStorage {
	return &CSVStorage{dir: dir}
}

// Path returns the file backing the named table.
func (s *CSVStorage) Path(table string) string {
	return filepath.Join(s.dir, table+csvExt)
}

// Load reads every *.csv file of the directory, in file name order. A
// missing directory yields no tables.
func (s *CSVStorage) Load() ([]*Table, error) {
	// os.ReadDir sorts entries by file name
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &PersistenceError{Op: "load", Path: s.dir, Err: err}
	}

	var tables []*Table
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !strings.HasSuffix(entry.Name(), csvExt) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), csvExt)
		if name == "" {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		table, err := readCSVFile(path, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func readCSVFile(path, name string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Path: path, Err: err}
	}
	defer f.Close()

	table, err := ReadCSV(f, name)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Path: path, Err: err}
	}
	return table, nil
}

// Save rewrites the table's file with its full current contents. There is no
// temporary file: a failure mid-write leaves a truncated file behind.
func (s *CSVStorage) Save(t *Table) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return &PersistenceError{Op: "save", Path: s.dir, Err: err}
	}

	path := s.Path(t.Name)
	f, err := os.Create(path)
	if err != nil {
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}
	if err := WriteCSV(f, t); err != nil {
		f.Close()
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}
	return nil
}

// Close implements Storage.Close
func (s *CSVStorage) Close() error {
	return nil
}

// WriteCSV writes the header line then one line per row.
func WriteCSV(w io.Writer, t *Table) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(strings.Join(t.Columns, ",") + "\n"); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if _, err := bw.WriteString(strings.Join(row, ",") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadCSV parses the format written by WriteCSV. A line whose field count
// differs from the header fails with ErrArity.
func ReadCSV(r io.Reader, name string) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("missing header line")
	}

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	table, err := NewTable(name, strings.Split(strings.TrimSuffix(lines[0], "\r"), ","))
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	for i, line := range lines[1:] {
		fields := strings.Split(strings.TrimSuffix(line, "\r"), ",")
		if err := table.Insert(fields); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
	}
	return table, nil
}

// PersistenceError is re-exported for storage callers.
type PersistenceError = types.PersistenceError
