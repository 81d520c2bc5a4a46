package storage_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zakazai/flatdb/internal/storage"
	"github.com/zakazai/flatdb/internal/types"
)

func TestCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := storage.NewCSVStorage(dir)

	stud := newTable(t, "stud", []string{"name", "surname", "age"},
		storage.Row{"Louis", "Jeanneau", "22"},
		storage.Row{"Jean Pierre", "", "58"},
		storage.Row{"Louis", "Jeanneau", "22"},
	)
	require.NoError(t, s.Save(stud))

	data, err := os.ReadFile(filepath.Join(dir, "stud.csv"))
	require.NoError(t, err)
	assert.Equal(t, "name,surname,age\nLouis,Jeanneau,22\nJean Pierre,,58\nLouis,Jeanneau,22\n", string(data))

	tables, err := s.Load()
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "stud", tables[0].Name)
	assert.Equal(t, stud.Columns, tables[0].Columns)
	assert.Equal(t, stud.Rows, tables[0].Rows)
}

func TestCSVHeaderOnly(t *testing.T) {
	dir := t.TempDir()
	s := storage.NewCSVStorage(dir)
	require.NoError(t, s.Save(newTable(t, "empty", []string{"a", "b"})))

	data, err := os.ReadFile(s.Path("empty"))
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	tables, err := s.Load()
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Empty(t, tables[0].Rows)
}

func TestCSVSingleColumnEmptyValue(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, storage.WriteCSV(&buf, newTable(t, "t", []string{"a"}, storage.Row{""}, storage.Row{"x"})))

	table, err := storage.ReadCSV(&buf, "t")
	require.NoError(t, err)
	assert.Equal(t, []storage.Row{{""}, {"x"}}, table.Rows)
}

func TestCSVCommaCorruptsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := storage.NewCSVStorage(dir)
	require.NoError(t, s.Save(newTable(t, "city", []string{"name", "pop"}, storage.Row{"Paris, France", "2"})))

	_, err := s.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrPersistence)
	assert.ErrorIs(t, err, types.ErrArity)

	var perr *types.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "load", perr.Op)
	assert.Equal(t, s.Path("city"), perr.Path)
}

func TestCSVNewlineCorruptsRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, storage.WriteCSV(&buf, newTable(t, "t", []string{"a", "b"}, storage.Row{"line\nbreak", "x"})))

	_, err := storage.ReadCSV(&buf, "t")
	assert.ErrorIs(t, err, types.ErrArity)
}

func TestCSVLoadTolerance(t *testing.T) {
	table, err := storage.ReadCSV(strings.NewReader("a,b\r\n1,2\r\n"), "t")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, table.Columns)
	assert.Equal(t, []storage.Row{{"1", "2"}}, table.Rows)

	_, err = storage.ReadCSV(strings.NewReader(""), "t")
	assert.Error(t, err)

	_, err = storage.ReadCSV(strings.NewReader("a,a\n"), "t")
	assert.ErrorIs(t, err, types.ErrDuplicateColumn)
}

func TestCSVLoadDirectory(t *testing.T) {
	// missing directory is not an error
	tables, err := storage.NewCSVStorage(filepath.Join(t.TempDir(), "absent")).Load()
	require.NoError(t, err)
	assert.Empty(t, tables)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.csv"), []byte("x\n1\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("y\n2\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0755))

	tables, err = storage.NewCSVStorage(dir).Load()
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "a", tables[0].Name)
	assert.Equal(t, "b", tables[1].Name)
}

func TestCSVSaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s := storage.NewCSVStorage(dir)
	require.NoError(t, s.Save(newTable(t, "t", []string{"a"})))
	assert.FileExists(t, filepath.Join(dir, "t.csv"))
}

func TestParquetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := storage.NewParquetStorage(dir)

	// Parquet keeps values the CSV format cannot
	city := newTable(t, "city", []string{"name", "note"},
		storage.Row{"Paris, France", "a\nb"},
		storage.Row{"Lyon", ""},
	)
	empty := newTable(t, "empty", []string{"only"})
	require.NoError(t, s.Save(city))
	require.NoError(t, s.Save(empty))

	tables, err := s.Load()
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "city", tables[0].Name)
	assert.Equal(t, city.Columns, tables[0].Columns)
	assert.Equal(t, city.Rows, tables[0].Rows)
	assert.Equal(t, "empty", tables[1].Name)
	assert.Equal(t, []string{"only"}, tables[1].Columns)
	assert.Empty(t, tables[1].Rows)
}

type failingStorage struct{ saves int }

func (f *failingStorage) Load() ([]*storage.Table, error) { return nil, nil }
func (f *failingStorage) Save(*storage.Table) error {
	f.saves++
	return errors.New("disk full")
}
func (f *failingStorage) Close() error { return nil }

func TestHybridStorage(t *testing.T) {
	csvDir, mirrorDir := t.TempDir(), t.TempDir()
	s, err := storage.NewStorage(storage.StorageConfig{
		Type:      storage.HybridStorageType,
		Dir:       csvDir,
		MirrorDir: mirrorDir,
		Logger:    types.DiscardLogger(),
	})
	require.NoError(t, err)
	defer s.Close()

	table := newTable(t, "stud", []string{"name"}, storage.Row{"Louis"})
	require.NoError(t, s.Save(table))
	assert.FileExists(t, filepath.Join(csvDir, "stud.csv"))
	assert.FileExists(t, filepath.Join(mirrorDir, "stud.parquet"))

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, table.Rows, loaded[0].Rows)

	// mirror copy matches the primary
	mirrored, err := storage.NewParquetStorage(mirrorDir).ReadTable("stud")
	require.NoError(t, err)
	assert.Equal(t, table.Rows, mirrored.Rows)
}

func TestHybridStorageIgnoresMirrorFailure(t *testing.T) {
	mirror := &failingStorage{}
	s := storage.NewHybridStorage(storage.NewCSVStorage(t.TempDir()), mirror, types.DiscardLogger())

	require.NoError(t, s.Save(newTable(t, "t", []string{"a"})))
	assert.Equal(t, 1, mirror.saves)

	err := s.Sync()
	assert.Error(t, err)
	assert.Equal(t, 2, mirror.saves)
}

func TestNewStorage(t *testing.T) {
	tests := []struct {
		name    string
		config  storage.StorageConfig
		wantErr bool
	}{
		{name: "default csv", config: storage.StorageConfig{Dir: "data"}},
		{name: "csv", config: storage.StorageConfig{Type: storage.CSVStorageType, Dir: "data"}},
		{name: "parquet", config: storage.StorageConfig{Type: storage.ParquetStorageType, Dir: "data"}},
		{name: "hybrid without mirror", config: storage.StorageConfig{Type: storage.HybridStorageType, Dir: "data"}, wantErr: true},
		{name: "missing dir", config: storage.StorageConfig{Type: storage.CSVStorageType}, wantErr: true},
		{name: "unknown", config: storage.StorageConfig{Type: "btree", Dir: "data"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := storage.NewStorage(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s)
		})
	}
}
