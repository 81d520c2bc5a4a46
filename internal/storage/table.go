package storage

import (
	"fmt"
	"strings"

	"github.com/zakazai/flatdb/internal/types"
)

// Row is re-exported for callers that only import storage.
type Row = types.Row

// Table represents a database table: an ordered list of unique column names
// and rows of exactly len(Columns) string fields.
//
// Tables built by Join carry the source table of every column so that
// qualified references (table.column) resolve even when bare names collide.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row

	// sources[i] is the table column i came from; nil means Name for all.
	sources []string
}

// NewTable creates an empty table, rejecting empty or duplicated column names.
func NewTable(name string, columns []string) (*Table, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: table %s has no columns", types.ErrParse, name)
	}

	// Check for duplicate column names
	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		if col == "" {
			return nil, fmt.Errorf("%w: table %s has an empty column name", types.ErrParse, name)
		}
		if seen[col] {
			return nil, fmt.Errorf("%w: %s", types.ErrDuplicateColumn, col)
		}
		seen[col] = true
	}

	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Name: name, Columns: cols, Rows: []Row{}}, nil
}

// Arity returns the number of columns every row must have.
func (t *Table) Arity() int {
	return len(t.Columns)
}

// Insert appends a row after checking its arity.
func (t *Table) Insert(row Row) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("%w: table %s has %d columns, got %d values",
			types.ErrArity, t.Name, len(t.Columns), len(row))
	}
	t.Rows = append(t.Rows, row.Clone())
	return nil
}

func (t *Table) source(i int) string {
	if t.sources == nil {
		return t.Name
	}
	return t.sources[i]
}

// ColumnIndex resolves a column name to its 0-based position. A bare name
// must match exactly one column; a qualified name table.column matches on
// the column's source table.
func (t *Table) ColumnIndex(name string) (int, error) {
	idx, matches := -1, 0
	for i, col := range t.Columns {
		if col == name {
			if matches == 0 {
				idx = i
			}
			matches++
		}
	}
	switch {
	case matches == 1:
		return idx, nil
	case matches > 1:
		return -1, fmt.Errorf("%w: %s (qualify it as table.%s)", types.ErrAmbiguousColumn, name, name)
	}

	if table, column, ok := strings.Cut(name, "."); ok {
		for i, col := range t.Columns {
			if col == column && t.source(i) == table {
				if matches == 0 {
					idx = i
				}
				matches++
			}
		}
		switch {
		case matches == 1:
			return idx, nil
		case matches > 1:
			// a table joined with itself
			return -1, fmt.Errorf("%w: %s", types.ErrAmbiguousColumn, name)
		}
	}
	return -1, fmt.Errorf("%w: %s", types.ErrColumnNotFound, name)
}

// ColumnIndexes resolves several names, failing on the first unknown one.
func (t *Table) ColumnIndexes(names []string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		pos, err := t.ColumnIndex(name)
		if err != nil {
			return nil, err
		}
		idx[i] = pos
	}
	return idx, nil
}

// Update overwrites setColumns with setValues on every row equal by value to
// any row of matchRows. Duplicated rows are all updated. It returns how many
// rows were updated; zero means nothing matched.
func (t *Table) Update(matchRows []Row, setColumns []string, setValues []string) (int, error) {
	if len(setColumns) != len(setValues) {
		return 0, fmt.Errorf("%w: %d columns but %d values in SET", types.ErrArity, len(setColumns), len(setValues))
	}
	idx, err := t.ColumnIndexes(setColumns)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, row := range t.Rows {
		if !containsRow(matchRows, row) {
			continue
		}
		for i, pos := range idx {
			row[pos] = setValues[i]
		}
		updated++
	}
	return updated, nil
}

// DeleteRows removes every row equal by value to any of targets and returns
// the number removed.
func (t *Table) DeleteRows(targets []Row) int {
	kept := t.Rows[:0]
	removed := 0
	for _, row := range t.Rows {
		if containsRow(targets, row) {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	// drop references held past the new length
	for i := len(kept); i < len(t.Rows); i++ {
		t.Rows[i] = nil
	}
	t.Rows = kept
	return removed
}

// Clear removes every row.
func (t *Table) Clear() int {
	n := len(t.Rows)
	t.Rows = []Row{}
	return n
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{
		Name:    t.Name,
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	if t.sources != nil {
		out.sources = append([]string(nil), t.sources...)
	}
	for i, row := range t.Rows {
		out.Rows[i] = row.Clone()
	}
	return out
}

// CopyRows returns copies of all rows.
func (t *Table) CopyRows() []Row {
	out := make([]Row, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row.Clone()
	}
	return out
}

// Project returns, for each row, the fields at idx in order.
func Project(rows []Row, idx []int) []Row {
	out := make([]Row, len(rows))
	for i, row := range rows {
		projected := make(Row, len(idx))
		for j, pos := range idx {
			projected[j] = row[pos]
		}
		out[i] = projected
	}
	return out
}

func containsRow(rows []Row, row Row) bool {
	for _, r := range rows {
		if r.Equal(row) {
			return true
		}
	}
	return false
}
