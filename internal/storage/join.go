package storage

import (
	"fmt"
	"strings"

	"github.com/zakazai/flatdb/internal/types"
)

// CrossJoin builds a transient table holding the Cartesian product of
// tables, folded left to right: each accumulated row is followed by every
// row of the next table, left fields first. Column names are concatenated
// as-is; bare names shared by two inputs must be referenced as table.column.
//
// The whole product is materialized. When maxRows is positive and the product
// would exceed it, CrossJoin fails before allocating anything.
func CrossJoin(tables []*Table, maxRows int) (*Table, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: nothing to join", types.ErrTableNotFound)
	}

	names := make([]string, len(tables))
	empty := false
	for i, t := range tables {
		names[i] = t.Name
		if len(t.Rows) == 0 {
			empty = true
		}
	}

	if maxRows > 0 && !empty {
		total := 1
		for _, t := range tables {
			// total*n > maxRows, without overflowing
			if total > maxRows/len(t.Rows) {
				return nil, fmt.Errorf("%w: %s exceeds %d rows", types.ErrJoinTooLarge, strings.Join(names, " x "), maxRows)
			}
			total *= len(t.Rows)
		}
	}

	result := &Table{
		Name: strings.Join(names, ","),
		Rows: []Row{{}},
	}
	for _, t := range tables {
		for i := range t.Columns {
			result.Columns = append(result.Columns, t.Columns[i])
			result.sources = append(result.sources, t.source(i))
		}
		result.Rows = product(result.Rows, t.Rows)
	}
	return result, nil
}

func product(left, right []Row) []Row {
	out := make([]Row, 0, len(left)*len(right))
	for _, l := range left {
		for _, r := range right {
			row := make(Row, 0, len(l)+len(r))
			row = append(row, l...)
			row = append(row, r...)
			out = append(out, row)
		}
	}
	return out
}
