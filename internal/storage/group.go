package storage

import (
	"strconv"
	"strings"
)

// GroupBy keeps the first row of every distinct value combination over
// columns and drops the rest, preserving order. It is deduplication, not
// SQL aggregation: nothing is counted or summed, and the kept row is returned
// whole.
func GroupBy(t *Table, rows []Row, columns []string) ([]Row, error) {
	idx, err := t.ColumnIndexes(columns)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(rows))
	var kept []Row
	for _, row := range rows {
		k := groupKey(row, idx)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		kept = append(kept, row)
	}
	return kept, nil
}

// groupKey length-prefixes each field so ("a:b", "c") and ("a", "b:c")
// produce different keys.
func groupKey(row Row, idx []int) string {
	var b strings.Builder
	for _, pos := range idx {
		b.WriteString(strconv.Itoa(len(row[pos])))
		b.WriteByte(':')
		b.WriteString(row[pos])
	}
	return b.String()
}
