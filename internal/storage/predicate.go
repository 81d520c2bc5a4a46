package storage

import (
	"fmt"

	"github.com/zakazai/flatdb/internal/parser"
	"github.com/zakazai/flatdb/internal/types"
)

type boundCondition struct {
	index int
	value string
}

// bindPredicate resolves every condition column against the table schema.
func bindPredicate(t *Table, pred *parser.Predicate) ([]boundCondition, error) {
	if pred == nil || len(pred.Conditions) == 0 {
		return nil, fmt.Errorf("%w: WHERE has no conditions", types.ErrIllegalPredicate)
	}

	bound := make([]boundCondition, len(pred.Conditions))
	for i, cond := range pred.Conditions {
		idx, err := t.ColumnIndex(cond.Column)
		if err != nil {
			return nil, err
		}
		bound[i] = boundCondition{index: idx, value: cond.Value}
	}
	return bound, nil
}

func matchesAll(row Row, conds []boundCondition) bool {
	for _, c := range conds {
		if row[c.index] != c.value {
			return false
		}
	}
	return true
}

// Filter returns copies of the rows satisfying every condition of pred, in
// table order. Copies stay usable for value matching after the table mutates.
func Filter(t *Table, pred *parser.Predicate) ([]Row, error) {
	conds, err := bindPredicate(t, pred)
	if err != nil {
		return nil, err
	}

	var results []Row
	for _, row := range t.Rows {
		if matchesAll(row, conds) {
			results = append(results, row.Clone())
		}
	}
	return results, nil
}
