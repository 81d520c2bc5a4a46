package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zakazai/flatdb/internal/parser"
	"github.com/zakazai/flatdb/internal/storage"
	"github.com/zakazai/flatdb/internal/types"
)

func newTable(t *testing.T, name string, columns []string, rows ...storage.Row) *storage.Table {
	t.Helper()
	table, err := storage.NewTable(name, columns)
	require.NoError(t, err)
	for _, row := range rows {
		require.NoError(t, table.Insert(row))
	}
	return table
}

func where(conds ...string) *parser.Predicate {
	pred := &parser.Predicate{}
	for i := 0; i+1 < len(conds); i += 2 {
		pred.Conditions = append(pred.Conditions, parser.Condition{Column: conds[i], Value: conds[i+1]})
	}
	return pred
}

func TestNewTable(t *testing.T) {
	_, err := storage.NewTable("t", []string{"a", "b", "a"})
	assert.ErrorIs(t, err, types.ErrDuplicateColumn)

	_, err = storage.NewTable("t", nil)
	assert.Error(t, err)

	table, err := storage.NewTable("t", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 2, table.Arity())
	assert.Empty(t, table.Rows)
}

func TestInsert(t *testing.T) {
	table := newTable(t, "stud", []string{"name", "surname", "age"})

	require.NoError(t, table.Insert(storage.Row{"Louis", "Jeanneau", "22"}))
	assert.Len(t, table.Rows, 1)
	assert.Equal(t, storage.Row{"Louis", "Jeanneau", "22"}, table.Rows[0])

	for _, bad := range []storage.Row{{}, {"a", "b"}, {"a", "b", "c", "d"}} {
		err := table.Insert(bad)
		assert.ErrorIs(t, err, types.ErrArity)
	}
	assert.Len(t, table.Rows, 1)

	require.NoError(t, table.Insert(storage.Row{"Pierre", "Papin", "58"}))
	assert.Equal(t, storage.Row{"Pierre", "Papin", "58"}, table.Rows[len(table.Rows)-1])
}

func TestInsertCopiesRow(t *testing.T) {
	table := newTable(t, "t", []string{"a"})
	row := storage.Row{"x"}
	require.NoError(t, table.Insert(row))
	row[0] = "changed"
	assert.Equal(t, "x", table.Rows[0][0])
}

func TestColumnIndex(t *testing.T) {
	table := newTable(t, "stud", []string{"name", "surname", "age"})

	idx, err := table.ColumnIndex("age")
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	idx, err = table.ColumnIndex("stud.surname")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	_, err = table.ColumnIndex("missing")
	assert.ErrorIs(t, err, types.ErrColumnNotFound)

	_, err = table.ColumnIndex("other.name")
	assert.ErrorIs(t, err, types.ErrColumnNotFound)
}

func TestUpdateAffectsDuplicates(t *testing.T) {
	table := newTable(t, "t", []string{"a", "b"},
		storage.Row{"x", "y"},
		storage.Row{"z", "w"},
		storage.Row{"x", "y"},
	)

	n, err := table.Update([]storage.Row{{"x", "y"}}, []string{"b"}, []string{"new"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []storage.Row{{"x", "new"}, {"z", "w"}, {"x", "new"}}, table.Rows)

	n, err = table.Update([]storage.Row{{"nope", "nope"}}, []string{"a"}, []string{"v"})
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = table.Update([]storage.Row{{"z", "w"}}, []string{"c"}, []string{"v"})
	assert.ErrorIs(t, err, types.ErrColumnNotFound)
	assert.Equal(t, storage.Row{"z", "w"}, table.Rows[1])
}

func TestDeleteRemovesDuplicates(t *testing.T) {
	table := newTable(t, "t", []string{"a", "b"},
		storage.Row{"x", "y"},
		storage.Row{"z", "w"},
		storage.Row{"x", "y"},
	)

	matches, err := storage.Filter(table, where("a", "x", "b", "y"))
	require.NoError(t, err)
	require.Len(t, matches, 2)

	removed := table.DeleteRows(matches[:1])
	assert.Equal(t, 2, removed)
	assert.Equal(t, []storage.Row{{"z", "w"}}, table.Rows)

	assert.Zero(t, table.DeleteRows([]storage.Row{{"x", "y"}}))
}

func TestFilter(t *testing.T) {
	table := newTable(t, "t", []string{"c1", "c2"},
		storage.Row{"v1", "v2"},
		storage.Row{"v1", "other"},
		storage.Row{"other", "v2"},
		storage.Row{"v1", "v2"},
	)

	both, err := storage.Filter(table, where("c1", "v1", "c2", "v2"))
	require.NoError(t, err)

	first, err := storage.Filter(table, where("c1", "v1"))
	require.NoError(t, err)
	second, err := storage.Filter(table, where("c2", "v2"))
	require.NoError(t, err)

	var intersection []storage.Row
	for _, r := range first {
		for _, s := range second {
			if r.Equal(s) {
				intersection = append(intersection, r)
				break
			}
		}
	}
	assert.Equal(t, intersection, both)
	assert.Equal(t, []storage.Row{{"v1", "v2"}, {"v1", "v2"}}, both)
}

func TestFilterReturnsCopies(t *testing.T) {
	table := newTable(t, "t", []string{"a"}, storage.Row{"x"})
	rows, err := storage.Filter(table, where("a", "x"))
	require.NoError(t, err)
	table.Rows[0][0] = "mutated"
	assert.Equal(t, storage.Row{"x"}, rows[0])
}

func TestFilterErrors(t *testing.T) {
	table := newTable(t, "t", []string{"a"}, storage.Row{"x"})

	rows, err := storage.Filter(table, where("missing", "x"))
	assert.ErrorIs(t, err, types.ErrColumnNotFound)
	assert.Nil(t, rows)

	_, err = storage.Filter(table, &parser.Predicate{})
	assert.ErrorIs(t, err, types.ErrIllegalPredicate)

	_, err = storage.Filter(table, nil)
	assert.ErrorIs(t, err, types.ErrIllegalPredicate)
}

func TestGroupByKeepsFirstOccurrence(t *testing.T) {
	table := newTable(t, "t", []string{"k", "v"},
		storage.Row{"A", "1"},
		storage.Row{"B", "2"},
		storage.Row{"A", "3"},
	)

	rows, err := storage.GroupBy(table, table.Rows, []string{"k"})
	require.NoError(t, err)
	assert.Equal(t, []storage.Row{{"A", "1"}, {"B", "2"}}, rows)

	rows, err = storage.GroupBy(table, table.Rows, []string{"k", "v"})
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	_, err = storage.GroupBy(table, table.Rows, []string{"nope"})
	assert.ErrorIs(t, err, types.ErrColumnNotFound)
}

func TestGroupByKeyIsUnambiguous(t *testing.T) {
	table := newTable(t, "t", []string{"a", "b"},
		storage.Row{"1:2", "3"},
		storage.Row{"1", "2:3"},
	)
	rows, err := storage.GroupBy(table, table.Rows, []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestCrossJoin(t *testing.T) {
	a := newTable(t, "a", []string{"a1", "a2"},
		storage.Row{"x", "1"},
		storage.Row{"y", "2"},
	)
	b := newTable(t, "b", []string{"b1"},
		storage.Row{"p"},
		storage.Row{"q"},
		storage.Row{"r"},
	)

	joined, err := storage.CrossJoin([]*storage.Table{a, b}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2", "b1"}, joined.Columns)
	require.Len(t, joined.Rows, 6)
	for k, row := range joined.Rows {
		want := append(append(storage.Row{}, a.Rows[k/3]...), b.Rows[k%3]...)
		assert.Equal(t, want, row)
	}
}

func TestCrossJoinThreeTablesAndEmpty(t *testing.T) {
	a := newTable(t, "a", []string{"x"}, storage.Row{"1"}, storage.Row{"2"})
	b := newTable(t, "b", []string{"y"}, storage.Row{"3"}, storage.Row{"4"})
	c := newTable(t, "c", []string{"z"}, storage.Row{"5"})

	joined, err := storage.CrossJoin([]*storage.Table{a, b, c}, 0)
	require.NoError(t, err)
	assert.Equal(t, []storage.Row{
		{"1", "3", "5"}, {"1", "4", "5"}, {"2", "3", "5"}, {"2", "4", "5"},
	}, joined.Rows)

	empty := newTable(t, "e", []string{"w"})
	joined, err = storage.CrossJoin([]*storage.Table{a, empty}, 1)
	require.NoError(t, err)
	assert.Empty(t, joined.Rows)
	assert.Equal(t, []string{"x", "w"}, joined.Columns)
}

func TestCrossJoinColumnCollision(t *testing.T) {
	stud := newTable(t, "stud", []string{"name", "age"}, storage.Row{"Louis", "22"})
	teacher := newTable(t, "teacher", []string{"name"}, storage.Row{"Yo"})

	joined, err := storage.CrossJoin([]*storage.Table{stud, teacher}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age", "name"}, joined.Columns)

	_, err = joined.ColumnIndex("name")
	assert.ErrorIs(t, err, types.ErrAmbiguousColumn)

	idx, err := joined.ColumnIndex("teacher.name")
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	idx, err = joined.ColumnIndex("age")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	self, err := storage.CrossJoin([]*storage.Table{stud, stud}, 0)
	require.NoError(t, err)
	assert.Len(t, self.Rows, 1)

	_, err = self.ColumnIndex("stud.name")
	assert.ErrorIs(t, err, types.ErrAmbiguousColumn)
	_, err = self.ColumnIndex("age")
	assert.ErrorIs(t, err, types.ErrAmbiguousColumn)
}

func TestCrossJoinLimit(t *testing.T) {
	a := newTable(t, "a", []string{"x"}, storage.Row{"1"}, storage.Row{"2"}, storage.Row{"3"})

	_, err := storage.CrossJoin([]*storage.Table{a, a}, 8)
	assert.ErrorIs(t, err, types.ErrJoinTooLarge)

	joined, err := storage.CrossJoin([]*storage.Table{a, a}, 9)
	require.NoError(t, err)
	assert.Len(t, joined.Rows, 9)
}

func TestClone(t *testing.T) {
	table := newTable(t, "t", []string{"a"}, storage.Row{"x"})
	clone := table.Clone()
	clone.Rows[0][0] = "y"
	require.NoError(t, clone.Insert(storage.Row{"z"}))
	assert.Equal(t, []storage.Row{{"x"}}, table.Rows)
}

func TestProject(t *testing.T) {
	rows := []storage.Row{{"a", "b", "c"}, {"d", "e", "f"}}
	assert.Equal(t, []storage.Row{{"c", "a"}, {"f", "d"}}, storage.Project(rows, []int{2, 0}))
}
