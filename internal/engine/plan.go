package engine

import (
	"fmt"

	"github.com/zakazai/flatdb/internal/parser"
	"github.com/zakazai/flatdb/internal/storage"
	"github.com/zakazai/flatdb/internal/types"
)

// Plan is a statement flattened into what the engine needs to run it.
type Plan struct {
	Type    string // CREATE, INSERT, UPDATE, DELETE or SELECT
	Table   string
	Tables  []string // SELECT sources, in FROM order
	Columns []string // CREATE columns, or SELECT projection (nil for *)
	Values  []types.Row
	Set     []parser.Assignment
	Where   *parser.Predicate
	GroupBy []string
}

// CreatePlan converts a Statement into an execution Plan.
func CreatePlan(stmt parser.Statement) (*Plan, error) {
	plan := &Plan{Table: stmt.TableName()}

	switch s := stmt.(type) {
	case *parser.CreateStatement:
		plan.Type = "CREATE"
		plan.Columns = s.Columns
	case *parser.InsertStatement:
		plan.Type = "INSERT"
		plan.Values = make([]types.Row, len(s.Rows))
		for i, row := range s.Rows {
			plan.Values[i] = types.Row(row)
		}
	case *parser.UpdateStatement:
		plan.Type = "UPDATE"
		plan.Set = s.Assignments
		plan.Where = s.Where
	case *parser.DeleteStatement:
		plan.Type = "DELETE"
		plan.Where = s.Where
	case *parser.SelectStatement:
		plan.Type = "SELECT"
		plan.Tables = s.Tables
		plan.Columns = s.Columns
		plan.Where = s.Where
		plan.GroupBy = s.GroupBy
	default:
		return nil, fmt.Errorf("%w: unsupported statement %T", types.ErrParse, stmt)
	}
	return plan, nil
}

// Execute runs the plan against the engine's tables.
func (p *Plan) Execute(e *Engine) (*Outcome, error) {
	switch p.Type {
	case "CREATE":
		return e.create(p)
	case "INSERT":
		return e.insert(p)
	case "UPDATE":
		return e.update(p)
	case "DELETE":
		return e.delete(p)
	case "SELECT":
		return e.query(p)
	default:
		return nil, fmt.Errorf("%w: unsupported statement type %s", types.ErrParse, p.Type)
	}
}

func (e *Engine) lookup(name string) (*storage.Table, error) {
	t, ok := e.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrTableNotFound, name)
	}
	return t, nil
}

func (e *Engine) create(p *Plan) (*Outcome, error) {
	table, err := storage.NewTable(p.Table, p.Columns)
	if err != nil {
		return nil, err
	}

	if _, exists := e.tables[p.Table]; exists {
		if e.confirm == nil {
			return nil, fmt.Errorf("%w: %s", types.ErrTableAlreadyExists, p.Table)
		}
		if !e.confirm(fmt.Sprintf("Table %s already exists. Replace it and all its rows?", p.Table)) {
			return nil, fmt.Errorf("%w: %s was not replaced", types.ErrCancelledByUser, p.Table)
		}
		e.logger.Info("replacing table", "table", p.Table)
	}

	if err := e.commit(table); err != nil {
		return nil, err
	}
	return &Outcome{
		Kind:    KindCreated,
		Verb:    p.Type,
		Table:   table.Name,
		Columns: append([]string(nil), table.Columns...),
		Message: fmt.Sprintf("table %s created", table.Name),
	}, nil
}

func (e *Engine) insert(p *Plan) (*Outcome, error) {
	live, err := e.lookup(p.Table)
	if err != nil {
		return nil, err
	}

	work := live.Clone()
	for _, row := range p.Values {
		if err := work.Insert(row); err != nil {
			return nil, err
		}
	}
	if err := e.commit(work); err != nil {
		return nil, err
	}
	return mutation(p, len(p.Values)), nil
}

func (e *Engine) update(p *Plan) (*Outcome, error) {
	live, err := e.lookup(p.Table)
	if err != nil {
		return nil, err
	}

	work := live.Clone()
	matches := work.CopyRows()
	if p.Where != nil {
		if matches, err = storage.Filter(work, p.Where); err != nil {
			return nil, err
		}
	}

	columns := make([]string, len(p.Set))
	values := make([]string, len(p.Set))
	for i, a := range p.Set {
		columns[i], values[i] = a.Column, a.Value
	}
	n, err := work.Update(matches, columns, values)
	if err != nil {
		return nil, err
	}

	if err := e.commit(work); err != nil {
		return nil, err
	}
	return mutation(p, n), nil
}

func (e *Engine) delete(p *Plan) (*Outcome, error) {
	live, err := e.lookup(p.Table)
	if err != nil {
		return nil, err
	}

	work := live.Clone()
	var n int
	if p.Where == nil {
		prompt := fmt.Sprintf("Delete all %d rows of %s?", len(live.Rows), p.Table)
		if e.confirm == nil || !e.confirm(prompt) {
			return nil, fmt.Errorf("%w: rows of %s were kept", types.ErrCancelledByUser, p.Table)
		}
		n = work.Clear()
	} else {
		matches, err := storage.Filter(work, p.Where)
		if err != nil {
			return nil, err
		}
		n = work.DeleteRows(matches)
	}

	if err := e.commit(work); err != nil {
		return nil, err
	}
	return mutation(p, n), nil
}

// query runs WHERE, then GROUP BY, then the projection. Live tables are only
// read; every returned row is a copy.
func (e *Engine) query(p *Plan) (*Outcome, error) {
	sources := make([]*storage.Table, len(p.Tables))
	for i, name := range p.Tables {
		t, err := e.lookup(name)
		if err != nil {
			return nil, err
		}
		sources[i] = t
	}

	src := sources[0]
	if len(sources) > 1 {
		joined, err := storage.CrossJoin(sources, e.maxJoinRows)
		if err != nil {
			return nil, err
		}
		src = joined
	}

	var rows []types.Row
	if p.Where != nil {
		var err error
		if rows, err = storage.Filter(src, p.Where); err != nil {
			return nil, err
		}
	} else {
		rows = src.CopyRows()
	}

	if len(p.GroupBy) > 0 {
		var err error
		if rows, err = storage.GroupBy(src, rows, p.GroupBy); err != nil {
			return nil, err
		}
	}

	columns := append([]string(nil), src.Columns...)
	if p.Columns != nil {
		idx, err := src.ColumnIndexes(p.Columns)
		if err != nil {
			return nil, err
		}
		rows = storage.Project(rows, idx)
		columns = append([]string(nil), p.Columns...)
	}

	return &Outcome{
		Kind:    KindResultSet,
		Verb:    p.Type,
		Table:   src.Name,
		Columns: columns,
		Rows:    rows,
		Message: fmt.Sprintf("%d row(s)", len(rows)),
	}, nil
}

func mutation(p *Plan, n int) *Outcome {
	return &Outcome{
		Kind:         KindMutation,
		Verb:         p.Type,
		Table:        p.Table,
		RowsAffected: n,
		Message:      fmt.Sprintf("%d row(s) affected", n),
	}
}
