package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/zakazai/flatdb/internal/engine"
)

// renderOutcome prints a statement result to out, or its error to errOut.
func renderOutcome(out, errOut io.Writer, o *engine.Outcome) {
	switch o.Kind {
	case engine.KindResultSet:
		renderTable(out, o.Columns, o.Rows)
	case engine.KindMutation, engine.KindCreated:
		_, _ = fmt.Fprintln(out, o.Message)
	case engine.KindError:
		_, _ = fmt.Fprintf(errOut, "Error: %v\n", o.Err)
	}
}

func renderTable[R ~[]string](w io.Writer, cols []string, rows []R) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(cols))
	for i, col := range cols {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, r := range rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = v
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rows))
}
