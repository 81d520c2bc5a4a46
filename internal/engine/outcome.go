package engine

import (
	"fmt"

	"github.com/zakazai/flatdb/internal/types"
)

// Kind tells which fields of an Outcome are meaningful.
type Kind int

const (
	// KindResultSet carries Columns and Rows from a SELECT.
	KindResultSet Kind = iota
	// KindMutation carries RowsAffected from INSERT, UPDATE or DELETE.
	KindMutation
	// KindCreated acknowledges a CREATE TABLE.
	KindCreated
	// KindError carries Err.
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindResultSet:
		return "result set"
	case KindMutation:
		return "mutation"
	case KindCreated:
		return "created"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Outcome is the result of executing one statement.
type Outcome struct {
	Kind Kind

	// Verb is the statement keyword (SELECT, INSERT, ...), empty when the
	// statement did not parse.
	Verb  string
	Table string

	Columns []string
	Rows    []types.Row

	RowsAffected int
	Message      string
	Err          error
}

// Failed reports whether the statement was rejected.
func (o *Outcome) Failed() bool {
	return o.Kind == KindError
}

func errorOutcome(verb string, err error) *Outcome {
	return &Outcome{Kind: KindError, Verb: verb, Err: err, Message: err.Error()}
}
