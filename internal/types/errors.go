package types

import (
	"errors"
	"fmt"
)

// Statement and table errors. Callers wrap these with context using %w and
// match them with errors.Is.
var (
	ErrParse              = errors.New("statement not recognized")
	ErrArity              = errors.New("wrong number of values")
	ErrColumnNotFound     = errors.New("column not found")
	ErrTableNotFound      = errors.New("table not found")
	ErrTableAlreadyExists = errors.New("table already exists")
	ErrCancelledByUser    = errors.New("cancelled by user")
	ErrIllegalPredicate   = errors.New("illegal predicate")
	ErrPersistence        = errors.New("persistence failure")
	ErrDuplicateColumn    = errors.New("duplicate column name")
	ErrAmbiguousColumn    = errors.New("ambiguous column name")
	ErrJoinTooLarge       = errors.New("join result too large")
)

// PersistenceError reports an I/O failure while loading or saving a table file.
type PersistenceError struct {
	Op   string // "load" or "save"
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrPersistence) match any PersistenceError.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
