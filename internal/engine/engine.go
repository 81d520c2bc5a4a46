// Package engine executes statements against a set of tables kept in memory
// and written through to a Storage on every mutation.
package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/zakazai/flatdb/internal/parser"
	"github.com/zakazai/flatdb/internal/storage"
	"github.com/zakazai/flatdb/internal/types"
)

// DefaultMaxJoinRows bounds cross joins when the caller has no preference.
const DefaultMaxJoinRows = 1_000_000

// ConfirmFunc asks the user a yes/no question. It gates destructive
// statements: CREATE over an existing table and DELETE without WHERE.
type ConfirmFunc func(prompt string) bool

// Config configures Open.
type Config struct {
	Dir         string // table directory
	StorageType storage.StorageType
	MirrorDir   string // Parquet mirror, hybrid storage only

	// MaxJoinRows caps the size of a cross join; 0 disables the cap.
	MaxJoinRows int

	// Confirm may be nil. CREATE over an existing table then fails with
	// ErrTableAlreadyExists and DELETE without WHERE with ErrCancelledByUser.
	Confirm ConfirmFunc

	Logger *slog.Logger
}

// Engine owns the database: every table by name, and the store they persist to.
// It is not safe for concurrent use.
type Engine struct {
	tables      map[string]*storage.Table
	store       storage.Storage
	confirm     ConfirmFunc
	maxJoinRows int
	logger      *slog.Logger
}

// Open builds the configured storage and loads every table from it. A table
// file that cannot be read fails the whole open with a PersistenceError.
func Open(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = types.DiscardLogger()
	}
	if cfg.MaxJoinRows < 0 {
		return nil, fmt.Errorf("max join rows must not be negative, got %d", cfg.MaxJoinRows)
	}

	store, err := storage.NewStorage(storage.StorageConfig{
		Type:      cfg.StorageType,
		Dir:       cfg.Dir,
		MirrorDir: cfg.MirrorDir,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	return New(store, cfg.Confirm, cfg.MaxJoinRows, logger)
}

// New wraps an existing store. Open is the usual entry point.
func New(store storage.Storage, confirm ConfirmFunc, maxJoinRows int, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = types.DiscardLogger()
	}

	loaded, err := store.Load()
	if err != nil {
		logger.Error("failed to load tables", "error", err)
		return nil, err
	}

	e := &Engine{
		tables:      make(map[string]*storage.Table, len(loaded)),
		store:       store,
		confirm:     confirm,
		maxJoinRows: maxJoinRows,
		logger:      logger,
	}
	for _, t := range loaded {
		e.tables[t.Name] = t
		logger.Debug("loaded table", "table", t.Name, "columns", len(t.Columns), "rows", len(t.Rows))
	}
	logger.Info("database opened", "tables", len(e.tables))
	return e, nil
}

// Execute parses and runs one statement. It never panics: every failure,
// including an unexpected one, comes back as a KindError Outcome, and leaves
// the database as it was before the call.
func (e *Engine) Execute(text string) (out *Outcome) {
	verb := ""
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("statement panicked", "statement", text, "panic", r)
			out = errorOutcome(verb, fmt.Errorf("internal error: %v", r))
		}
	}()

	stmt, err := parser.Parse(text)
	if err != nil {
		e.logger.Debug("statement rejected", "statement", text, "error", err)
		return errorOutcome(verb, err)
	}

	plan, err := CreatePlan(stmt)
	if err != nil {
		return errorOutcome(verb, err)
	}
	verb = plan.Type

	out, err = plan.Execute(e)
	if err != nil {
		e.logger.Debug("statement failed", "verb", verb, "table", plan.Table, "error", err)
		return errorOutcome(verb, err)
	}
	e.logger.Debug("statement executed", "verb", verb, "table", out.Table, "rows", len(out.Rows), "affected", out.RowsAffected)
	return out
}

// commit persists t and only then makes it the live version of its table.
func (e *Engine) commit(t *storage.Table) error {
	if err := e.store.Save(t); err != nil {
		e.logger.Warn("failed to persist table", "table", t.Name, "error", err)
		return err
	}
	e.tables[t.Name] = t
	return nil
}

// Tables returns the table names in sorted order.
func (e *Engine) Tables() []string {
	names := make([]string, 0, len(e.tables))
	for name := range e.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Table returns a copy of the named table.
func (e *Engine) Table(name string) (*storage.Table, bool) {
	t, ok := e.tables[name]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// Describe returns "name(col1, col2, ...)" for the named table.
func (e *Engine) Describe(name string) (string, error) {
	t, err := e.lookup(name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(%s)", t.Name, strings.Join(t.Columns, ", ")), nil
}

// Close releases the underlying store.
func (e *Engine) Close() error {
	return e.store.Close()
}
