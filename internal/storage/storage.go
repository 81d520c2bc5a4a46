package storage

// Storage persists whole tables. Implementations are not safe for concurrent
// use; the engine drives them from a single goroutine.
type Storage interface {
	// Load returns every persisted table in a deterministic order.
	Load() ([]*Table, error)
	// Save replaces the persisted copy of t with its current contents.
	Save(t *Table) error
	Close() error
}
