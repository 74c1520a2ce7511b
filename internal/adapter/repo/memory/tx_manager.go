package memory

import "context"

// TxManager serializes access to the store and gives each transaction the
// same all-or-nothing semantics as the SQL adapter: a snapshot is taken at
// entry and restored when fn errors, so a write before a failed step never
// leaks out. Repository methods themselves do not lock; use cases run every
// read-modify-write inside RunInTx.
type TxManager struct {
	store *Store
}

func NewTxManager(store *Store) TxManager {
	return TxManager{store: store}
}

func (t TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	snap := t.store.snapshot()
	if err := fn(ctx); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}
