package ports

import "context"

// TxManager scopes a unit of work. Repositories called with the context fn
// receives operate on the same transaction; when fn errors, nothing it wrote
// survives. Game commands that touch several aggregates (a trade moves an
// entry, a vehicle and a player) rely on this for all-or-nothing settlement.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
