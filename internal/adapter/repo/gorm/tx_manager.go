package gormrepo

import (
	"context"

	"gorm.io/gorm"
)

// TxManager runs each game command in one database transaction. The handle
// travels in the context, so the repos a use case touches inside fn share
// it; an error from fn rolls the whole command back.
type TxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) TxManager {
	return TxManager{db: db}
}

func (t TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(withTx(ctx, tx))
	})
}
