package database

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"
)

type txKey struct{}

// txState is carried in the context of a running transaction.
type txState struct {
	tx    *gorm.DB
	mu    sync.Mutex
	hooks []func(context.Context)
}

func txFromContext(ctx context.Context) (*gorm.DB, bool) {
	st, ok := ctx.Value(txKey{}).(*txState)
	if !ok || st == nil {
		return nil, false
	}
	return st.tx, true
}

// InTransaction reports whether ctx carries a running transaction.
func InTransaction(ctx context.Context) bool {
	_, ok := txFromContext(ctx)
	return ok
}

// Transaction wraps a GORM transaction with commit/rollback semantics.
type Transaction struct {
	state    *txState
	finished bool
}

// NewTransaction starts a new database transaction.
func NewTransaction(ctx context.Context, db Database) (Transaction, error) {
	tx := db.GORM().WithContext(ctx).Begin()
	if tx.Error != nil {
		return Transaction{}, fmt.Errorf("begin transaction: %w", tx.Error)
	}
	return Transaction{state: &txState{tx: tx}}, nil
}

// Session returns the transaction session for executing queries.
func (t Transaction) Session() *gorm.DB {
	return t.state.tx
}

// Context returns ctx bound to this transaction. Stores that resolve their
// session through Database.Session join the transaction.
func (t Transaction) Context(ctx context.Context) context.Context {
	return context.WithValue(ctx, txKey{}, t.state)
}

// Commit commits the transaction and then runs the registered commit hooks.
func (t *Transaction) Commit(ctx context.Context) error {
	if t.finished {
		return nil
	}
	if err := t.state.tx.Commit().Error; err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	t.finished = true

	t.state.mu.Lock()
	hooks := t.state.hooks
	t.state.hooks = nil
	t.state.mu.Unlock()

	for _, hook := range hooks {
		hook(ctx)
	}
	return nil
}

// Rollback rolls back the transaction if not already finished. Commit hooks
// are discarded.
func (t *Transaction) Rollback() error {
	if t.finished {
		return nil
	}
	if err := t.state.tx.Rollback().Error; err != nil {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	t.finished = true
	t.state.hooks = nil
	return nil
}

// OnCommit schedules fn to run after the transaction in ctx commits. Without
// a running transaction fn runs immediately. fn receives a context that is
// no longer bound to the transaction.
func OnCommit(ctx context.Context, fn func(ctx context.Context)) {
	st, ok := ctx.Value(txKey{}).(*txState)
	if !ok || st == nil {
		fn(ctx)
		return
	}
	st.mu.Lock()
	st.hooks = append(st.hooks, fn)
	st.mu.Unlock()
}

// WithTransaction executes fn within a transaction, committing on success or
// rolling back on error. When ctx already carries a transaction fn joins it
// and the outer call decides the outcome.
func WithTransaction(ctx context.Context, db Database, fn func(ctx context.Context) error) error {
	_, err := WithTransactionResult(ctx, db, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// WithTransactionResult executes fn within a transaction, returning the result on success.
func WithTransactionResult[T any](ctx context.Context, db Database, fn func(ctx context.Context) (T, error)) (T, error) {
	if InTransaction(ctx) {
		return fn(ctx)
	}

	var result T

	txn, err := NewTransaction(ctx, db)
	if err != nil {
		return result, err
	}

	defer func() {
		if !txn.finished {
			_ = txn.Rollback()
		}
	}()

	result, err = fn(txn.Context(ctx))
	if err != nil {
		return result, err
	}

	if err := txn.Commit(ctx); err != nil {
		return result, err
	}

	return result, nil
}
