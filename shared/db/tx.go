package db

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

type txKey struct{}

// WithTx attaches tx to ctx so stores called below share it.
func WithTx(ctx context.Context, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func GetTx(ctx context.Context) (*sqlx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(*sqlx.Tx)
	return tx, ok
}

// GetExecutor returns the transaction carried by ctx, or db when there is none.
func GetExecutor(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := GetTx(ctx); ok {
		return tx
	}
	return db
}

// RunInTransaction runs fn inside a transaction. When ctx already carries one,
// fn joins it and the outermost call decides between commit and rollback.
// A panic in fn rolls back before it propagates.
func RunInTransaction(ctx context.Context, db *sqlx.DB, fn func(ctx context.Context) error) error {
	if _, ok := GetTx(ctx); ok {
		return fn(ctx)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(WithTx(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %v: %w", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
