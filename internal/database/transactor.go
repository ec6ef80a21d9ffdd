package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxFunc 在交易中執行；回傳 error 時整個交易 rollback
type TxFunc func(ctx context.Context, tx pgx.Tx) error

type Transactor interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

type PgxTransactor struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewTransactor timeout 為單一交易的上限，0 表示只跟隨呼叫端 ctx
func NewTransactor(pool *pgxpool.Pool, timeout time.Duration) Transactor {
	return &PgxTransactor{pool: pool, timeout: timeout}
}

func (t *PgxTransactor) WithinTx(ctx context.Context, fn TxFunc) error {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	tx, err := t.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return WrapError("begin transaction", err)
	}
	// commit 之後 Rollback 是 no-op
	defer tx.Rollback(context.Background())

	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return WrapError("commit transaction", err)
	}
	return nil
}
