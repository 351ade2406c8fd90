package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/multierr"

	"github.com/calvin-cs262-fall2024-no-pain-no-main/no-pain-no-main-service/internal/telemetry/tracing"
)

// Querier is the statement surface shared by the pool and an open transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is satisfied by *pgxpool.Pool.
type Pool interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Gateway is the single entry point repos use to reach the store.
// It is constructed once per process and passed down explicitly.
type Gateway struct {
	pool Pool
}

func NewGateway(pool Pool) *Gateway {
	return &Gateway{
		pool: pool,
	}
}

// Querier returns the non transactional statement surface.
func (g *Gateway) Querier() Querier {
	return g.pool
}

// WithTx runs fn inside one transaction. The transaction is rolled back when fn
// returns an error or panics, and committed otherwise. Nothing is retried.
func (g *Gateway) WithTx(ctx context.Context, fn func(q Querier) error) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "db.gateway.tx")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			// rollback uses a fresh context, ctx may be the reason we are unwinding
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
		if err != nil {
			if rollbackErr := tx.Rollback(context.WithoutCancel(ctx)); rollbackErr != nil {
				err = multierr.Append(err, fmt.Errorf("rollback tx: %w", rollbackErr))
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("commit tx: %w", commitErr)
		}
	}()

	return fn(tx)
}
