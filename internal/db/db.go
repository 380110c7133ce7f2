// Package db is a hand-written, sqlc-shaped query layer over Postgres via
// pgx. It follows the generated-code convention of a narrow DBTX interface
// and a Queries type constructed from either a pool or a single connection,
// so callers can run within or outside a transaction interchangeably.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool, *pgxpool.Conn, pgx.Tx, and *pgx.Conn.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries wraps a DBTX with the tenant-scoped drift detection query surface.
type Queries struct {
	db DBTX
}

// New constructs a Queries from any DBTX implementation.
func New(dbtx DBTX) *Queries {
	return &Queries{db: dbtx}
}

// WithTx returns a Queries bound to the given transaction.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}
