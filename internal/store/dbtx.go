package store

import (
	"context"
	"database/sql"
)

// DBTX is the minimal interface for database operations, implemented by both
// *sql.DB and *sql.Tx. Read and write helpers take a DBTX so the same code
// runs standalone or inside a transactional scope; the scope owner decides
// the transaction boundary.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)
