package database

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB (via DB) and *sql.Tx, letting a
// repository participate in a caller-owned transaction scope.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)
