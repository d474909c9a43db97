// Package db wraps the SQL backends that hold posts and drafts.
package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/debemdeboas/quill/internal/config"
	"github.com/rs/zerolog"
)

type DB interface {
	InitDB() error

	Get() *sql.DB
	Close() error

	Query(query string, args ...interface{}) (*sql.Rows, error)
	Exec(query string, args ...interface{}) (sql.Result, error)

	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

var dbLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	dbLogger = l
}

// Open returns the backend selected by cfg. The returned DB is not yet
// initialized.
func Open(cfg config.DatabaseConfig) (DB, error) {
	switch cfg.Driver {
	case config.DriverSQLite, "":
		return NewSQLiteAt(cfg.DSN), nil
	case config.DriverPostgres:
		return NewPostgres(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func initSchema(conn *sql.DB, statements []string) error {
	for _, stmt := range statements {
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("error applying schema: %w", err)
		}
	}
	return nil
}
