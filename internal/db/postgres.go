package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT UNIQUE,
    email TEXT,
    created_at TIMESTAMPTZ DEFAULT now()
);`,
	`CREATE TABLE IF NOT EXISTS drafts (
    id TEXT PRIMARY KEY,
    title TEXT,
    content BYTEA,
    tags TEXT,
    user_id TEXT,
    created_at TIMESTAMPTZ DEFAULT now(),
    modified_at TIMESTAMPTZ
);`,
	`CREATE INDEX IF NOT EXISTS drafts_user_id ON drafts (user_id);`,
	`CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    title TEXT,
    content BYTEA,
    md_content_hash TEXT,
    tags TEXT,
    modified_at TIMESTAMPTZ,
    user_id TEXT,
    created_at TIMESTAMPTZ DEFAULT now()
);`,
}

// Postgres runs the same queries as SQLite through the pgx database/sql
// driver. Queries are written with '?' placeholders and rebound here.
type Postgres struct {
	dsn  string
	conn *sql.DB
}

func NewPostgres(dsn string) *Postgres {
	return &Postgres{dsn: dsn}
}

func (p *Postgres) InitDB() error {
	conn, err := sql.Open("pgx", p.dsn)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	conn.SetConnMaxIdleTime(5 * time.Minute)
	conn.SetConnMaxLifetime(30 * time.Minute)
	conn.SetMaxIdleConns(10)
	conn.SetMaxOpenConns(20)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("ping db: %w", err)
	}
	p.conn = conn

	err = initSchema(p.conn, postgresSchema)
	dbLogger.Info().Err(err).Msg("Database initialized")
	return err
}

func (p *Postgres) Get() *sql.DB {
	return p.conn
}

func (p *Postgres) Close() error {
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func (p *Postgres) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return p.QueryContext(context.Background(), query, args...)
}

func (p *Postgres) Exec(query string, args ...interface{}) (sql.Result, error) {
	return p.ExecContext(context.Background(), query, args...)
}

func (p *Postgres) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	query = Rebind(query)
	dbLogger.Debug().Str("query", query).Msg("Query")
	return p.conn.QueryContext(ctx, query, args...)
}

func (p *Postgres) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	query = Rebind(query)
	dbLogger.Debug().Str("query", query).Msg("QueryRow")
	return p.conn.QueryRowContext(ctx, query, args...)
}

func (p *Postgres) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	query = Rebind(query)
	dbLogger.Debug().Str("query", query).Msg("Exec")
	return p.conn.ExecContext(ctx, query, args...)
}

// Rebind turns '?' placeholders into Postgres' positional '$n' form.
// Question marks inside single quoted literals are left alone.
func Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inQuote := false
	for _, r := range query {
		switch {
		case r == '\'':
			inQuote = !inQuote
			b.WriteRune(r)
		case r == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
