package db

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/debemdeboas/quill/internal/config"
	"github.com/rs/zerolog"
)

const failedToInitDB = "Failed to initialize database: %v"

const select1 = `SELECT 1`
const insertUserUsername = `INSERT INTO users (id, username) VALUES (?, ?)`

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	SetLogger(zerolog.New(os.Stdout).Level(zerolog.ErrorLevel))

	db := NewSQLiteAt(filepath.Join(t.TempDir(), "test.db"))
	if err := db.InitDB(); err != nil {
		t.Fatalf(failedToInitDB, err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewSQLite(t *testing.T) {
	db := NewSQLite()

	if db == nil {
		t.Fatal("Expected non-nil SQLite instance")
	}
	if db.conn != nil {
		t.Error("Expected connection to be nil initially")
	}
	if db.path != defaultSQLitePath {
		t.Errorf("Expected default path, got %q", db.path)
	}
	if NewSQLiteAt("").path != defaultSQLitePath {
		t.Error("Expected empty path to fall back to the default")
	}
}

func TestOpen(t *testing.T) {
	testCases := []struct {
		name        string
		cfg         config.DatabaseConfig
		expectType  string
		expectError bool
	}{
		{"SQLite", config.DatabaseConfig{Driver: config.DriverSQLite, DSN: ":memory:"}, "*db.SQLite", false},
		{"Empty driver", config.DatabaseConfig{}, "*db.SQLite", false},
		{"Postgres", config.DatabaseConfig{Driver: config.DriverPostgres, DSN: "postgres://localhost/quill"}, "*db.Postgres", false},
		{"Unknown", config.DatabaseConfig{Driver: "oracle"}, "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Open(tc.cfg)
			if tc.expectError {
				if err == nil {
					t.Error("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			typeName := ""
			switch got.(type) {
			case *SQLite:
				typeName = "*db.SQLite"
			case *Postgres:
				typeName = "*db.Postgres"
			}
			if typeName != tc.expectType {
				t.Errorf("Expected %s, got %T", tc.expectType, got)
			}
		})
	}
}

func TestSQLiteSchema(t *testing.T) {
	db := newTestSQLite(t)

	if err := db.Get().Ping(); err != nil {
		t.Errorf("Failed to ping database: %v", err)
	}

	for _, table := range []string{"users", "drafts", "posts"} {
		var name string
		err := db.Get().QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		if err != nil {
			t.Errorf("Expected table %s to exist: %v", table, err)
		}
	}

	t.Run("InitDB is idempotent", func(t *testing.T) {
		if err := initSchema(db.Get(), sqliteSchema); err != nil {
			t.Errorf("Expected schema to apply twice, got %v", err)
		}
	})
}

func TestSQLiteQueryAndExec(t *testing.T) {
	db := newTestSQLite(t)
	ctx := context.Background()

	rows, err := db.Query(select1)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	rows.Close()

	if _, err := db.ExecContext(ctx, insertUserUsername, "u1", "alice"); err != nil {
		t.Fatalf("ExecContext failed: %v", err)
	}

	var username string
	if err := db.QueryRowContext(ctx, `SELECT username FROM users WHERE id = ?`, "u1").Scan(&username); err != nil {
		t.Fatalf("QueryRowContext failed: %v", err)
	}
	if username != "alice" {
		t.Errorf("Expected 'alice', got %q", username)
	}

	rows, err = db.QueryContext(ctx, `SELECT id FROM users`)
	if err != nil {
		t.Fatalf("QueryContext failed: %v", err)
	}
	count := 0
	for rows.Next() {
		count++
	}
	rows.Close()
	if count != 1 {
		t.Errorf("Expected 1 user, got %d", count)
	}
}

func TestSQLiteErrorHandling(t *testing.T) {
	t.Run("Query on uninitialized database", func(t *testing.T) {
		SetLogger(zerolog.New(os.Stdout).Level(zerolog.ErrorLevel))
		db := NewSQLite()
		defer db.Close()

		defer func() {
			if r := recover(); r == nil {
				t.Error("Expected panic when querying uninitialized database")
			}
		}()

		db.Query(select1) // This will panic due to nil connection
	})

	t.Run("Invalid SQL exec", func(t *testing.T) {
		db := newTestSQLite(t)

		_, err := db.Exec("INVALID SQL SYNTAX")
		if err == nil {
			t.Error("Expected error for invalid SQL")
		}
	})

	t.Run("Constraint violation", func(t *testing.T) {
		db := newTestSQLite(t)

		if _, err := db.Exec(insertUserUsername, "user1", "same"); err != nil {
			t.Fatalf("Failed to insert first user: %v", err)
		}

		_, err := db.Exec(insertUserUsername, "user2", "same")
		if err == nil {
			t.Fatal("Expected constraint violation error for duplicate username")
		}
		if !strings.Contains(err.Error(), "UNIQUE") && !strings.Contains(err.Error(), "constraint") {
			t.Errorf("Expected UNIQUE constraint error, got: %v", err)
		}
	})

	t.Run("Close uninitialized", func(t *testing.T) {
		if err := NewSQLite().Close(); err != nil {
			t.Errorf("Expected nil error closing unopened db, got %v", err)
		}
		if err := NewPostgres("").Close(); err != nil {
			t.Errorf("Expected nil error closing unopened postgres, got %v", err)
		}
	})
}

func TestRebind(t *testing.T) {
	testCases := []struct {
		in, out string
	}{
		{`SELECT 1`, `SELECT 1`},
		{`SELECT * FROM drafts WHERE id = ?`, `SELECT * FROM drafts WHERE id = $1`},
		{`UPDATE posts SET title = ?, content = ? WHERE id = ?`, `UPDATE posts SET title = $1, content = $2 WHERE id = $3`},
		{`SELECT '?' FROM t WHERE a = ?`, `SELECT '?' FROM t WHERE a = $1`},
	}

	for _, tc := range testCases {
		if got := Rebind(tc.in); got != tc.out {
			t.Errorf("Rebind(%q) = %q, want %q", tc.in, got, tc.out)
		}
	}
}
