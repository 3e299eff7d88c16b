// Package migrations embeds the versioned schema for every supported SQL
// dialect and applies it with goose.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var embedMigrations embed.FS

// Supported dialect names, matching the database/sql driver names.
const (
	DialectPostgres = "pgx"
	DialectSQLite   = "sqlite3"
)

var dirs = map[string]string{
	DialectPostgres: "postgres",
	DialectSQLite:   "sqlite",
}

// goose keeps its configuration in package globals.
var gooseMu sync.Mutex

// Migrate applies every pending migration for dialect. log may be nil, in
// which case goose's default logger is used.
func Migrate(db *sql.DB, dialect string, log goose.Logger) error {
	if db == nil {
		return errors.New("migration error: db is nil")
	}

	dir, ok := dirs[dialect]
	if !ok {
		return fmt.Errorf("migration error: unsupported dialect %q", dialect)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(embedMigrations)
	if log != nil {
		goose.SetLogger(log)
	}

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}
