// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/cenkalti/backoff/v4"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/MKhiriev/go-drive-pool/internal/config"
	"github.com/MKhiriev/go-drive-pool/internal/logger"
	"github.com/MKhiriev/go-drive-pool/migrations"
)

// Dialect names the SQL backend behind a [DB]. Its value is the
// database/sql driver name.
type Dialect string

const (
	DialectPostgres Dialect = migrations.DialectPostgres
	DialectSQLite   Dialect = migrations.DialectSQLite
)

var (
	postgresBuilder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	sqliteBuilder   = sq.StatementBuilder.PlaceholderFormat(sq.Question)
)

// DB wraps *sql.DB with the dialect-specific query builder, the error
// classifier used to decide on retries, and the retry budget.
type DB struct {
	*sql.DB
	dialect            Dialect
	builder            sq.StatementBuilderType
	errorClassificator ErrorClassificator
	retryMaxElapsed    time.Duration
	logger             *logger.Logger
}

// NewDB opens the database named by cfg.DSN, picking the driver from the DSN
// form, and pings it, retrying until cfg.RetryMaxElapsed runs out.
func NewDB(ctx context.Context, cfg config.DB, log *logger.Logger) (*DB, error) {
	dialect, dsn, err := ParseDSN(cfg.DSN)
	if err != nil {
		log.Err(err).Str("func", "NewDB").Msg("error parsing database DSN")
		return nil, err
	}

	conn, err := sql.Open(string(dialect), dsn)
	if err != nil {
		log.Err(err).Str("func", "NewDB").Msg("error occurred during database connection")
		return nil, fmt.Errorf("error occurred during database connection: %w", err)
	}

	switch dialect {
	case DialectSQLite:
		// a single writer avoids SQLITE_BUSY and keeps in-memory databases shared
		conn.SetMaxOpenConns(1)
	default:
		if cfg.MaxOpenConns > 0 {
			conn.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			conn.SetMaxIdleConns(cfg.MaxIdleConns)
		}
	}

	db := newDB(conn, dialect, log)
	db.retryMaxElapsed = cfg.RetryMaxElapsed

	ping := func() error { return conn.PingContext(ctx) }
	if err = backoff.Retry(ping, backoff.WithContext(db.newBackOff(), ctx)); err != nil {
		log.Err(err).Str("func", "NewDB").Msg("error connecting database (ping)")
		_ = conn.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	log.Info().Str("func", "NewDB").Str("dialect", string(dialect)).Msg("connected to database successfully")

	return db, nil
}

// newDB assembles a [DB] around an already opened connection.
func newDB(conn *sql.DB, dialect Dialect, log *logger.Logger) *DB {
	db := &DB{
		DB:      conn,
		dialect: dialect,
		logger:  log,
	}

	switch dialect {
	case DialectSQLite:
		db.builder = sqliteBuilder
		db.errorClassificator = NewSQLiteErrorClassifier()
	default:
		db.builder = postgresBuilder
		db.errorClassificator = NewPostgresErrorClassifier()
	}

	return db
}

// Dialect reports which SQL backend the connection talks to.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Migrate applies the embedded schema migrations for the connection's dialect.
func (db *DB) Migrate() error {
	return migrations.Migrate(db.DB, string(db.dialect), db.logger)
}

// ParseDSN detects the dialect from a DSN and returns the DSN in the form the
// driver expects.
//
//	postgres://..., postgresql://..., host=... -> pgx
//	sqlite://path, file:..., :memory:           -> sqlite3 (foreign keys on)
func ParseDSN(dsn string) (Dialect, string, error) {
	dsn = strings.TrimSpace(dsn)

	switch {
	case dsn == "":
		return "", "", fmt.Errorf("%w: empty", ErrUnsupportedDSN)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DialectPostgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return DialectSQLite, sqliteDSN(strings.TrimPrefix(dsn, "sqlite://")), nil
	case strings.HasPrefix(dsn, "file:"), dsn == ":memory:":
		return DialectSQLite, sqliteDSN(dsn), nil
	case strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname="):
		return DialectPostgres, dsn, nil
	}

	return "", "", fmt.Errorf("%w: %q", ErrUnsupportedDSN, dsn)
}

// newBackOff returns the retry policy for transient database errors.
// A zero budget means a single attempt.
func (db *DB) newBackOff() backoff.BackOff {
	if db.retryMaxElapsed <= 0 {
		return &backoff.StopBackOff{}
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = time.Second
	b.MaxElapsedTime = db.retryMaxElapsed
	return b
}

// retry runs op until it succeeds, fails with an error the classifier deems
// non-retryable, or the retry budget is spent.
func (db *DB) retry(ctx context.Context, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if db.errorClassificator != nil && db.errorClassificator.Classify(err) == Retryable {
			logger.FromContext(ctx).Warn().Err(err).Str("func", "*DB.retry").Msg("retrying transient database error")
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(db.newBackOff(), ctx))
}

// inTx runs fn inside a transaction, committing on success and rolling back
// otherwise. The whole transaction is retried on transient errors.
func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return db.retry(ctx, func() error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
		}

		if err = fn(tx); err != nil {
			_ = tx.Rollback()
			return err
		}

		if err = tx.Commit(); err != nil {
			return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
		}

		return nil
	})
}
