//go:build !cgo

package store

import (
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteErrorClassifier treats every error as non-retryable when the SQLite
// driver is built without cgo and therefore cannot open databases at all.
type SQLiteErrorClassifier struct{}

func NewSQLiteErrorClassifier() *SQLiteErrorClassifier {
	return &SQLiteErrorClassifier{}
}

func (c *SQLiteErrorClassifier) Classify(error) ErrorClassification {
	return NonRetryable
}

func sqliteUniqueViolation(error) bool {
	return false
}
