package store

import "strings"

// sqliteDSN turns a path or file: URI into a go-sqlite3 DSN with foreign key
// enforcement and a busy timeout enabled.
func sqliteDSN(dsn string) string {
	if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}

	params := make([]string, 0, 2)
	if !strings.Contains(dsn, "_foreign_keys") && !strings.Contains(dsn, "_fk=") {
		params = append(params, "_foreign_keys=on")
	}
	if !strings.Contains(dsn, "_busy_timeout") && !strings.Contains(dsn, "_timeout=") {
		params = append(params, "_busy_timeout=5000")
	}
	if len(params) == 0 {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}
