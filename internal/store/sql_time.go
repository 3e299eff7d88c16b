package store

import (
	"fmt"
	"time"
)

// sqliteTimeLayouts are the text forms go-sqlite3 writes and reads back.
var sqliteTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// scanTime scans a nullable timestamp. SQLite hands back plain text for
// columns without a declared type (RETURNING lists among them), so text is
// parsed as well.
type scanTime struct {
	Time  time.Time
	Valid bool
}

func (t *scanTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = v, true
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	}
	return fmt.Errorf("unsupported time value of type %T", src)
}

func (t *scanTime) parse(s string) error {
	for _, layout := range sqliteTimeLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time, t.Valid = parsed, true
			return nil
		}
	}
	return fmt.Errorf("unrecognized time value %q", s)
}

// Ptr returns nil for NULL.
func (t scanTime) Ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
