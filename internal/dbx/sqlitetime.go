package dbx

import (
	"fmt"
	"time"
)

// SQLiteTimeLayout is how timestamps are stored in SQLite TEXT columns.
// It sorts lexically in chronological order for UTC values.
const SQLiteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatSQLiteTime renders t for a SQLite TEXT column.
func FormatSQLiteTime(t time.Time) string {
	return t.UTC().Format(SQLiteTimeLayout)
}

// SQLiteTime scans a timestamp column written by FormatSQLiteTime. It also
// accepts values the driver already decoded and unix seconds.
type SQLiteTime struct {
	T *time.Time
}

// Scan implements sql.Scanner.
func (s SQLiteTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*s.T = v.UTC()
	case string:
		return s.parse(v)
	case []byte:
		return s.parse(string(v))
	case int64:
		*s.T = time.Unix(v, 0).UTC()
	case nil:
		*s.T = time.Time{}
	default:
		return fmt.Errorf("sqlite time: unsupported type %T", src)
	}
	return nil
}

func (s SQLiteTime) parse(v string) error {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return fmt.Errorf("sqlite time: %w", err)
	}
	*s.T = t.UTC()
	return nil
}

// SQLiteDSN turns a file path (or ":memory:") into a modernc DSN with
// foreign keys enforced and a busy timeout for concurrent writers.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}
