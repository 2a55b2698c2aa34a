package repository

import (
	"database/sql"
	"fmt"
	"time"
)

// ParseTime parses a stored date in "2006-01-02", RFC3339 or SQLite's
// "2006-01-02 15:04:05" format.
func ParseTime(str string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, str); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse date: %q", str)
}

// nullString returns the string value or "" for NULL.
func nullString(s sql.NullString) string {
	if s.Valid {
		return s.String
	}
	return ""
}
