package models

import (
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
)

// Float is a float64 that scans tolerantly from the dynamically typed ETL
// tables. SQLite stores integral values as INTEGERs there, so a numeric
// column can hand back int64, float64 or text depending on the row.
type Float float64

var _ driver.Valuer = Float(0)

func (f Float) Value() (driver.Value, error) {
	return float64(f), nil
}

func (f *Float) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*f = 0
	case float64:
		*f = Float(v)
	case int64:
		*f = Float(v)
	case []byte:
		return f.parse(string(v))
	case string:
		return f.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into Float", value)
	}
	return nil
}

func (f *Float) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("cannot scan %q into Float: %w", s, err)
	}
	*f = Float(v)
	return nil
}
