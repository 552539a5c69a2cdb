package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the wire format for timestamps: ISO 8601 without a zone
// designator. Values are always UTC with microsecond precision; trailing
// fractional zeros are trimmed.
const TimestampLayout = "2006-01-02T15:04:05.999999999"

// accepted input layouts, tried in order
var timestampLayouts = []string{
	TimestampLayout,
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
}

// Timestamp is a UTC instant exchanged as a zone-less ISO string.
// It maps to TIMESTAMP (without time zone) in Postgres and TEXT in SQLite.
type Timestamp struct {
	time.Time
}

// Precision is the finest unit kept. Postgres TIMESTAMP stores microseconds,
// so every backend stores and returns the same value.
const Precision = time.Microsecond

// NewTimestamp normalizes t to UTC and truncates it to Precision.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(Precision)}
}

// ParseTimestamp accepts the wire layout, a space-separated variant, or
// RFC 3339 with an offset. Offsets are converted to UTC.
func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewTimestamp(t), nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid timestamp %q: want YYYY-MM-DDTHH:MM:SS[.fraction]", s)
}

// String renders the wire layout.
func (t Timestamp) String() string {
	return NewTimestamp(t.Time).Format(TimestampLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string, got %s", data)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value implements driver.Valuer; drivers always receive a UTC time.
func (t Timestamp) Value() (driver.Value, error) {
	return NewTimestamp(t.Time).Time, nil
}

// Scan implements sql.Scanner. Postgres drivers hand over time.Time,
// SQLite hands over the stored TEXT.
func (t *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*t = NewTimestamp(v)
		return nil
	case string:
		parsed, err := ParseTimestamp(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case []byte:
		return t.Scan(string(v))
	case nil:
		return fmt.Errorf("timestamp: unexpected NULL")
	default:
		return fmt.Errorf("timestamp: cannot scan %T", src)
	}
}
