package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// TimestampLayout is the wire format for timestamps.  Values carry no zone
// and are interpreted as UTC.
const TimestampLayout = "2006-01-02T15:04:05"

// DateLayout is accepted wherever a registration date is expected.
const DateLayout = "2006-01-02"

var (
	errAbsent    = errors.New("absent")
	errNotString = errors.New("not a string")
)

// ParseTimestamp parses s as a naive UTC timestamp in TimestampLayout.
// Other separators, zones and fractional seconds are rejected.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// ParseDate accepts a full timestamp or a bare date (midnight UTC).
func ParseDate(s string) (time.Time, error) {
	if t, err := ParseTimestamp(s); err == nil {
		return t, nil
	}
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string { return t.UTC().Format(TimestampLayout) }

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// rawString decodes a JSON string, reporting errAbsent for a missing or null
// value and errNotString for any other JSON type.
func rawString(raw json.RawMessage) (string, error) {
	if isAbsent(raw) {
		return "", errAbsent
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", errNotString
	}
	return s, nil
}

// rawTimestamp decodes and parses a JSON timestamp string.
func rawTimestamp(raw json.RawMessage) (time.Time, error) {
	s, err := rawString(raw)
	if err != nil {
		return time.Time{}, err
	}
	return ParseTimestamp(s)
}
