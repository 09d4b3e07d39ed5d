// Package timeparse turns loosely typed timestamp inputs into epoch seconds.
package timeparse

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	apperrors "sleepsun/internal/platform/errors"
)

// Numbers at or above this magnitude are read as epoch milliseconds.
const millisThreshold = 1e11

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// Parse accepts epoch seconds or milliseconds (numeric or string), time.Time
// values and ISO 8601 strings. Strings without a zone are read as UTC.
func Parse(v any) (int64, error) {
	switch t := v.(type) {
	case nil:
		return 0, apperrors.Invalid("timestamp is required")
	case int:
		return fromNumber(float64(t))
	case int64:
		return fromNumber(float64(t))
	case int32:
		return fromNumber(float64(t))
	case float64:
		return fromNumber(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, apperrors.Invalid("timestamp %q is not a number", t.String())
		}
		return fromNumber(f)
	case time.Time:
		if t.IsZero() {
			return 0, apperrors.Invalid("timestamp is zero")
		}
		return t.Unix(), nil
	case *time.Time:
		if t == nil {
			return 0, apperrors.Invalid("timestamp is required")
		}
		return Parse(*t)
	case string:
		return fromString(t)
	default:
		return 0, apperrors.Invalid("unsupported timestamp type %T", v)
	}
}

// Optional is Parse for fields that may be absent: nil yields ok=false.
func Optional(v any) (int64, bool, error) {
	if v == nil {
		return 0, false, nil
	}
	if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
		return 0, false, nil
	}
	sec, err := Parse(v)
	if err != nil {
		return 0, false, err
	}
	return sec, true, nil
}

// Date parses a YYYY-MM-DD calendar date (or any accepted timestamp) and
// returns it normalised to YYYY-MM-DD in UTC.
func Date(v any) (string, error) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if d, err := time.Parse("2006-01-02", s); err == nil {
			return d.Format("2006-01-02"), nil
		}
	}
	sec, err := Parse(v)
	if err != nil {
		return "", err
	}
	return time.Unix(sec, 0).UTC().Format("2006-01-02"), nil
}

func fromNumber(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, apperrors.Invalid("timestamp is not finite")
	}
	if math.Abs(f) >= millisThreshold {
		return int64(math.Floor(f / 1000)), nil
	}
	return int64(math.Floor(f)), nil
}

func fromString(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, apperrors.Invalid("timestamp is required")
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromNumber(f)
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Unix(), nil
		}
	}
	return 0, apperrors.Invalid("unparsable timestamp %q", s)
}
