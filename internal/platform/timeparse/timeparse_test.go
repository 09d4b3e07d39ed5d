package timeparse_test

import (
	"errors"
	"testing"
	"time"

	apperrors "sleepsun/internal/platform/errors"
	"sleepsun/internal/platform/timeparse"
)

func TestParseAcceptsSupportedShapes(t *testing.T) {
	t.Parallel()
	want := time.Date(2024, 1, 2, 7, 0, 0, 0, time.UTC).Unix()
	cases := map[string]any{
		"seconds int":      want,
		"seconds float":    float64(want),
		"milliseconds":     want * 1000,
		"numeric string":   "1704178800",
		"millis string":    "1704178800000",
		"time value":       time.Date(2024, 1, 2, 8, 0, 0, 0, time.FixedZone("CET", 3600)),
		"rfc3339":          "2024-01-02T07:00:00Z",
		"rfc3339 offset":   "2024-01-02T09:00:00+02:00",
		"naive local time": "2024-01-02T07:00:00",
	}
	for name, input := range cases {
		got, err := timeparse.Parse(input)
		if err != nil {
			t.Fatalf("%s: parse: %v", name, err)
		}
		if got != want {
			t.Fatalf("%s: expected %d, got %d", name, want, got)
		}
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	t.Parallel()
	for _, input := range []any{nil, "", "yesterday", struct{}{}, time.Time{}} {
		if _, err := timeparse.Parse(input); !errors.Is(err, apperrors.ErrValidation) {
			t.Fatalf("expected validation error for %#v, got %v", input, err)
		}
	}
}

func TestOptionalAndDate(t *testing.T) {
	t.Parallel()
	if _, ok, err := timeparse.Optional(nil); ok || err != nil {
		t.Fatalf("nil should be absent, got ok=%v err=%v", ok, err)
	}
	if _, _, err := timeparse.Optional("nope"); err == nil {
		t.Fatalf("expected error for bad optional value")
	}
	date, err := timeparse.Date("2024-03-05")
	if err != nil || date != "2024-03-05" {
		t.Fatalf("expected 2024-03-05, got %q (%v)", date, err)
	}
	date, err = timeparse.Date(int64(1704178800))
	if err != nil || date != "2024-01-02" {
		t.Fatalf("expected 2024-01-02 from epoch, got %q (%v)", date, err)
	}
}
