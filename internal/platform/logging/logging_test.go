package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"sleepsun/internal/platform/logging"
)

func TestNewHonoursLevelAndFormat(t *testing.T) {
	t.Parallel()
	buf := &bytes.Buffer{}
	logger, err := logging.New(buf, "warn", "json")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logging.Component(logger, "suntimes").Info("hidden")
	logging.Component(logger, "suntimes").Warn("fallback", "date", "2024-01-02")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"component":"suntimes"`) || !strings.Contains(out, `"date":"2024-01-02"`) {
		t.Fatalf("expected component and attrs in json output, got %s", out)
	}
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	t.Parallel()
	if _, err := logging.New(&bytes.Buffer{}, "loud", "text"); err == nil {
		t.Fatalf("expected unknown level error")
	}
	if _, err := logging.New(&bytes.Buffer{}, "info", "xml"); err == nil {
		t.Fatalf("expected unknown format error")
	}
}
