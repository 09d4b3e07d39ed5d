package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func run(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--data-dir", dataDir}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func decode(t *testing.T, raw string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		t.Fatalf("decode %q: %v", raw, err)
	}
}

func TestCommandsRoundTripThroughStorage(t *testing.T) {
	t.Setenv("SLEEPSUN_SUN_SOURCE", "none")
	dir := t.TempDir()

	if _, err := run(t, dir, "session", "create", "--id", "n1",
		"--start", "2024-03-01T22:00:00Z", "--end", "2024-03-02T06:30:00Z", "--lat", "52.52", "--lon", "13.4"); err != nil {
		t.Fatalf("create: %v", err)
	}

	raw, err := run(t, dir, "--json", "session", "get", "n1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var session struct {
		ID              string
		DurationSeconds int64
		Lat             *float64
	}
	decode(t, raw, &session)
	if session.ID != "n1" || session.DurationSeconds != 30600 || session.Lat == nil || *session.Lat != 52.52 {
		t.Fatalf("unexpected session %+v", session)
	}

	raw, err = run(t, dir, "--json", "stats", "averages", "--from", "2024-03-01T00:00:00Z", "--to", "2024-03-03T00:00:00Z")
	if err != nil {
		t.Fatalf("averages: %v", err)
	}
	var averages struct {
		Count            int
		DurationMeanTime string
	}
	decode(t, raw, &averages)
	if averages.Count != 1 || averages.DurationMeanTime != "08:30:00" {
		t.Fatalf("unexpected averages %+v", averages)
	}

	raw, err = run(t, dir, "--json", "sun", "request", "--date", "2024-03-02", "--lat", "52.52", "--lon", "13.4")
	if err != nil {
		t.Fatalf("sun request: %v", err)
	}
	var sun struct {
		Date   string
		Source string
	}
	decode(t, raw, &sun)
	if sun.Date != "2024-03-02" || sun.Source != "estimate" {
		t.Fatalf("expected an uncached estimate, got %+v", sun)
	}

	raw, err = run(t, dir, "--json", "session", "counters")
	if err != nil {
		t.Fatalf("counters: %v", err)
	}
	var counters struct {
		LastSessionID string
		SessionCount  int
	}
	decode(t, raw, &counters)
	if counters.SessionCount != 1 || counters.LastSessionID != "n1" {
		t.Fatalf("unexpected counters %+v", counters)
	}
}

func TestClearRequiresConfirmation(t *testing.T) {
	_, err := run(t, t.TempDir(), "data", "clear")
	if err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Fatalf("expected confirmation error, got %v", err)
	}
}

func TestBarScalesToWidth(t *testing.T) {
	if got := bar(50, 100, 10); strings.Count(got, "·") != 5 {
		t.Fatalf("expected half-filled bar, got %q", got)
	}
	if got := bar(1, 0, 10); got != "" {
		t.Fatalf("expected empty bar without a maximum, got %q", got)
	}
}
