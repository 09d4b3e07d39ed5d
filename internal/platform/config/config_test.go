package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"sleepsun/internal/platform/config"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(config.LoadOptions{DataDir: dir})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage.Backend != config.BackendSQLite {
		t.Fatalf("expected sqlite backend, got %q", cfg.Storage.Backend)
	}
	if cfg.Fetch.Concurrency != 5 || cfg.Fetch.DispatchDelay != 50*time.Millisecond {
		t.Fatalf("unexpected fetch defaults: %+v", cfg.Fetch)
	}
	if cfg.Sun.RequestTimeout != 20*time.Second || cfg.Tracking.MinDuration != 15*time.Minute {
		t.Fatalf("unexpected timing defaults: %+v %+v", cfg.Sun, cfg.Tracking)
	}
	if cfg.StoragePath() != filepath.Join(dir, "sleepsun.db") {
		t.Fatalf("unexpected storage path %s", cfg.StoragePath())
	}
	if cfg.File != "" {
		t.Fatalf("expected no config file, got %s", cfg.File)
	}
}

func TestSaveThenLoadRoundTripsFileValues(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.DataDir = dir
	cfg.Storage.Backend = config.BackendBadger
	cfg.Tracking.MinDuration = 0
	cfg.Tracking.RestartPolicy = config.RestartReject
	cfg.Stats.SplitOffset = 12 * time.Hour
	lat := 48.86
	cfg.Location.Lat = &lat
	if err := config.Save(cfg.DefaultFile(), cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := config.Load(config.LoadOptions{DataDir: dir})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.File == "" {
		t.Fatalf("expected config file to be picked up from data dir")
	}
	if loaded.Storage.Backend != config.BackendBadger || loaded.StoragePath() != filepath.Join(dir, "badger") {
		t.Fatalf("expected badger backend, got %+v", loaded.Storage)
	}
	if loaded.Tracking.MinDuration != 0 || loaded.Tracking.RestartPolicy != config.RestartReject {
		t.Fatalf("unexpected tracking config %+v", loaded.Tracking)
	}
	if loaded.Stats.SplitOffset != 12*time.Hour {
		t.Fatalf("expected 12h split offset, got %s", loaded.Stats.SplitOffset)
	}
	if loaded.Location.Lat == nil || *loaded.Location.Lat != 48.86 || loaded.Location.Lon != nil {
		t.Fatalf("unexpected location %+v", loaded.Location)
	}
}

func TestLoadEnvAndOverridesAndValidation(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SLEEPSUN_FETCH_CONCURRENCY", "2")
	t.Setenv("SLEEPSUN_TRACKING_MIN_DURATION", "30m")
	cfg, err := config.Load(config.LoadOptions{DataDir: dir, LogLevel: "debug"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Fetch.Concurrency != 2 || cfg.Tracking.MinDuration != 30*time.Minute || cfg.Log.Level != "debug" {
		t.Fatalf("env/flag overrides not applied: %+v %+v %+v", cfg.Fetch, cfg.Tracking, cfg.Log)
	}

	if _, err := config.Load(config.LoadOptions{DataDir: dir, Backend: "postgres"}); err == nil {
		t.Fatalf("expected unknown backend to fail validation")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("stats:\n  split: 1h\n  split_offset: 2h\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := config.Load(config.LoadOptions{ConfigFile: bad, DataDir: dir}); err == nil {
		t.Fatalf("expected offset > split to fail validation")
	}
}

func TestSunSourceValidation(t *testing.T) {
	cfg := config.Defaults()
	cfg.DataDir = t.TempDir()
	if cfg.Sun.Source != config.SourceAPI {
		t.Fatalf("expected api source by default, got %q", cfg.Sun.Source)
	}
	cfg.Sun.Source = config.SourcePlugin
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected plugin source without binary to fail")
	}
	cfg.Sun.Plugin.Binary = "/usr/local/bin/sunestimate"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("plugin source with binary: %v", err)
	}
	cfg.Sun.Source = "carrier-pigeon"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unknown source to fail")
	}

	t.Setenv("SLEEPSUN_SUN_SOURCE", "none")
	loaded, err := config.Load(config.LoadOptions{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Sun.Source != config.SourceNone {
		t.Fatalf("expected env to select the none source, got %q", loaded.Sun.Source)
	}
}
