package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"

	SourceAPI    = "api"
	SourcePlugin = "plugin"
	SourceNone   = "none"

	RestartOverwrite = "overwrite"
	RestartReject    = "reject"

	envPrefix      = "SLEEPSUN"
	configFileName = "config.yaml"
)

type Config struct {
	DataDir  string         `mapstructure:"data_dir" yaml:"data_dir"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Sun      SunConfig      `mapstructure:"sun" yaml:"sun"`
	Fetch    FetchConfig    `mapstructure:"fetch" yaml:"fetch"`
	Tracking TrackingConfig `mapstructure:"tracking" yaml:"tracking"`
	Stats    StatsConfig    `mapstructure:"stats" yaml:"stats"`
	Location LocationConfig `mapstructure:"location" yaml:"location"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-" yaml:"-"`
}

type StorageConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Path overrides the backend location under DataDir.
	Path string `mapstructure:"path" yaml:"path,omitempty"`
}

type SunConfig struct {
	// Source selects the remote provider: api, plugin or none (estimate only).
	Source         string        `mapstructure:"source" yaml:"source"`
	BaseURL        string        `mapstructure:"base_url" yaml:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	Plugin         PluginConfig  `mapstructure:"plugin" yaml:"plugin"`
}

type PluginConfig struct {
	Binary string `mapstructure:"binary" yaml:"binary"`
	SHA256 string `mapstructure:"sha256" yaml:"sha256"`
}

type FetchConfig struct {
	Concurrency   int           `mapstructure:"concurrency" yaml:"concurrency"`
	DispatchDelay time.Duration `mapstructure:"dispatch_delay" yaml:"dispatch_delay"`
}

type TrackingConfig struct {
	MinDuration   time.Duration `mapstructure:"min_duration" yaml:"min_duration"`
	RestartPolicy string        `mapstructure:"restart_policy" yaml:"restart_policy"`
}

type StatsConfig struct {
	GraphMaxHeight float64       `mapstructure:"graph_max_height" yaml:"graph_max_height"`
	Split          time.Duration `mapstructure:"split" yaml:"split"`
	SplitOffset    time.Duration `mapstructure:"split_offset" yaml:"split_offset"`
	Timezone       string        `mapstructure:"timezone" yaml:"timezone"`
}

type LocationConfig struct {
	Lat *float64 `mapstructure:"lat" yaml:"lat,omitempty"`
	Lon *float64 `mapstructure:"lon" yaml:"lon,omitempty"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// LoadOptions carries command-line overrides. Empty fields are ignored.
type LoadOptions struct {
	ConfigFile string
	DataDir    string
	Backend    string
	LogLevel   string
}

func Defaults() Config {
	return Config{
		DataDir:  DefaultDataDir(),
		Storage:  StorageConfig{Backend: BackendSQLite},
		Sun:      SunConfig{Source: SourceAPI, BaseURL: "https://api.sunrise-sunset.org/json", RequestTimeout: 20 * time.Second},
		Fetch:    FetchConfig{Concurrency: 5, DispatchDelay: 50 * time.Millisecond},
		Tracking: TrackingConfig{MinDuration: 15 * time.Minute, RestartPolicy: RestartOverwrite},
		Stats:    StatsConfig{GraphMaxHeight: 100, Split: 24 * time.Hour, Timezone: "UTC"},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "sleepsun")
	}
	return ".sleepsun"
}

// Load layers defaults, the YAML config file, SLEEPSUN_* environment
// variables and opts, in increasing precedence.
func Load(opts LoadOptions) (Config, error) {
	v := viper.New()
	setDefaults(v, Defaults())
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range []string{"location.lat", "location.lon", "storage.path"} {
		_ = v.BindEnv(key)
	}

	if opts.DataDir != "" {
		v.Set("data_dir", opts.DataDir)
	}

	file := opts.ConfigFile
	if file == "" {
		candidate := filepath.Join(v.GetString("data_dir"), configFileName)
		if _, err := os.Stat(candidate); err == nil {
			file = candidate
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	if opts.Backend != "" {
		v.Set("storage.backend", opts.Backend)
	}
	if opts.LogLevel != "" {
		v.Set("log.level", opts.LogLevel)
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("sun.source", d.Sun.Source)
	v.SetDefault("sun.base_url", d.Sun.BaseURL)
	v.SetDefault("sun.plugin.binary", d.Sun.Plugin.Binary)
	v.SetDefault("sun.plugin.sha256", d.Sun.Plugin.SHA256)
	v.SetDefault("sun.request_timeout", d.Sun.RequestTimeout)
	v.SetDefault("fetch.concurrency", d.Fetch.Concurrency)
	v.SetDefault("fetch.dispatch_delay", d.Fetch.DispatchDelay)
	v.SetDefault("tracking.min_duration", d.Tracking.MinDuration)
	v.SetDefault("tracking.restart_policy", d.Tracking.RestartPolicy)
	v.SetDefault("stats.graph_max_height", d.Stats.GraphMaxHeight)
	v.SetDefault("stats.split", d.Stats.Split)
	v.SetDefault("stats.split_offset", d.Stats.SplitOffset)
	v.SetDefault("stats.timezone", d.Stats.Timezone)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DataDir) == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	switch c.Storage.Backend {
	case BackendSQLite, BackendBadger:
	default:
		errs = append(errs, fmt.Errorf("unknown storage backend %q", c.Storage.Backend))
	}
	switch c.Sun.Source {
	case SourceAPI, SourceNone:
	case SourcePlugin:
		if strings.TrimSpace(c.Sun.Plugin.Binary) == "" {
			errs = append(errs, errors.New("sun.plugin.binary is required for the plugin source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown sun source %q", c.Sun.Source))
	}
	switch c.Tracking.RestartPolicy {
	case RestartOverwrite, RestartReject:
	default:
		errs = append(errs, fmt.Errorf("unknown restart policy %q", c.Tracking.RestartPolicy))
	}
	if c.Tracking.MinDuration < 0 {
		errs = append(errs, errors.New("tracking.min_duration must not be negative"))
	}
	if c.Fetch.Concurrency <= 0 {
		errs = append(errs, errors.New("fetch.concurrency must be positive"))
	}
	if c.Fetch.DispatchDelay < 0 {
		errs = append(errs, errors.New("fetch.dispatch_delay must not be negative"))
	}
	if c.Sun.RequestTimeout <= 0 {
		errs = append(errs, errors.New("sun.request_timeout must be positive"))
	}
	if c.Stats.Split <= 0 {
		errs = append(errs, errors.New("stats.split must be positive"))
	}
	if c.Stats.SplitOffset < 0 || c.Stats.SplitOffset > c.Stats.Split {
		errs = append(errs, errors.New("stats.split_offset must be within [0, stats.split]"))
	}
	if c.Stats.GraphMaxHeight <= 0 {
		errs = append(errs, errors.New("stats.graph_max_height must be positive"))
	}
	if _, err := time.LoadLocation(c.Stats.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("stats.timezone: %w", err))
	}
	return errors.Join(errs...)
}

// StatsLocation resolves the time zone used for calendar-day boundaries.
func (c Config) StatsLocation() *time.Location {
	loc, err := time.LoadLocation(c.Stats.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) StoragePath() string {
	if c.Storage.Path != "" {
		return c.Storage.Path
	}
	if c.Storage.Backend == BackendBadger {
		return filepath.Join(c.DataDir, "badger")
	}
	return filepath.Join(c.DataDir, "sleepsun.db")
}

func (c Config) ActiveSessionPath() string {
	return filepath.Join(c.DataDir, "active-session.json")
}

func (c Config) CountersPath() string {
	return filepath.Join(c.DataDir, "counters.json")
}

func (c Config) DefaultFile() string {
	return filepath.Join(c.DataDir, configFileName)
}

// Marshal renders cfg in the YAML layout Load reads back.
func Marshal(cfg Config) ([]byte, error) {
	payload, err := yaml.Marshal(toFile(cfg))
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return payload, nil
}

// Save writes cfg as YAML to path.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	payload, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// fileConfig spells durations the way viper reads them back.
type fileConfig struct {
	DataDir  string         `yaml:"data_dir"`
	Storage  StorageConfig  `yaml:"storage"`
	Sun      map[string]any `yaml:"sun"`
	Fetch    map[string]any `yaml:"fetch"`
	Tracking map[string]any `yaml:"tracking"`
	Stats    map[string]any `yaml:"stats"`
	Location LocationConfig `yaml:"location,omitempty"`
	Log      LogConfig      `yaml:"log"`
}

func toFile(c Config) fileConfig {
	return fileConfig{
		DataDir: c.DataDir,
		Storage: c.Storage,
		Sun: map[string]any{
			"source":          c.Sun.Source,
			"base_url":        c.Sun.BaseURL,
			"request_timeout": c.Sun.RequestTimeout.String(),
			"plugin": map[string]any{
				"binary": c.Sun.Plugin.Binary,
				"sha256": c.Sun.Plugin.SHA256,
			},
		},
		Fetch: map[string]any{
			"concurrency":    c.Fetch.Concurrency,
			"dispatch_delay": c.Fetch.DispatchDelay.String(),
		},
		Tracking: map[string]any{
			"min_duration":   c.Tracking.MinDuration.String(),
			"restart_policy": c.Tracking.RestartPolicy,
		},
		Stats: map[string]any{
			"graph_max_height": c.Stats.GraphMaxHeight,
			"split":            c.Stats.Split.String(),
			"split_offset":     c.Stats.SplitOffset.String(),
			"timezone":         c.Stats.Timezone,
		},
		Location: c.Location,
		Log:      c.Log,
	}
}
