package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"sleepsun/internal/bootstrap"
	"sleepsun/internal/platform/config"
	"sleepsun/internal/platform/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	dataDir    string
	configFile string
	backend    string
	logLevel   string
	jsonOut    bool
}

func (f rootFlags) loadOptions() config.LoadOptions {
	return config.LoadOptions{
		ConfigFile: f.configFile,
		DataDir:    f.dataDir,
		Backend:    f.backend,
		LogLevel:   f.logLevel,
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "sleepsun",
		Short:         "Track sleep against sunrise and sunset",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: user config dir)")
	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default: <data-dir>/config.yaml)")
	root.PersistentFlags().StringVar(&flags.backend, "backend", "", "storage backend: sqlite|badger")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug|info|warn|error")
	root.PersistentFlags().BoolVar(&flags.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(newTUICmd(flags))
	root.AddCommand(newSessionCmd(flags))
	root.AddCommand(newSunCmd(flags))
	root.AddCommand(newStatsCmd(flags))
	root.AddCommand(newDataCmd(flags))
	root.AddCommand(newConfigCmd(flags))
	return root
}

// withApp loads configuration, builds the application and closes it after
// fn returns.
func withApp(cmd *cobra.Command, flags *rootFlags, fn func(*bootstrap.App) error) error {
	return withAppLogTo(cmd, flags, cmd.ErrOrStderr(), fn)
}

func withAppLogTo(cmd *cobra.Command, flags *rootFlags, logOut io.Writer, fn func(*bootstrap.App) error) error {
	cfg, err := config.Load(flags.loadOptions())
	if err != nil {
		return err
	}
	logger, err := logging.New(logOut, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	app, err := bootstrap.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	return fn(app)
}

func newTUICmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the sleep tracker terminal UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flags.loadOptions())
			if err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}
			// The alternate screen owns stderr while the UI runs.
			logFile, err := os.OpenFile(filepath.Join(cfg.DataDir, "sleepsun.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer func() { _ = logFile.Close() }()
			return withAppLogTo(cmd, flags, logFile, func(app *bootstrap.App) error {
				return bootstrap.RunTUI(cmd.Context(), app)
			})
		},
	}
}
