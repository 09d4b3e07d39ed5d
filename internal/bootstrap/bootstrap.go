package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	archiveinadapter "sleepsun/internal/modules/archive/adapter/in"
	archiveoutadapter "sleepsun/internal/modules/archive/adapter/out"
	archiveservice "sleepsun/internal/modules/archive/service"
	archiveusecase "sleepsun/internal/modules/archive/usecase"
	recordoutadapter "sleepsun/internal/modules/record/adapter/out"
	recordout "sleepsun/internal/modules/record/port/out"
	sessioninadapter "sleepsun/internal/modules/session/adapter/in"
	sessionoutadapter "sleepsun/internal/modules/session/adapter/out"
	sessiondomain "sleepsun/internal/modules/session/domain"
	sessionservice "sleepsun/internal/modules/session/service"
	sessionusecase "sleepsun/internal/modules/session/usecase"
	statsinadapter "sleepsun/internal/modules/stats/adapter/in"
	statsoutadapter "sleepsun/internal/modules/stats/adapter/out"
	statsusecase "sleepsun/internal/modules/stats/usecase"
	suntimesinadapter "sleepsun/internal/modules/suntimes/adapter/in"
	suntimesoutadapter "sleepsun/internal/modules/suntimes/adapter/out"
	suntimesout "sleepsun/internal/modules/suntimes/port/out"
	suntimesservice "sleepsun/internal/modules/suntimes/service"
	suntimesusecase "sleepsun/internal/modules/suntimes/usecase"
	"sleepsun/internal/platform/clock"
	"sleepsun/internal/platform/config"
	"sleepsun/internal/platform/id"
	"sleepsun/internal/platform/location"
	uiapp "sleepsun/internal/ui/app"
)

type App struct {
	SessionCLI sessioninadapter.CLIHandler
	SunCLI     suntimesinadapter.CLIHandler
	StatsCLI   statsinadapter.CLIHandler
	ArchiveCLI archiveinadapter.CLIHandler
	Location   location.Provider
	Config     config.Config
	Logger     *slog.Logger

	db recordout.Database
}

// NewDatabase picks the storage backend named in cfg. The handle is not
// initialized yet.
func NewDatabase(cfg config.Config) (recordout.Database, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		return recordoutadapter.NewSQLiteDatabase(cfg.StoragePath()), nil
	case config.BackendBadger:
		return recordoutadapter.NewBadgerDatabase(cfg.StoragePath()), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	clk := clock.SystemClock{}
	ids := id.UUID{}

	db, err := NewDatabase(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Init(ctx); err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
	}
	logger.Debug("storage ready", "backend", cfg.Storage.Backend, "path", cfg.StoragePath())

	sessionUC := sessionusecase.NewInteractor(
		sessionservice.NewSessionService(clk, ids, db, sessionoutadapter.NewFileCounterStore(cfg.CountersPath())),
		sessionoutadapter.NewFileActiveSessionStore(cfg.ActiveSessionPath()),
		sessiondomain.TrackingPolicy{
			MinDuration: cfg.Tracking.MinDuration,
			Restart:     sessiondomain.RestartPolicy(cfg.Tracking.RestartPolicy),
		},
		logger,
	)

	remote := NewRemoteSource(cfg)
	sunUC := suntimesusecase.NewInteractor(
		suntimesservice.NewSunTimesService(clk, db, remote, cfg.Sun.RequestTimeout, logger),
		suntimesusecase.Options{
			Concurrency:   cfg.Fetch.Concurrency,
			DispatchDelay: cfg.Fetch.DispatchDelay,
			Location:      cfg.StatsLocation(),
		},
		logger,
	)

	statsUC := statsusecase.NewInteractor(
		statsoutadapter.NewSessionReader(sessionUC),
		statsoutadapter.NewSunTimesReader(sunUC),
		statsusecase.Options{
			Location:       cfg.StatsLocation(),
			GraphMaxHeight: cfg.Stats.GraphMaxHeight,
			Split:          cfg.Stats.Split,
			SplitOffset:    cfg.Stats.SplitOffset,
		},
		logger,
	)

	archiveUC := archiveusecase.NewInteractor(
		archiveservice.NewArchiveService(clk, db, cfg.Storage.Backend),
		archiveoutadapter.NewJSONSnapshotStore(os.Stdin, os.Stdout),
		archiveoutadapter.NewSessionCounterResyncer(sessionUC),
		logger,
	)

	return &App{
		SessionCLI: sessioninadapter.NewCLIHandler(sessionUC),
		SunCLI:     suntimesinadapter.NewCLIHandler(sunUC),
		StatsCLI:   statsinadapter.NewCLIHandler(statsUC),
		ArchiveCLI: archiveinadapter.NewCLIHandler(archiveUC),
		Location: location.Chain{
			location.Static{Lat: cfg.Location.Lat, Lon: cfg.Location.Lon},
			location.UTCOffset{Clock: clk, Location: time.Local},
		},
		Config: cfg,
		Logger: logger,
		db:     db,
	}, nil
}

func (a *App) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

// Coordinates returns lat/lon when both are given, else the location
// provider's answer.
func (a *App) Coordinates(ctx context.Context, lat, lon *float64) (location.Coordinates, error) {
	if lat != nil && lon != nil {
		return location.Static{Lat: lat, Lon: lon}.Current(ctx)
	}
	coords, err := a.Location.Current(ctx)
	if err != nil {
		return location.Coordinates{}, err
	}
	if coords.Approximate {
		a.Logger.Warn("no configured location, using time zone estimate", "lat", coords.Lat, "lon", coords.Lon)
	}
	return coords, nil
}

func RunTUI(ctx context.Context, app *App) error {
	coords, err := app.Coordinates(ctx, nil, nil)
	if err != nil {
		return err
	}
	model := uiapp.NewModel(app.SessionCLI, app.SunCLI, app.StatsCLI, coords)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = program.Run()
	return err
}

// NewRemoteSource picks the sun-times provider named by cfg.Sun.Source. A
// nil source makes lookups fall back to the offline estimate.
func NewRemoteSource(cfg config.Config) suntimesout.RemoteSource {
	switch cfg.Sun.Source {
	case config.SourcePlugin:
		return suntimesoutadapter.NewPluginSource(cfg.Sun.Plugin.Binary, cfg.Sun.Plugin.SHA256)
	case config.SourceNone:
		return nil
	default:
		return suntimesoutadapter.NewSunriseSunsetClient(cfg.Sun.BaseURL, &http.Client{})
	}
}
