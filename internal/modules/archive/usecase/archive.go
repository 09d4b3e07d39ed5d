package usecase

import (
	"context"
	"log/slog"

	"sleepsun/internal/modules/archive/dto"
	archivein "sleepsun/internal/modules/archive/port/in"
	archiveout "sleepsun/internal/modules/archive/port/out"
	"sleepsun/internal/modules/archive/service"
	"sleepsun/internal/platform/logging"
)

type Interactor struct {
	svc      *service.ArchiveService
	store    archiveout.SnapshotStore
	counters archiveout.CounterResyncer
	logger   *slog.Logger
}

func NewInteractor(svc *service.ArchiveService, store archiveout.SnapshotStore, counters archiveout.CounterResyncer, logger *slog.Logger) archivein.Usecase {
	return &Interactor{svc: svc, store: store, counters: counters, logger: logging.Component(logger, "archive")}
}

func (i *Interactor) Export(ctx context.Context, path string) (dto.ExportOutput, error) {
	snapshot, err := i.svc.Snapshot(ctx)
	if err != nil {
		return dto.ExportOutput{}, err
	}
	if err := i.store.Write(ctx, path, snapshot); err != nil {
		return dto.ExportOutput{}, err
	}
	i.logger.Info("snapshot exported", "path", path, "sessions", len(snapshot.SleepSessions), "sun_times", len(snapshot.SunTimes))
	return dto.ExportOutput{Path: path, SleepSessions: len(snapshot.SleepSessions), SunTimes: len(snapshot.SunTimes)}, nil
}

func (i *Interactor) Import(ctx context.Context, input dto.ImportInput) (dto.ImportOutput, error) {
	snapshot, err := i.store.Read(ctx, input.Path)
	if err != nil {
		return dto.ImportOutput{}, err
	}
	if err := i.svc.Restore(ctx, snapshot, input.ClearFirst); err != nil {
		return dto.ImportOutput{}, err
	}
	count, err := i.counters.ResyncCounters(ctx)
	if err != nil {
		return dto.ImportOutput{}, err
	}
	i.logger.Info("snapshot imported",
		"path", input.Path, "clear_first", input.ClearFirst,
		"sessions", len(snapshot.SleepSessions), "sun_times", len(snapshot.SunTimes),
	)
	return dto.ImportOutput{
		SleepSessions: len(snapshot.SleepSessions),
		SunTimes:      len(snapshot.SunTimes),
		Cleared:       input.ClearFirst,
		SessionCount:  count,
	}, nil
}

func (i *Interactor) Clear(ctx context.Context) error {
	if err := i.svc.Clear(ctx); err != nil {
		return err
	}
	if _, err := i.counters.ResyncCounters(ctx); err != nil {
		return err
	}
	i.logger.Warn("all records cleared")
	return nil
}
