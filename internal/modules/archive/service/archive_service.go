package service

import (
	"context"

	"sleepsun/internal/modules/archive/domain"
	recordout "sleepsun/internal/modules/record/port/out"
	"sleepsun/internal/platform/clock"
)

type ArchiveService struct {
	clock   clock.Clock
	db      recordout.Database
	backend string
}

func NewArchiveService(clock clock.Clock, db recordout.Database, backend string) *ArchiveService {
	return &ArchiveService{clock: clock, db: db, backend: backend}
}

// Snapshot reads both tables in one transaction so the export is
// consistent.
func (s *ArchiveService) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	snapshot := domain.Snapshot{
		Meta: domain.Meta{
			ExportedAt: s.clock.Now().Unix(),
			Version:    domain.Version,
			Backend:    s.backend,
		},
	}
	err := s.db.Within(ctx, func(ctx context.Context) error {
		sessions, err := s.db.AllSleep(ctx)
		if err != nil {
			return err
		}
		suns, err := s.db.AllSun(ctx)
		if err != nil {
			return err
		}
		snapshot.SleepSessions, snapshot.SunTimes = sessions, suns
		return nil
	})
	if err != nil {
		return domain.Snapshot{}, err
	}
	return snapshot, nil
}

// Restore upserts every record as stored, optionally wiping the database
// first. Either all of it lands or none of it does.
func (s *ArchiveService) Restore(ctx context.Context, snapshot domain.Snapshot, clearFirst bool) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}
	return s.db.Within(ctx, func(ctx context.Context) error {
		if clearFirst {
			if err := s.db.ClearAll(ctx); err != nil {
				return err
			}
		}
		for _, session := range snapshot.SleepSessions {
			if err := s.db.UpsertSleep(ctx, session); err != nil {
				return err
			}
		}
		for _, sun := range snapshot.SunTimes {
			if err := s.db.UpsertSun(ctx, sun); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *ArchiveService) Clear(ctx context.Context) error {
	return s.db.ClearAll(ctx)
}
