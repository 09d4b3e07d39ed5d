package out

import (
	"context"

	"sleepsun/internal/modules/record/domain"
	"sleepsun/internal/platform/tx"
)

// Database is the persistence port shared by every module. All methods
// except Init and Close fail with apperrors.ErrUninitialized until Init
// has succeeded. Writes made with the ctx handed to Within are atomic.
type Database interface {
	tx.Manager

	Init(ctx context.Context) error
	Close() error

	UpsertSleep(ctx context.Context, session domain.SleepSession) error
	GetSleep(ctx context.Context, id string) (domain.SleepSession, error)
	DeleteSleep(ctx context.Context, id string) (bool, error)
	// ListSleep returns sessions ordered by end, then id.
	ListSleep(ctx context.Context, start, end int64, mode domain.MatchMode) ([]domain.SleepSession, error)
	AllSleep(ctx context.Context) ([]domain.SleepSession, error)
	CountSleep(ctx context.Context) (int, error)

	UpsertSun(ctx context.Context, sun domain.SunTimes) error
	GetSun(ctx context.Context, key domain.SunKey) (domain.SunTimes, error)
	// ListSun returns records for the rounded coordinates with
	// dateStart <= date <= dateEnd, ordered by date.
	ListSun(ctx context.Context, lat, lon float64, dateStart, dateEnd string) ([]domain.SunTimes, error)
	AllSun(ctx context.Context) ([]domain.SunTimes, error)

	ClearAll(ctx context.Context) error
}
