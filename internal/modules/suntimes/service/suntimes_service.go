package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	recorddomain "sleepsun/internal/modules/record/domain"
	recordout "sleepsun/internal/modules/record/port/out"
	"sleepsun/internal/modules/suntimes/domain"
	suntimesout "sleepsun/internal/modules/suntimes/port/out"
	"sleepsun/internal/platform/clock"
	apperrors "sleepsun/internal/platform/errors"
	"sleepsun/internal/platform/logging"
)

type SunTimesService struct {
	clock   clock.Clock
	db      recordout.Database
	remote  suntimesout.RemoteSource
	timeout time.Duration
	logger  *slog.Logger
	flight  singleflight.Group
}

// NewSunTimesService accepts a nil remote, in which case misses are
// answered by the offline estimate only.
func NewSunTimesService(clock clock.Clock, db recordout.Database, remote suntimesout.RemoteSource, timeout time.Duration, logger *slog.Logger) *SunTimesService {
	return &SunTimesService{clock: clock, db: db, remote: remote, timeout: timeout, logger: logging.Component(logger, "suntimes")}
}

func (s *SunTimesService) Now() time.Time {
	return s.clock.Now()
}

func (s *SunTimesService) Get(ctx context.Context, key recorddomain.SunKey) (recorddomain.SunTimes, error) {
	return s.db.GetSun(ctx, key)
}

func (s *SunTimesService) Put(ctx context.Context, record recorddomain.SunTimes) (recorddomain.SunTimes, error) {
	record.Lat = recorddomain.RoundCoordinate(record.Lat)
	record.Lon = recorddomain.RoundCoordinate(record.Lon)
	updated := s.clock.Now().Unix()
	record.UpdatedAt = &updated
	if err := record.Validate(); err != nil {
		return recorddomain.SunTimes{}, err
	}
	if err := s.db.UpsertSun(ctx, record); err != nil {
		return recorddomain.SunTimes{}, err
	}
	return record, nil
}

func (s *SunTimesService) List(ctx context.Context, lat, lon float64, dateStart, dateEnd string) ([]recorddomain.SunTimes, error) {
	return s.db.ListSun(ctx, recorddomain.RoundCoordinate(lat), recorddomain.RoundCoordinate(lon), dateStart, dateEnd)
}

func (s *SunTimesService) All(ctx context.Context) ([]recorddomain.SunTimes, error) {
	return s.db.AllSun(ctx)
}

// Request answers from the cache, then the remote source, then the
// estimate. Only remote answers are cached. Concurrent requests for the
// same key share one remote call.
func (s *SunTimesService) Request(ctx context.Context, key recorddomain.SunKey) (recorddomain.SunTimes, domain.Source, error) {
	cached, err := s.db.GetSun(ctx, key)
	switch {
	case err == nil:
		return cached, domain.SourceCache, nil
	case !errors.Is(err, apperrors.ErrNotFound):
		return recorddomain.SunTimes{}, "", err
	}
	return s.Resolve(ctx, key)
}

// Resolve skips the cache lookup. Callers that already know the key is
// missing use it directly.
func (s *SunTimesService) Resolve(ctx context.Context, key recorddomain.SunKey) (recorddomain.SunTimes, domain.Source, error) {
	estimate, err := domain.Estimate(key)
	if err != nil {
		return recorddomain.SunTimes{}, "", apperrors.Invalid("date %q: %v", key.Date, err)
	}
	if s.remote == nil {
		return estimate, domain.SourceEstimate, nil
	}

	v, err, shared := s.flight.Do(key.String(), func() (any, error) {
		return s.fetch(ctx, key)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return recorddomain.SunTimes{}, "", ctxErr
		}
		s.logger.Warn("remote sun times unavailable, using estimate", "key", key.String(), "err", err)
		return estimate, domain.SourceEstimate, nil
	}
	record := v.(recorddomain.SunTimes)
	s.logger.Debug("sun times fetched",
		"key", key.String(),
		"shared", shared,
		"sunrise_diff", record.Sunrise-estimate.Sunrise,
		"sunset_diff", record.Sunset-estimate.Sunset,
	)
	return record, domain.SourceRemote, nil
}

func (s *SunTimesService) fetch(ctx context.Context, key recorddomain.SunKey) (recorddomain.SunTimes, error) {
	// The call is shared, so one caller going away must not fail the others.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	record, err := s.remote.Fetch(callCtx, key)
	if err != nil {
		return recorddomain.SunTimes{}, err
	}
	record.Date, record.Lat, record.Lon = key.Date, key.Lat, key.Lon
	if err := record.Validate(); err != nil {
		return recorddomain.SunTimes{}, fmt.Errorf("%w: %v", apperrors.ErrRemoteSource, err)
	}
	updated := s.clock.Now().Unix()
	record.UpdatedAt = &updated
	if err := s.db.UpsertSun(callCtx, record); err != nil {
		s.logger.Warn("cache sun times", "key", key.String(), "err", err)
	}
	return record, nil
}
