package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	recorddomain "sleepsun/internal/modules/record/domain"
	recordout "sleepsun/internal/modules/record/port/out"
	"sleepsun/internal/modules/session/domain"
	sessionout "sleepsun/internal/modules/session/port/out"
	"sleepsun/internal/platform/clock"
	apperrors "sleepsun/internal/platform/errors"
	"sleepsun/internal/platform/id"
)

type SessionService struct {
	clock    clock.Clock
	idGen    id.Generator
	db       recordout.Database
	counters sessionout.CounterStore
}

func NewSessionService(clock clock.Clock, idGen id.Generator, db recordout.Database, counters sessionout.CounterStore) *SessionService {
	return &SessionService{clock: clock, idGen: idGen, db: db, counters: counters}
}

func (s *SessionService) Now() time.Time {
	return s.clock.Now()
}

// Build assembles a validated record, generating an id when none is given.
func (s *SessionService) Build(sessionID string, start, end int64, lat, lon *float64) (recorddomain.SleepSession, error) {
	if sessionID == "" {
		sessionID = s.idGen.New()
	}
	session := recorddomain.SleepSession{
		ID:        sessionID,
		Start:     start,
		End:       end,
		Lat:       recorddomain.RoundCoordinatePtr(lat),
		Lon:       recorddomain.RoundCoordinatePtr(lon),
		CreatedAt: s.clock.Now().Unix(),
	}
	if err := session.Validate(); err != nil {
		return recorddomain.SleepSession{}, err
	}
	return session, nil
}

// Save upserts session. Overwriting an existing id keeps the stored
// createdAt and stamps updatedAt; only new ids bump the counters.
func (s *SessionService) Save(ctx context.Context, session recorddomain.SleepSession) (recorddomain.SleepSession, error) {
	isNew := false
	err := s.db.Within(ctx, func(ctx context.Context) error {
		existing, err := s.db.GetSleep(ctx, session.ID)
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			isNew = true
		case err != nil:
			return err
		default:
			now := s.clock.Now().Unix()
			session.CreatedAt = existing.CreatedAt
			session.UpdatedAt = &now
		}
		return s.db.UpsertSleep(ctx, session)
	})
	if err != nil {
		return recorddomain.SleepSession{}, err
	}
	if !isNew {
		return session, nil
	}
	if err := s.updateCounters(ctx, func(c domain.Counters) domain.Counters { return c.Added(session.ID) }); err != nil {
		return recorddomain.SleepSession{}, err
	}
	return session, nil
}

func (s *SessionService) Get(ctx context.Context, sessionID string) (recorddomain.SleepSession, error) {
	if sessionID == "" {
		return recorddomain.SleepSession{}, apperrors.Invalid("session id is required")
	}
	return s.db.GetSleep(ctx, sessionID)
}

// Update applies mutate to the stored record inside one transaction and
// stamps updatedAt.
func (s *SessionService) Update(ctx context.Context, sessionID string, mutate func(*recorddomain.SleepSession) error) (recorddomain.SleepSession, error) {
	if sessionID == "" {
		return recorddomain.SleepSession{}, apperrors.Invalid("session id is required")
	}
	var updated recorddomain.SleepSession
	err := s.db.Within(ctx, func(ctx context.Context) error {
		current, err := s.db.GetSleep(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := mutate(&current); err != nil {
			return err
		}
		now := s.clock.Now().Unix()
		current.UpdatedAt = &now
		if err := current.Validate(); err != nil {
			return err
		}
		updated = current
		return s.db.UpsertSleep(ctx, current)
	})
	if err != nil {
		return recorddomain.SleepSession{}, err
	}
	return updated, nil
}

func (s *SessionService) Delete(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, apperrors.Invalid("session id is required")
	}
	deleted, err := s.db.DeleteSleep(ctx, sessionID)
	if err != nil || !deleted {
		return false, err
	}
	if err := s.updateCounters(ctx, func(c domain.Counters) domain.Counters { return c.Removed(sessionID) }); err != nil {
		return true, err
	}
	return true, nil
}

func (s *SessionService) List(ctx context.Context, start, end int64, mode recorddomain.MatchMode) ([]recorddomain.SleepSession, error) {
	return s.db.ListSleep(ctx, start, end, mode)
}

func (s *SessionService) Start(lat, lon *float64) (domain.ActiveSession, error) {
	if err := recorddomain.ValidateCoordinates(lat, lon); err != nil {
		return domain.ActiveSession{}, err
	}
	return domain.ActiveSession{
		ID:        s.idGen.New(),
		StartedAt: s.clock.Now().Truncate(time.Second),
		Lat:       recorddomain.RoundCoordinatePtr(lat),
		Lon:       recorddomain.RoundCoordinatePtr(lon),
	}, nil
}

// Finish turns the in-progress session into a record ending now. Stop
// coordinates only fill values the session never captured.
func (s *SessionService) Finish(active domain.ActiveSession, lat, lon *float64, policy domain.TrackingPolicy) (recorddomain.SleepSession, error) {
	end := s.clock.Now()
	if active.Lat == nil {
		active.Lat = lat
	}
	if active.Lon == nil {
		active.Lon = lon
	}
	if end.Before(active.StartedAt) {
		return recorddomain.SleepSession{}, apperrors.Invalid("stop time %s is before start %s", end.Format(time.RFC3339), active.StartedAt.Format(time.RFC3339))
	}
	if elapsed := end.Sub(active.StartedAt); policy.MinDuration > 0 && elapsed < policy.MinDuration {
		return recorddomain.SleepSession{}, fmt.Errorf("%w: tracked %s, minimum is %s", apperrors.ErrSessionTooShort, elapsed.Round(time.Second), policy.MinDuration)
	}
	return s.Build(active.ID, active.StartedAt.Unix(), end.Unix(), active.Lat, active.Lon)
}

func (s *SessionService) Counters(ctx context.Context) (domain.Counters, error) {
	return s.counters.LoadCounters(ctx)
}

// Resync recomputes the counters from the stored records.
func (s *SessionService) Resync(ctx context.Context) (domain.Counters, error) {
	count, err := s.db.CountSleep(ctx)
	if err != nil {
		return domain.Counters{}, err
	}
	current, err := s.counters.LoadCounters(ctx)
	if err != nil {
		return domain.Counters{}, err
	}
	next := domain.Counters{LastSessionID: current.LastSessionID, SessionCount: count}
	if next.LastSessionID != "" {
		if _, err := s.db.GetSleep(ctx, next.LastSessionID); errors.Is(err, apperrors.ErrNotFound) {
			next.LastSessionID = ""
		} else if err != nil {
			return domain.Counters{}, err
		}
	}
	if err := s.counters.SaveCounters(ctx, next); err != nil {
		return domain.Counters{}, err
	}
	return next, nil
}

func (s *SessionService) updateCounters(ctx context.Context, fn func(domain.Counters) domain.Counters) error {
	current, err := s.counters.LoadCounters(ctx)
	if err != nil {
		return fmt.Errorf("load counters: %w", err)
	}
	if err := s.counters.SaveCounters(ctx, fn(current)); err != nil {
		return fmt.Errorf("save counters: %w", err)
	}
	return nil
}
