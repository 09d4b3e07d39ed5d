package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	recorddomain "sleepsun/internal/modules/record/domain"
	"sleepsun/internal/modules/session/domain"
	sessiondto "sleepsun/internal/modules/session/dto"
	sessionin "sleepsun/internal/modules/session/port/in"
	sessionout "sleepsun/internal/modules/session/port/out"
	"sleepsun/internal/modules/session/service"
	apperrors "sleepsun/internal/platform/errors"
	"sleepsun/internal/platform/logging"
	"sleepsun/internal/platform/timeparse"
)

type Interactor struct {
	svc         *service.SessionService
	activeStore sessionout.ActiveSessionStore
	policy      domain.TrackingPolicy
	logger      *slog.Logger
}

func NewInteractor(svc *service.SessionService, activeStore sessionout.ActiveSessionStore, policy domain.TrackingPolicy, logger *slog.Logger) sessionin.Usecase {
	if policy.Restart == "" {
		policy.Restart = domain.RestartOverwrite
	}
	return &Interactor{svc: svc, activeStore: activeStore, policy: policy, logger: logging.Component(logger, "session")}
}

func (i *Interactor) Create(ctx context.Context, input sessiondto.CreateInput) (sessiondto.SessionOutput, error) {
	start, err := timeparse.Parse(input.Start)
	if err != nil {
		return sessiondto.SessionOutput{}, err
	}
	end, err := timeparse.Parse(input.End)
	if err != nil {
		return sessiondto.SessionOutput{}, err
	}
	session, err := i.svc.Build(input.ID, start, end, input.Lat, input.Lon)
	if err != nil {
		return sessiondto.SessionOutput{}, err
	}
	session, err = i.svc.Save(ctx, session)
	if err != nil {
		return sessiondto.SessionOutput{}, err
	}
	i.logger.Debug("sleep session saved", "id", session.ID, "start", session.Start, "end", session.End)
	return toOutput(session), nil
}

func (i *Interactor) Get(ctx context.Context, id string) (sessiondto.SessionOutput, error) {
	session, err := i.svc.Get(ctx, id)
	if err != nil {
		return sessiondto.SessionOutput{}, err
	}
	return toOutput(session), nil
}

func (i *Interactor) Update(ctx context.Context, input sessiondto.UpdateInput) (sessiondto.SessionOutput, error) {
	start, hasStart, err := timeparse.Optional(input.Start)
	if err != nil {
		return sessiondto.SessionOutput{}, err
	}
	end, hasEnd, err := timeparse.Optional(input.End)
	if err != nil {
		return sessiondto.SessionOutput{}, err
	}
	updated, err := i.svc.Update(ctx, input.ID, func(s *recorddomain.SleepSession) error {
		if hasStart {
			s.Start = start
		}
		if hasEnd {
			s.End = end
		}
		s.Lat = input.Lat.Apply(s.Lat)
		s.Lon = input.Lon.Apply(s.Lon)
		return nil
	})
	if err != nil {
		return sessiondto.SessionOutput{}, err
	}
	return toOutput(updated), nil
}

func (i *Interactor) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := i.svc.Delete(ctx, id)
	if err != nil {
		return deleted, err
	}
	if deleted {
		i.logger.Debug("sleep session deleted", "id", id)
	}
	return deleted, nil
}

func (i *Interactor) List(ctx context.Context, input sessiondto.ListInput) ([]sessiondto.SessionOutput, error) {
	start, err := timeparse.Parse(input.RangeStart)
	if err != nil {
		return nil, err
	}
	end, err := timeparse.Parse(input.RangeEnd)
	if err != nil {
		return nil, err
	}
	if end < start {
		return nil, apperrors.Invalid("range end %d is before range start %d", end, start)
	}
	mode, err := recorddomain.ParseMatchMode(input.Match)
	if err != nil {
		return nil, err
	}
	sessions, err := i.svc.List(ctx, start, end, mode)
	if err != nil {
		return nil, err
	}
	out := make([]sessiondto.SessionOutput, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toOutput(s))
	}
	return out, nil
}

func (i *Interactor) StartTracking(ctx context.Context, input sessiondto.TrackInput) (sessiondto.StartOutput, error) {
	var replaced *time.Time
	previous, err := i.activeStore.LoadActive(ctx)
	switch {
	case err == nil:
		if i.policy.Restart == domain.RestartReject {
			return sessiondto.StartOutput{}, apperrors.ErrActiveSessionExists
		}
		replaced = &previous.StartedAt
	case !errors.Is(err, apperrors.ErrNoActiveSession):
		return sessiondto.StartOutput{}, err
	}

	active, err := i.svc.Start(input.Lat, input.Lon)
	if err != nil {
		return sessiondto.StartOutput{}, err
	}
	if err := i.activeStore.SaveActive(ctx, active); err != nil {
		return sessiondto.StartOutput{}, err
	}
	if replaced != nil {
		i.logger.Warn("in-progress session overwritten", "discarded_id", previous.ID, "discarded_start", previous.StartedAt)
	}
	return sessiondto.StartOutput{ID: active.ID, StartedAt: active.StartedAt, Lat: active.Lat, Lon: active.Lon, Replaced: replaced}, nil
}

// StopTracking persists the in-progress session and clears it. On any
// failure the in-progress state is left in place for a retry.
func (i *Interactor) StopTracking(ctx context.Context, input sessiondto.TrackInput) (sessiondto.SessionOutput, error) {
	active, err := i.activeStore.LoadActive(ctx)
	if err != nil {
		return sessiondto.SessionOutput{}, err
	}
	session, err := i.svc.Finish(active, input.Lat, input.Lon, i.policy)
	if err != nil {
		return sessiondto.SessionOutput{}, err
	}
	session, err = i.svc.Save(ctx, session)
	if err != nil {
		return sessiondto.SessionOutput{}, err
	}
	if err := i.activeStore.ClearActive(ctx); err != nil {
		return sessiondto.SessionOutput{}, err
	}
	i.logger.Debug("tracking stopped", "id", session.ID, "duration", session.Duration())
	return toOutput(session), nil
}

func (i *Interactor) Active(ctx context.Context) (sessiondto.ActiveSessionOutput, error) {
	active, err := i.activeStore.LoadActive(ctx)
	if err != nil {
		return sessiondto.ActiveSessionOutput{}, err
	}
	elapsed := i.svc.Now().Sub(active.StartedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	return sessiondto.ActiveSessionOutput{
		ID:        active.ID,
		StartedAt: active.StartedAt,
		Lat:       active.Lat,
		Lon:       active.Lon,
		Elapsed:   elapsed,
	}, nil
}

func (i *Interactor) Counters(ctx context.Context) (sessiondto.CountersOutput, error) {
	counters, err := i.svc.Counters(ctx)
	if err != nil {
		return sessiondto.CountersOutput{}, err
	}
	return sessiondto.CountersOutput{LastSessionID: counters.LastSessionID, SessionCount: counters.SessionCount}, nil
}

func (i *Interactor) ResyncCounters(ctx context.Context) (sessiondto.CountersOutput, error) {
	counters, err := i.svc.Resync(ctx)
	if err != nil {
		return sessiondto.CountersOutput{}, err
	}
	return sessiondto.CountersOutput{LastSessionID: counters.LastSessionID, SessionCount: counters.SessionCount}, nil
}

func toOutput(s recorddomain.SleepSession) sessiondto.SessionOutput {
	return sessiondto.SessionOutput{
		ID:              s.ID,
		Start:           s.Start,
		End:             s.End,
		Lat:             s.Lat,
		Lon:             s.Lon,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
		DurationSeconds: s.Duration(),
		Duration:        recorddomain.FormatClock(s.Duration()),
	}
}
