package out

import (
	"context"

	archiveout "sleepsun/internal/modules/archive/port/out"
	sessionin "sleepsun/internal/modules/session/port/in"
)

type SessionCounterResyncer struct {
	sessions sessionin.Usecase
}

func NewSessionCounterResyncer(sessions sessionin.Usecase) archiveout.CounterResyncer {
	return &SessionCounterResyncer{sessions: sessions}
}

func (r *SessionCounterResyncer) ResyncCounters(ctx context.Context) (int, error) {
	counters, err := r.sessions.ResyncCounters(ctx)
	if err != nil {
		return 0, err
	}
	return counters.SessionCount, nil
}
