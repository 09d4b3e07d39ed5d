package out

import (
	"context"

	"sleepsun/internal/modules/session/domain"
)

type ActiveSessionStore interface {
	SaveActive(ctx context.Context, session domain.ActiveSession) error
	LoadActive(ctx context.Context) (domain.ActiveSession, error)
	ClearActive(ctx context.Context) error
}

type CounterStore interface {
	LoadCounters(ctx context.Context) (domain.Counters, error)
	SaveCounters(ctx context.Context, counters domain.Counters) error
}
