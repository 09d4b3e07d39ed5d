package out

import (
	"context"

	recorddomain "sleepsun/internal/modules/record/domain"
)

// SessionReader lists sessions overlapping [rangeStart, rangeEnd].
type SessionReader interface {
	ListSessions(ctx context.Context, rangeStart, rangeEnd int64) ([]recorddomain.SleepSession, error)
	GetSession(ctx context.Context, id string) (recorddomain.SleepSession, error)
}

type SunTimesReader interface {
	ListSunTimes(ctx context.Context, lat, lon float64, dateStart, dateEnd string) ([]recorddomain.SunTimes, error)
}
