package out

import (
	"context"

	recorddomain "sleepsun/internal/modules/record/domain"
)

// RemoteSource fetches authoritative sun times. Malformed or non-success
// payloads fail with apperrors.ErrRemoteSource.
type RemoteSource interface {
	Fetch(ctx context.Context, key recorddomain.SunKey) (recorddomain.SunTimes, error)
}
