package out

import (
	"context"

	"sleepsun/internal/modules/archive/domain"
)

type SnapshotStore interface {
	Write(ctx context.Context, path string, snapshot domain.Snapshot) error
	Read(ctx context.Context, path string) (domain.Snapshot, error)
}

// CounterResyncer rebuilds the tracker counters after bulk changes and
// returns the new session count.
type CounterResyncer interface {
	ResyncCounters(ctx context.Context) (int, error)
}
