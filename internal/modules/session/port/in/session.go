package in

import (
	"context"

	"sleepsun/internal/modules/session/dto"
)

type Usecase interface {
	Create(ctx context.Context, input dto.CreateInput) (dto.SessionOutput, error)
	Get(ctx context.Context, id string) (dto.SessionOutput, error)
	Update(ctx context.Context, input dto.UpdateInput) (dto.SessionOutput, error)
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, input dto.ListInput) ([]dto.SessionOutput, error)

	StartTracking(ctx context.Context, input dto.TrackInput) (dto.StartOutput, error)
	StopTracking(ctx context.Context, input dto.TrackInput) (dto.SessionOutput, error)
	Active(ctx context.Context) (dto.ActiveSessionOutput, error)

	Counters(ctx context.Context) (dto.CountersOutput, error)
	ResyncCounters(ctx context.Context) (dto.CountersOutput, error)
}
