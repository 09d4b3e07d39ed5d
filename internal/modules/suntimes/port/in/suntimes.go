package in

import (
	"context"

	"sleepsun/internal/modules/suntimes/dto"
)

type Usecase interface {
	Get(ctx context.Context, input dto.GetInput) (dto.SunTimesOutput, error)
	Put(ctx context.Context, input dto.PutInput) (dto.SunTimesOutput, error)
	List(ctx context.Context, input dto.ListInput) ([]dto.SunTimesOutput, error)
	Request(ctx context.Context, input dto.GetInput) (dto.SunTimesOutput, error)
	RequestList(ctx context.Context, input dto.ListInput) (dto.RequestListOutput, error)
	Estimate(ctx context.Context, input dto.GetInput) (dto.SunTimesOutput, error)
	Progress(ctx context.Context, input dto.ProgressInput) (dto.ProgressOutput, error)
}
