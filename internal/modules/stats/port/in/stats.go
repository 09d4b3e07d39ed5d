package in

import (
	"context"

	"sleepsun/internal/modules/stats/dto"
)

type Usecase interface {
	Averages(ctx context.Context, input dto.RangeInput) (dto.AveragesOutput, error)
	Graph(ctx context.Context, input dto.GraphInput) ([]dto.GraphBucketOutput, error)
	Split(ctx context.Context, input dto.SplitInput) ([]dto.IntervalOutput, error)
	Lifeline(ctx context.Context, input dto.LifelineInput) (dto.LifelineOutput, error)
}
