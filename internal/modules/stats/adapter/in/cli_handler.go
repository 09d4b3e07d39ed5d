package in

import (
	"context"
	"time"

	statsdto "sleepsun/internal/modules/stats/dto"
	statsin "sleepsun/internal/modules/stats/port/in"
)

type CLIHandler struct {
	usecase statsin.Usecase
}

func NewCLIHandler(usecase statsin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Averages(ctx context.Context, rangeStart, rangeEnd string) (statsdto.AveragesOutput, error) {
	return h.usecase.Averages(ctx, statsdto.RangeInput{RangeStart: rangeStart, RangeEnd: rangeEnd})
}

func (h CLIHandler) Graph(ctx context.Context, rangeStart, rangeEnd string, sessionIDs []string, maxHeight float64) ([]statsdto.GraphBucketOutput, error) {
	return h.usecase.Graph(ctx, statsdto.GraphInput{
		RangeInput: statsdto.RangeInput{RangeStart: rangeStart, RangeEnd: rangeEnd},
		SessionIDs: sessionIDs,
		MaxHeight:  maxHeight,
	})
}

func (h CLIHandler) Split(ctx context.Context, rangeStart, rangeEnd string, split time.Duration, offset *time.Duration, lat, lon *float64) ([]statsdto.IntervalOutput, error) {
	return h.usecase.Split(ctx, statsdto.SplitInput{
		RangeInput: statsdto.RangeInput{RangeStart: rangeStart, RangeEnd: rangeEnd},
		Split:      split,
		Offset:     offset,
		Lat:        lat,
		Lon:        lon,
	})
}

func (h CLIHandler) Lifeline(ctx context.Context, rangeStart, rangeEnd string, unitsPerDay float64, lat, lon *float64) (statsdto.LifelineOutput, error) {
	return h.usecase.Lifeline(ctx, statsdto.LifelineInput{
		RangeInput:  statsdto.RangeInput{RangeStart: rangeStart, RangeEnd: rangeEnd},
		UnitsPerDay: unitsPerDay,
		Lat:         lat,
		Lon:         lon,
	})
}
