package in

import (
	"context"

	suntimesdto "sleepsun/internal/modules/suntimes/dto"
	suntimesin "sleepsun/internal/modules/suntimes/port/in"
)

type CLIHandler struct {
	usecase suntimesin.Usecase
}

func NewCLIHandler(usecase suntimesin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Get(ctx context.Context, date string, lat, lon float64) (suntimesdto.SunTimesOutput, error) {
	return h.usecase.Get(ctx, suntimesdto.GetInput{Date: date, Lat: lat, Lon: lon})
}

func (h CLIHandler) Put(ctx context.Context, input suntimesdto.PutInput) (suntimesdto.SunTimesOutput, error) {
	return h.usecase.Put(ctx, input)
}

func (h CLIHandler) List(ctx context.Context, rangeStart, rangeEnd string, lat, lon *float64) ([]suntimesdto.SunTimesOutput, error) {
	return h.usecase.List(ctx, suntimesdto.ListInput{RangeStart: rangeStart, RangeEnd: rangeEnd, Lat: lat, Lon: lon})
}

func (h CLIHandler) Request(ctx context.Context, date string, lat, lon float64) (suntimesdto.SunTimesOutput, error) {
	return h.usecase.Request(ctx, suntimesdto.GetInput{Date: date, Lat: lat, Lon: lon})
}

func (h CLIHandler) RequestList(ctx context.Context, rangeStart, rangeEnd string, lat, lon float64) (suntimesdto.RequestListOutput, error) {
	return h.usecase.RequestList(ctx, suntimesdto.ListInput{RangeStart: rangeStart, RangeEnd: rangeEnd, Lat: &lat, Lon: &lon})
}

func (h CLIHandler) Estimate(ctx context.Context, date string, lat, lon float64) (suntimesdto.SunTimesOutput, error) {
	return h.usecase.Estimate(ctx, suntimesdto.GetInput{Date: date, Lat: lat, Lon: lon})
}

func (h CLIHandler) Progress(ctx context.Context, at string, lat, lon float64) (suntimesdto.ProgressOutput, error) {
	return h.usecase.Progress(ctx, suntimesdto.ProgressInput{At: at, Lat: lat, Lon: lon})
}
