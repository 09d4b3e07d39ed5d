package in

import (
	"context"

	sessiondto "sleepsun/internal/modules/session/dto"
	sessionin "sleepsun/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Create(ctx context.Context, input sessiondto.CreateInput) (sessiondto.SessionOutput, error) {
	return h.usecase.Create(ctx, input)
}

func (h CLIHandler) Get(ctx context.Context, id string) (sessiondto.SessionOutput, error) {
	return h.usecase.Get(ctx, id)
}

func (h CLIHandler) Update(ctx context.Context, input sessiondto.UpdateInput) (sessiondto.SessionOutput, error) {
	return h.usecase.Update(ctx, input)
}

func (h CLIHandler) Delete(ctx context.Context, id string) (bool, error) {
	return h.usecase.Delete(ctx, id)
}

func (h CLIHandler) List(ctx context.Context, rangeStart, rangeEnd, match string) ([]sessiondto.SessionOutput, error) {
	return h.usecase.List(ctx, sessiondto.ListInput{RangeStart: rangeStart, RangeEnd: rangeEnd, Match: match})
}

func (h CLIHandler) Start(ctx context.Context, lat, lon *float64) (sessiondto.StartOutput, error) {
	return h.usecase.StartTracking(ctx, sessiondto.TrackInput{Lat: lat, Lon: lon})
}

func (h CLIHandler) Stop(ctx context.Context, lat, lon *float64) (sessiondto.SessionOutput, error) {
	return h.usecase.StopTracking(ctx, sessiondto.TrackInput{Lat: lat, Lon: lon})
}

func (h CLIHandler) GetActive(ctx context.Context) (sessiondto.ActiveSessionOutput, error) {
	return h.usecase.Active(ctx)
}

func (h CLIHandler) Counters(ctx context.Context) (sessiondto.CountersOutput, error) {
	return h.usecase.Counters(ctx)
}

func (h CLIHandler) ResyncCounters(ctx context.Context) (sessiondto.CountersOutput, error) {
	return h.usecase.ResyncCounters(ctx)
}
