package usecase

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	recorddomain "sleepsun/internal/modules/record/domain"
	"sleepsun/internal/modules/suntimes/domain"
	suntimesdto "sleepsun/internal/modules/suntimes/dto"
	suntimesin "sleepsun/internal/modules/suntimes/port/in"
	"sleepsun/internal/modules/suntimes/service"
	apperrors "sleepsun/internal/platform/errors"
	"sleepsun/internal/platform/logging"
	"sleepsun/internal/platform/timeparse"
)

const (
	minDate = "0000-01-01"
	maxDate = "9999-12-31"
)

type Options struct {
	Concurrency   int
	DispatchDelay time.Duration
	// Location decides which calendar date Progress looks up.
	Location *time.Location
}

type Interactor struct {
	svc    *service.SunTimesService
	opts   Options
	logger *slog.Logger
}

func NewInteractor(svc *service.SunTimesService, opts Options, logger *slog.Logger) suntimesin.Usecase {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 5
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Interactor{svc: svc, opts: opts, logger: logging.Component(logger, "suntimes")}
}

func (i *Interactor) Get(ctx context.Context, input suntimesdto.GetInput) (suntimesdto.SunTimesOutput, error) {
	key, err := keyOf(input)
	if err != nil {
		return suntimesdto.SunTimesOutput{}, err
	}
	record, err := i.svc.Get(ctx, key)
	if err != nil {
		return suntimesdto.SunTimesOutput{}, err
	}
	return toOutput(record, domain.SourceCache), nil
}

func (i *Interactor) Put(ctx context.Context, input suntimesdto.PutInput) (suntimesdto.SunTimesOutput, error) {
	key, err := keyOf(suntimesdto.GetInput{Date: input.Date, Lat: input.Lat, Lon: input.Lon})
	if err != nil {
		return suntimesdto.SunTimesOutput{}, err
	}
	sunrise, err := timeparse.Parse(input.Sunrise)
	if err != nil {
		return suntimesdto.SunTimesOutput{}, err
	}
	sunset, err := timeparse.Parse(input.Sunset)
	if err != nil {
		return suntimesdto.SunTimesOutput{}, err
	}
	record, err := i.svc.Put(ctx, recorddomain.SunTimes{
		Date:    key.Date,
		Lat:     key.Lat,
		Lon:     key.Lon,
		Sunrise: sunrise,
		Sunset:  sunset,
	})
	if err != nil {
		return suntimesdto.SunTimesOutput{}, err
	}
	return toOutput(record, domain.SourceCache), nil
}

func (i *Interactor) List(ctx context.Context, input suntimesdto.ListInput) ([]suntimesdto.SunTimesOutput, error) {
	start, end, err := optionalRange(input.RangeStart, input.RangeEnd)
	if err != nil {
		return nil, err
	}
	var records []recorddomain.SunTimes
	switch {
	case input.Lat == nil && input.Lon == nil:
		all, err := i.svc.All(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range all {
			if r.Date >= start && r.Date <= end {
				records = append(records, r)
			}
		}
	case input.Lat != nil && input.Lon != nil:
		if err := recorddomain.ValidateCoordinates(input.Lat, input.Lon); err != nil {
			return nil, err
		}
		records, err = i.svc.List(ctx, *input.Lat, *input.Lon, start, end)
		if err != nil {
			return nil, err
		}
	default:
		return nil, apperrors.Invalid("lat and lon must be given together")
	}
	out := make([]suntimesdto.SunTimesOutput, 0, len(records))
	for _, r := range records {
		out = append(out, toOutput(r, domain.SourceCache))
	}
	return out, nil
}

func (i *Interactor) Request(ctx context.Context, input suntimesdto.GetInput) (suntimesdto.SunTimesOutput, error) {
	key, err := keyOf(input)
	if err != nil {
		return suntimesdto.SunTimesOutput{}, err
	}
	record, source, err := i.svc.Request(ctx, key)
	if err != nil {
		return suntimesdto.SunTimesOutput{}, err
	}
	return toOutput(record, source), nil
}

// RequestList fills a date range for one location. Cached dates come from a
// single range query; missing dates are resolved with bounded concurrency
// and a short pause between dispatches. One failing date never aborts the
// rest.
func (i *Interactor) RequestList(ctx context.Context, input suntimesdto.ListInput) (suntimesdto.RequestListOutput, error) {
	if input.Lat == nil || input.Lon == nil {
		return suntimesdto.RequestListOutput{}, apperrors.Invalid("lat and lon are required")
	}
	start, err := timeparse.Date(input.RangeStart)
	if err != nil {
		return suntimesdto.RequestListOutput{}, err
	}
	end, err := timeparse.Date(input.RangeEnd)
	if err != nil {
		return suntimesdto.RequestListOutput{}, err
	}
	dates, err := recorddomain.DateRange(start, end)
	if err != nil {
		return suntimesdto.RequestListOutput{}, err
	}
	if _, err := recorddomain.NewSunKey(start, *input.Lat, *input.Lon); err != nil {
		return suntimesdto.RequestListOutput{}, err
	}

	cached, err := i.svc.List(ctx, *input.Lat, *input.Lon, start, end)
	if err != nil {
		return suntimesdto.RequestListOutput{}, err
	}
	out := suntimesdto.RequestListOutput{Records: make([]suntimesdto.SunTimesOutput, 0, len(dates))}
	have := make(map[string]struct{}, len(cached))
	for _, r := range cached {
		have[r.Date] = struct{}{}
		out.Records = append(out.Records, toOutput(r, domain.SourceCache))
	}
	out.Cached = len(cached)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(i.opts.Concurrency)
	dispatched := 0
	for _, date := range dates {
		if _, ok := have[date]; ok {
			continue
		}
		if dispatched > 0 && !i.pause(ctx) {
			break
		}
		dispatched++
		key, _ := recorddomain.NewSunKey(date, *input.Lat, *input.Lon)
		g.Go(func() error {
			record, source, err := i.svc.Resolve(ctx, key)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out.Failed = append(out.Failed, suntimesdto.FailedDate{Date: key.Date, Err: err})
				return nil
			}
			out.Records = append(out.Records, toOutput(record, source))
			if source == domain.SourceRemote {
				out.Fetched++
			} else {
				out.Estimated++
			}
			return nil
		})
	}
	_ = g.Wait()
	slices.SortFunc(out.Records, func(a, b suntimesdto.SunTimesOutput) int { return strings.Compare(a.Date, b.Date) })
	slices.SortFunc(out.Failed, func(a, b suntimesdto.FailedDate) int { return strings.Compare(a.Date, b.Date) })
	if err := ctx.Err(); err != nil {
		return out, err
	}

	i.logger.Info("sun times range resolved",
		"start", start, "end", end,
		"cached", out.Cached, "fetched", out.Fetched, "estimated", out.Estimated, "failed", len(out.Failed),
	)
	return out, nil
}

func (i *Interactor) pause(ctx context.Context) bool {
	if i.opts.DispatchDelay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(i.opts.DispatchDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (i *Interactor) Estimate(_ context.Context, input suntimesdto.GetInput) (suntimesdto.SunTimesOutput, error) {
	key, err := keyOf(input)
	if err != nil {
		return suntimesdto.SunTimesOutput{}, err
	}
	record, err := domain.Estimate(key)
	if err != nil {
		return suntimesdto.SunTimesOutput{}, apperrors.Invalid("date %q: %v", key.Date, err)
	}
	return toOutput(record, domain.SourceEstimate), nil
}

func (i *Interactor) Progress(ctx context.Context, input suntimesdto.ProgressInput) (suntimesdto.ProgressOutput, error) {
	at, hasAt, err := timeparse.Optional(input.At)
	if err != nil {
		return suntimesdto.ProgressOutput{}, err
	}
	if !hasAt {
		at = i.svc.Now().Unix()
	}
	key, err := recorddomain.NewSunKey(recorddomain.DateOf(at, i.opts.Location), input.Lat, input.Lon)
	if err != nil {
		return suntimesdto.ProgressOutput{}, err
	}
	record, source, err := i.svc.Request(ctx, key)
	if err != nil {
		return suntimesdto.ProgressOutput{}, err
	}
	progress := domain.Progress(at, &record)
	return suntimesdto.ProgressOutput{
		At:       time.Unix(at, 0).UTC(),
		Progress: progress,
		Daylight: progress != domain.NoData && progress >= 0 && progress <= 1,
		Record:   toOutput(record, source),
	}, nil
}

func keyOf(input suntimesdto.GetInput) (recorddomain.SunKey, error) {
	date, err := timeparse.Date(input.Date)
	if err != nil {
		return recorddomain.SunKey{}, err
	}
	return recorddomain.NewSunKey(date, input.Lat, input.Lon)
}

func optionalRange(rawStart, rawEnd any) (string, string, error) {
	start, end := minDate, maxDate
	if !empty(rawStart) {
		d, err := timeparse.Date(rawStart)
		if err != nil {
			return "", "", err
		}
		start = d
	}
	if !empty(rawEnd) {
		d, err := timeparse.Date(rawEnd)
		if err != nil {
			return "", "", err
		}
		end = d
	}
	if end < start {
		return "", "", apperrors.Invalid("range end %s is before range start %s", end, start)
	}
	return start, end, nil
}

func empty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func toOutput(r recorddomain.SunTimes, source domain.Source) suntimesdto.SunTimesOutput {
	return suntimesdto.SunTimesOutput{
		Date:      r.Date,
		Lat:       r.Lat,
		Lon:       r.Lon,
		Sunrise:   r.Sunrise,
		Sunset:    r.Sunset,
		Daylength: r.DayLength(),
		UpdatedAt: r.UpdatedAt,
		Source:    string(source),
	}
}
