package usecase

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"time"

	recorddomain "sleepsun/internal/modules/record/domain"
	"sleepsun/internal/modules/stats/domain"
	statsdto "sleepsun/internal/modules/stats/dto"
	statsin "sleepsun/internal/modules/stats/port/in"
	statsout "sleepsun/internal/modules/stats/port/out"
	apperrors "sleepsun/internal/platform/errors"
	"sleepsun/internal/platform/logging"
	"sleepsun/internal/platform/timeparse"
)

type Options struct {
	Location       *time.Location
	GraphMaxHeight float64
	Split          time.Duration
	SplitOffset    time.Duration
	UnitsPerDay    float64
}

type Interactor struct {
	sessions statsout.SessionReader
	suns     statsout.SunTimesReader
	opts     Options
	logger   *slog.Logger
}

func NewInteractor(sessions statsout.SessionReader, suns statsout.SunTimesReader, opts Options, logger *slog.Logger) statsin.Usecase {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.GraphMaxHeight <= 0 {
		opts.GraphMaxHeight = 100
	}
	if opts.Split <= 0 {
		opts.Split = domain.DefaultSplit
	}
	if opts.UnitsPerDay <= 0 {
		opts.UnitsPerDay = 100
	}
	return &Interactor{sessions: sessions, suns: suns, opts: opts, logger: logging.Component(logger, "stats")}
}

func (i *Interactor) Averages(ctx context.Context, input statsdto.RangeInput) (statsdto.AveragesOutput, error) {
	sessions, _, _, err := i.query(ctx, input)
	if err != nil {
		return statsdto.AveragesOutput{}, err
	}
	avg, err := domain.ComputeAverages(sessions, i.opts.Location)
	if err != nil {
		return statsdto.AveragesOutput{}, err
	}
	return statsdto.AveragesOutput{
		Count:               avg.Count,
		Start:               timeOfDay(avg.Start),
		End:                 timeOfDay(avg.End),
		DurationMeanSeconds: avg.Duration.MeanSeconds,
		DurationMeanTime:    avg.Duration.MeanTime,
	}, nil
}

func (i *Interactor) Graph(ctx context.Context, input statsdto.GraphInput) ([]statsdto.GraphBucketOutput, error) {
	maxHeight := input.MaxHeight
	if maxHeight <= 0 {
		maxHeight = i.opts.GraphMaxHeight
	}

	var (
		sessions   []recorddomain.SleepSession
		start, end int64
		err        error
	)
	if len(input.SessionIDs) > 0 {
		for _, id := range input.SessionIDs {
			s, err := i.sessions.GetSession(ctx, id)
			if err != nil {
				return nil, err
			}
			sessions = append(sessions, s)
		}
		start, end, err = domain.EndRange(sessions)
	} else {
		sessions, start, end, err = i.query(ctx, input.RangeInput)
		if err == nil && len(sessions) == 0 {
			err = apperrors.Invalid("no sessions in range")
		}
	}
	if err != nil {
		return nil, err
	}

	buckets, err := domain.BuildGraph(sessions, start, end, maxHeight, i.opts.Location)
	if err != nil {
		return nil, err
	}
	out := make([]statsdto.GraphBucketOutput, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, statsdto.GraphBucketOutput(b))
	}
	return out, nil
}

func (i *Interactor) Split(ctx context.Context, input statsdto.SplitInput) ([]statsdto.IntervalOutput, error) {
	split, offset := input.Split, time.Duration(0)
	if split <= 0 {
		split, offset = i.opts.Split, i.opts.SplitOffset
	}
	if input.Offset != nil {
		offset = *input.Offset
	}
	sessions, start, end, err := i.query(ctx, input.RangeInput)
	if err != nil {
		return nil, err
	}
	suns, err := i.sunTimes(ctx, sessions, input.Lat, input.Lon, start, end)
	if err != nil {
		return nil, err
	}
	intervals, err := domain.SplitIntervals(domain.SplitParams{
		RangeStart: start,
		RangeEnd:   end,
		Split:      split,
		Offset:     offset,
		Loc:        i.opts.Location,
	}, sessions, suns)
	if err != nil {
		return nil, err
	}
	out := make([]statsdto.IntervalOutput, 0, len(intervals))
	for _, in := range intervals {
		out = append(out, statsdto.IntervalOutput{
			Start:    in.Start,
			End:      in.End,
			Sessions: sessionRefs(in.Sessions),
			SunTimes: sunRefs(in.SunTimes),
		})
	}
	return out, nil
}

func (i *Interactor) Lifeline(ctx context.Context, input statsdto.LifelineInput) (statsdto.LifelineOutput, error) {
	units := input.UnitsPerDay
	if units <= 0 {
		units = i.opts.UnitsPerDay
	}
	sessions, _, _, err := i.query(ctx, input.RangeInput)
	if err != nil {
		return statsdto.LifelineOutput{}, err
	}
	start, end, err := domain.LifelineRange(sessions)
	if err != nil {
		return statsdto.LifelineOutput{}, err
	}
	suns, err := i.sunTimes(ctx, sessions, input.Lat, input.Lon, start, end)
	if err != nil {
		return statsdto.LifelineOutput{}, err
	}
	line, err := domain.BuildLifeline(sessions, suns, units)
	if err != nil {
		return statsdto.LifelineOutput{}, err
	}
	out := statsdto.LifelineOutput{
		RangeStart: line.RangeStart,
		RangeEnd:   line.RangeEnd,
		Width:      line.Width,
		Entries:    make([]statsdto.LifelineEntryOutput, 0, len(line.Entries)),
		SunTimes:   sunRefs(line.SunTimes),
	}
	for _, e := range line.Entries {
		out.Entries = append(out.Entries, statsdto.LifelineEntryOutput{
			Session:  sessionRef(e.Session),
			Midpoint: e.Midpoint,
			Offset:   e.Offset,
			Width:    e.Width,
			Shift:    e.Shift,
		})
	}
	return out, nil
}

func (i *Interactor) query(ctx context.Context, input statsdto.RangeInput) ([]recorddomain.SleepSession, int64, int64, error) {
	start, err := timeparse.Parse(input.RangeStart)
	if err != nil {
		return nil, 0, 0, err
	}
	end, err := timeparse.Parse(input.RangeEnd)
	if err != nil {
		return nil, 0, 0, err
	}
	if end < start {
		return nil, 0, 0, apperrors.Invalid("range end %d is before range start %d", end, start)
	}
	sessions, err := i.sessions.ListSessions(ctx, start, end)
	if err != nil {
		return nil, 0, 0, err
	}
	return sessions, start, end, nil
}

// sunTimes reads cached sun times for the covering dates. Coordinates
// default to those of the latest session that has them; without any, no
// sun times are attached.
func (i *Interactor) sunTimes(ctx context.Context, sessions []recorddomain.SleepSession, lat, lon *float64, start, end int64) ([]recorddomain.SunTimes, error) {
	if lat == nil || lon == nil {
		lat, lon = latestCoordinates(sessions)
	}
	if lat == nil || lon == nil {
		i.logger.Debug("no coordinates for sun times, skipping")
		return nil, nil
	}
	return i.suns.ListSunTimes(ctx, *lat, *lon,
		recorddomain.DateOf(start, time.UTC),
		recorddomain.DateOf(end, time.UTC),
	)
}

func latestCoordinates(sessions []recorddomain.SleepSession) (*float64, *float64) {
	withCoords := make([]recorddomain.SleepSession, 0, len(sessions))
	for _, s := range sessions {
		if s.Lat != nil && s.Lon != nil {
			withCoords = append(withCoords, s)
		}
	}
	if len(withCoords) == 0 {
		return nil, nil
	}
	latest := slices.MaxFunc(withCoords, func(a, b recorddomain.SleepSession) int {
		return cmp.Or(cmp.Compare(a.End, b.End), cmp.Compare(a.ID, b.ID))
	})
	return latest.Lat, latest.Lon
}

func timeOfDay(m domain.TimeOfDayMean) statsdto.TimeOfDayOutput {
	return statsdto.TimeOfDayOutput(m)
}

func sessionRef(s recorddomain.SleepSession) statsdto.SessionRef {
	return statsdto.SessionRef{ID: s.ID, Start: s.Start, End: s.End}
}

func sessionRefs(sessions []recorddomain.SleepSession) []statsdto.SessionRef {
	out := make([]statsdto.SessionRef, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionRef(s))
	}
	return out
}

func sunRefs(suns []recorddomain.SunTimes) []statsdto.SunRef {
	out := make([]statsdto.SunRef, 0, len(suns))
	for _, s := range suns {
		out = append(out, statsdto.SunRef{Date: s.Date, Sunrise: s.Sunrise, Sunset: s.Sunset})
	}
	return out
}
