package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	recordadapter "sleepsun/internal/modules/record/adapter/out"
	sessionadapter "sleepsun/internal/modules/session/adapter/out"
	"sleepsun/internal/modules/session/domain"
	sessiondto "sleepsun/internal/modules/session/dto"
	sessionservice "sleepsun/internal/modules/session/service"
	sessionusecase "sleepsun/internal/modules/session/usecase"
	statsadapter "sleepsun/internal/modules/stats/adapter/out"
	statsdto "sleepsun/internal/modules/stats/dto"
	statsin "sleepsun/internal/modules/stats/port/in"
	"sleepsun/internal/modules/stats/usecase"
	suntimesdto "sleepsun/internal/modules/suntimes/dto"
	suntimesin "sleepsun/internal/modules/suntimes/port/in"
	suntimesservice "sleepsun/internal/modules/suntimes/service"
	suntimesusecase "sleepsun/internal/modules/suntimes/usecase"
	apperrors "sleepsun/internal/platform/errors"
	"sleepsun/internal/platform/id"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type fixture struct {
	stats statsin.Usecase
	suns  suntimesin.Usecase
}

func ptr(v float64) *float64 { return &v }

func durationPtr(d time.Duration) *time.Duration { return &d }

func newFixture(t *testing.T) fixture {
	t.Helper()
	return newFixtureWith(t, usecase.Options{UnitsPerDay: 24})
}

func newFixtureWith(t *testing.T, opts usecase.Options) fixture {
	t.Helper()
	ctx := context.Background()
	db := recordadapter.NewSQLiteDatabase(recordadapter.MemoryPath)
	if err := db.Init(ctx); err != nil {
		t.Fatalf("init db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	clk := fixedClock{now: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)}

	sessionSvc := sessionservice.NewSessionService(clk, id.UUID{}, db, sessionadapter.NewMemoryCounterStore())
	sessions := sessionusecase.NewInteractor(sessionSvc, sessionadapter.NewMemoryActiveSessionStore(), domain.DefaultTrackingPolicy(), nil)
	sunSvc := suntimesservice.NewSunTimesService(clk, db, nil, time.Second, nil)
	suns := suntimesusecase.NewInteractor(sunSvc, suntimesusecase.Options{}, nil)

	for _, in := range []sessiondto.CreateInput{
		{ID: "n1", Start: "2024-01-01T23:00:00Z", End: "2024-01-02T07:00:00Z"},
		{ID: "n2", Start: "2024-01-02T23:30:00Z", End: "2024-01-03T06:30:00Z", Lat: ptr(52.52), Lon: ptr(13.4)},
	} {
		if _, err := sessions.Create(ctx, in); err != nil {
			t.Fatalf("create %s: %v", in.ID, err)
		}
	}
	stats := usecase.NewInteractor(
		statsadapter.NewSessionReader(sessions),
		statsadapter.NewSunTimesReader(suns),
		opts,
		nil,
	)
	return fixture{stats: stats, suns: suns}
}

func TestGraphFromSessionIDsAndRange(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	byID, err := f.stats.Graph(ctx, statsdto.GraphInput{SessionIDs: []string{"n1", "n2"}})
	if err != nil {
		t.Fatalf("graph by ids: %v", err)
	}
	if len(byID) != 2 || byID[0].Height != 100 || byID[1].Height != 87.5 {
		t.Fatalf("unexpected graph %+v", byID)
	}

	byRange, err := f.stats.Graph(ctx, statsdto.GraphInput{
		RangeInput: statsdto.RangeInput{RangeStart: "2024-01-01T00:00:00Z", RangeEnd: "2024-01-04T00:00:00Z"},
	})
	if err != nil {
		t.Fatalf("graph by range: %v", err)
	}
	if len(byRange) != 4 || byRange[0].Date != "2024-01-01" || byRange[0].DurationSeconds != 0 || byRange[3].Date != "2024-01-04" {
		t.Fatalf("unexpected ranged graph %+v", byRange)
	}

	_, err = f.stats.Graph(ctx, statsdto.GraphInput{
		RangeInput: statsdto.RangeInput{RangeStart: "2023-01-01T00:00:00Z", RangeEnd: "2023-01-04T00:00:00Z"},
	})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error for empty range, got %v", err)
	}
	if _, err := f.stats.Graph(ctx, statsdto.GraphInput{SessionIDs: []string{"missing"}}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAveragesOverRange(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	got, err := f.stats.Averages(context.Background(), statsdto.RangeInput{RangeStart: "2024-01-01", RangeEnd: "2024-01-05"})
	if err != nil {
		t.Fatalf("averages: %v", err)
	}
	if got.Count != 2 || got.Start.MeanTime != "23:15:00" || got.DurationMeanTime != "07:30:00" {
		t.Fatalf("unexpected averages %+v", got)
	}
}

func TestSplitAttachesCachedSunTimes(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.suns.Put(ctx, suntimesdto.PutInput{Date: "2024-01-02", Lat: 52.52, Lon: 13.4, Sunrise: "2024-01-02T07:16:00Z", Sunset: "2024-01-02T15:03:00Z"}); err != nil {
		t.Fatalf("put sun times: %v", err)
	}
	intervals, err := f.stats.Split(ctx, statsdto.SplitInput{
		RangeInput: statsdto.RangeInput{RangeStart: "2024-01-01T00:00:00Z", RangeEnd: "2024-01-03T23:59:59Z"},
	})
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(intervals) != 3 {
		t.Fatalf("expected 3 daily intervals, got %d", len(intervals))
	}
	if len(intervals[0].Sessions) != 1 || len(intervals[1].Sessions) != 2 || len(intervals[2].Sessions) != 1 {
		t.Fatalf("unexpected session assignment %+v", intervals)
	}
	if len(intervals[1].SunTimes) != 1 || intervals[1].SunTimes[0].Date != "2024-01-02" {
		t.Fatalf("expected sun times on the second day, got %+v", intervals[1].SunTimes)
	}

	_, err = f.stats.Split(ctx, statsdto.SplitInput{
		RangeInput: statsdto.RangeInput{RangeStart: "2024-01-01", RangeEnd: "2024-01-03"},
		Split:      time.Hour,
		Offset:     durationPtr(2 * time.Hour),
	})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSplitConfiguredOffsetOnlyAppliesToConfiguredSplit(t *testing.T) {
	t.Parallel()
	f := newFixtureWith(t, usecase.Options{Split: 24 * time.Hour, SplitOffset: 12 * time.Hour})
	ctx := context.Background()
	rangeInput := statsdto.RangeInput{RangeStart: "2024-01-01T00:00:00Z", RangeEnd: "2024-01-01T23:59:59Z"}
	midnight := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Unix()

	configured, err := f.stats.Split(ctx, statsdto.SplitInput{RangeInput: rangeInput})
	if err != nil {
		t.Fatalf("configured split: %v", err)
	}
	if configured[0].Start != midnight-12*3600 {
		t.Fatalf("expected the configured 12h offset, first bucket starts at %d", configured[0].Start)
	}

	narrow, err := f.stats.Split(ctx, statsdto.SplitInput{RangeInput: rangeInput, Split: 6 * time.Hour})
	if err != nil {
		t.Fatalf("narrow split must not inherit the configured offset: %v", err)
	}
	if len(narrow) != 4 || narrow[0].Start != midnight {
		t.Fatalf("expected 4 buckets from midnight, got %d starting at %d", len(narrow), narrow[0].Start)
	}

	zero, err := f.stats.Split(ctx, statsdto.SplitInput{RangeInput: rangeInput, Offset: durationPtr(0)})
	if err != nil {
		t.Fatalf("explicit zero offset: %v", err)
	}
	if zero[0].Start != midnight || len(zero) != 1 {
		t.Fatalf("explicit zero offset must anchor at midnight, got %d buckets from %d", len(zero), zero[0].Start)
	}
}

func TestLifelineUsesLatestSessionCoordinates(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.suns.Put(ctx, suntimesdto.PutInput{Date: "2024-01-02", Lat: 52.52, Lon: 13.4, Sunrise: "2024-01-02T07:16:00Z", Sunset: "2024-01-02T15:03:00Z"}); err != nil {
		t.Fatalf("put sun times: %v", err)
	}
	line, err := f.stats.Lifeline(ctx, statsdto.LifelineInput{
		RangeInput: statsdto.RangeInput{RangeStart: "2024-01-01", RangeEnd: "2024-01-05"},
	})
	if err != nil {
		t.Fatalf("lifeline: %v", err)
	}
	if len(line.Entries) != 2 || line.Entries[0].Session.ID != "n1" || line.Entries[0].Offset != 12 || line.Entries[0].Width != 8 {
		t.Fatalf("unexpected entries %+v", line.Entries)
	}
	if line.Entries[1].Shift != 24 {
		t.Fatalf("expected shift of 24 units, got %f", line.Entries[1].Shift)
	}
	if len(line.SunTimes) != 1 {
		t.Fatalf("expected cached sun times attached, got %+v", line.SunTimes)
	}
}
