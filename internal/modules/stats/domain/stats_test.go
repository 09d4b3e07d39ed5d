package domain_test

import (
	"errors"
	"math"
	"testing"
	"time"

	recorddomain "sleepsun/internal/modules/record/domain"
	"sleepsun/internal/modules/stats/domain"
	apperrors "sleepsun/internal/platform/errors"
)

func at(value string) int64 {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t.Unix()
}

func session(id, start, end string) recorddomain.SleepSession {
	return recorddomain.SleepSession{ID: id, Start: at(start), End: at(end)}
}

func TestCircularMeanWrapsMidnight(t *testing.T) {
	t.Parallel()
	got, err := domain.CircularMean([]int64{at("2024-01-01T23:50:00Z"), at("2024-01-03T00:10:00Z")}, time.UTC)
	if err != nil {
		t.Fatalf("circular mean: %v", err)
	}
	if got.MeanSeconds > 5 && got.MeanSeconds < 86395 {
		t.Fatalf("expected mean near midnight, got %d (%s)", got.MeanSeconds, got.MeanTime)
	}
	if got.MeanTime != "00:00:00" {
		t.Fatalf("expected 00:00:00, got %s", got.MeanTime)
	}
	if got.Concentration < 0.99 {
		t.Fatalf("expected tight concentration, got %f", got.Concentration)
	}
}

func TestCircularMeanOppositeTimesHaveNoConcentration(t *testing.T) {
	t.Parallel()
	got, err := domain.CircularMean([]int64{at("2024-01-01T06:00:00Z"), at("2024-01-01T18:00:00Z")}, time.UTC)
	if err != nil {
		t.Fatalf("circular mean: %v", err)
	}
	if got.Concentration > 1e-9 {
		t.Fatalf("expected zero concentration, got %f", got.Concentration)
	}
}

func TestCircularMeanUsesLocation(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("UTC+2", 2*3600)
	got, err := domain.CircularMean([]int64{at("2024-01-01T21:00:00Z")}, loc)
	if err != nil {
		t.Fatalf("circular mean: %v", err)
	}
	if got.MeanTime != "23:00:00" {
		t.Fatalf("expected local 23:00, got %s", got.MeanTime)
	}
	if _, err := domain.CircularMean(nil, loc); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestComputeAverages(t *testing.T) {
	t.Parallel()
	got, err := domain.ComputeAverages([]recorddomain.SleepSession{
		session("a", "2024-01-01T23:00:00Z", "2024-01-02T07:00:00Z"),
		session("b", "2024-01-03T01:00:00Z", "2024-01-03T07:00:00Z"),
	}, time.UTC)
	if err != nil {
		t.Fatalf("averages: %v", err)
	}
	if got.Count != 2 || got.Start.MeanTime != "00:00:00" || got.End.MeanTime != "07:00:00" {
		t.Fatalf("unexpected averages %+v", got)
	}
	if got.Duration.MeanSeconds != 7*3600 || got.Duration.MeanTime != "07:00:00" {
		t.Fatalf("unexpected duration mean %+v", got.Duration)
	}
	if _, err := domain.ComputeAverages(nil, time.UTC); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuildGraphKeysByEndDate(t *testing.T) {
	t.Parallel()
	sessions := []recorddomain.SleepSession{
		session("a", "2024-01-01T23:00:00Z", "2024-01-02T07:00:00Z"),
		session("b", "2024-01-02T23:30:00Z", "2024-01-03T06:30:00Z"),
	}
	lo, hi, err := domain.EndRange(sessions)
	if err != nil {
		t.Fatalf("end range: %v", err)
	}
	buckets, err := domain.BuildGraph(sessions, lo, hi, 100, time.UTC)
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %+v", buckets)
	}
	if buckets[0].Date != "2024-01-02" || buckets[0].DurationSeconds != 8*3600 || buckets[0].Height != 100 || buckets[0].DurationTime != "08:00:00" {
		t.Fatalf("unexpected first bucket %+v", buckets[0])
	}
	if buckets[1].Date != "2024-01-03" || buckets[1].DurationSeconds != 7*3600 || math.Abs(buckets[1].Height-87.5) > 1e-9 {
		t.Fatalf("unexpected second bucket %+v", buckets[1])
	}
}

func TestBuildGraphKeepsEmptyDays(t *testing.T) {
	t.Parallel()
	sessions := []recorddomain.SleepSession{
		session("a", "2024-01-01T00:00:00Z", "2024-01-01T06:00:00Z"),
		session("b", "2024-01-03T00:00:00Z", "2024-01-03T03:00:00Z"),
	}
	buckets, err := domain.BuildGraph(sessions, at("2024-01-01T00:00:00Z"), at("2024-01-03T12:00:00Z"), 50, time.UTC)
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	if len(buckets) != 3 || buckets[1].Date != "2024-01-02" || buckets[1].DurationSeconds != 0 || buckets[1].Height != 0 {
		t.Fatalf("expected an empty middle bucket, got %+v", buckets)
	}
	if buckets[0].Height != 50 || buckets[2].Height != 25 {
		t.Fatalf("unexpected heights %+v", buckets)
	}

	empty, err := domain.BuildGraph(nil, at("2024-01-01T00:00:00Z"), at("2024-01-02T00:00:00Z"), 100, time.UTC)
	if err != nil {
		t.Fatalf("empty graph: %v", err)
	}
	for _, b := range empty {
		if b.Height != 0 {
			t.Fatalf("expected zero heights, got %+v", empty)
		}
	}
}

func TestSplitIntervalsAttachesSpanningSessionToBothDays(t *testing.T) {
	t.Parallel()
	night := session("n", "2024-01-01T23:00:00Z", "2024-01-02T07:00:00Z")
	sun := recorddomain.SunTimes{Date: "2024-01-02", Sunrise: at("2024-01-02T07:30:00Z"), Sunset: at("2024-01-02T16:00:00Z")}
	intervals, err := domain.SplitIntervals(domain.SplitParams{
		RangeStart: at("2024-01-01T00:00:00Z"),
		RangeEnd:   at("2024-01-02T23:59:59Z"),
		Loc:        time.UTC,
	}, []recorddomain.SleepSession{night}, []recorddomain.SunTimes{sun})
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(intervals) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(intervals))
	}
	if intervals[0].Start != at("2024-01-01T00:00:00Z") || intervals[1].End != at("2024-01-03T00:00:00Z") {
		t.Fatalf("unexpected bounds %+v", intervals)
	}
	for i, in := range intervals {
		if len(in.Sessions) != 1 || in.Sessions[0].ID != "n" {
			t.Fatalf("interval %d: expected the spanning session, got %+v", i, in.Sessions)
		}
	}
	if len(intervals[0].SunTimes) != 0 || len(intervals[1].SunTimes) != 1 {
		t.Fatalf("expected sun times only on the second day, got %+v", intervals)
	}
}

func TestSplitIntervalsOffsetAlignsNights(t *testing.T) {
	t.Parallel()
	night := session("n", "2024-01-01T23:00:00Z", "2024-01-02T07:00:00Z")
	early := session("early", "2023-12-30T01:00:00Z", "2023-12-30T02:00:00Z")
	intervals, err := domain.SplitIntervals(domain.SplitParams{
		RangeStart: at("2024-01-01T00:00:00Z"),
		RangeEnd:   at("2024-01-02T23:59:59Z"),
		Offset:     12 * time.Hour,
		Loc:        time.UTC,
	}, []recorddomain.SleepSession{night, early}, nil)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if len(intervals) != 3 || intervals[0].Start != at("2023-12-31T12:00:00Z") {
		t.Fatalf("unexpected intervals %+v", intervals)
	}
	if len(intervals[1].Sessions) != 1 || intervals[1].Sessions[0].ID != "n" || len(intervals[2].Sessions) != 0 {
		t.Fatalf("expected the night in the middle bucket only, got %+v", intervals)
	}
	if len(intervals[0].Sessions) != 1 || intervals[0].Sessions[0].ID != "early" {
		t.Fatalf("expected out-of-range session clamped into the first bucket, got %+v", intervals[0].Sessions)
	}
}

func TestSplitIntervalsRejectsOffsetBeyondSplit(t *testing.T) {
	t.Parallel()
	_, err := domain.SplitIntervals(domain.SplitParams{
		RangeStart: 0,
		RangeEnd:   86400,
		Split:      6 * time.Hour,
		Offset:     7 * time.Hour,
	}, nil, nil)
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSplitIntervalsRejectsTooManyBuckets(t *testing.T) {
	t.Parallel()
	_, err := domain.SplitIntervals(domain.SplitParams{
		RangeStart: at("2020-01-01T00:00:00Z"),
		RangeEnd:   at("2024-01-01T00:00:00Z"),
		Split:      time.Second,
	}, nil, nil)
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error for a one-second split over years, got %v", err)
	}

	intervals, err := domain.SplitIntervals(domain.SplitParams{
		RangeStart: 0,
		RangeEnd:   int64(domain.MaxIntervals-1) * 60,
		Split:      time.Minute,
	}, nil, nil)
	if err != nil {
		t.Fatalf("split at the limit: %v", err)
	}
	if len(intervals) != domain.MaxIntervals {
		t.Fatalf("expected %d intervals, got %d", domain.MaxIntervals, len(intervals))
	}
}

func TestBuildLifeline(t *testing.T) {
	t.Parallel()
	first := session("first", "2024-01-01T00:00:00Z", "2024-01-01T08:00:00Z")
	second := session("second", "2024-01-02T00:00:00Z", "2024-01-02T07:00:00Z")
	suns := []recorddomain.SunTimes{
		{Date: "2024-01-01", Sunrise: at("2024-01-01T08:00:00Z"), Sunset: at("2024-01-01T16:00:00Z")},
		{Date: "2024-02-01", Sunrise: at("2024-02-01T08:00:00Z"), Sunset: at("2024-02-01T16:00:00Z")},
	}
	line, err := domain.BuildLifeline([]recorddomain.SleepSession{second, first}, suns, 24)
	if err != nil {
		t.Fatalf("lifeline: %v", err)
	}
	if line.RangeStart != at("2023-12-31T12:00:00Z") || line.RangeEnd != at("2024-01-02T19:00:00Z") || line.Width != 55 {
		t.Fatalf("unexpected range %+v", line)
	}
	if len(line.Entries) != 2 || line.Entries[0].Session.ID != "first" {
		t.Fatalf("expected midpoint order, got %+v", line.Entries)
	}
	a, b := line.Entries[0], line.Entries[1]
	if a.Offset != 12 || a.Width != 8 || a.Shift != 0 {
		t.Fatalf("unexpected first entry %+v", a)
	}
	if b.Offset != 36 || b.Width != 7 || b.Shift != 23.5 {
		t.Fatalf("unexpected second entry %+v", b)
	}
	if len(line.SunTimes) != 1 || line.SunTimes[0].Date != "2024-01-01" {
		t.Fatalf("expected only in-range sun times, got %+v", line.SunTimes)
	}
	if _, err := domain.BuildLifeline(nil, nil, 24); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
