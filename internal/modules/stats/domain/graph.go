package domain

import (
	"math"
	"time"

	recorddomain "sleepsun/internal/modules/record/domain"
	apperrors "sleepsun/internal/platform/errors"
)

type GraphBucket struct {
	Date            string
	DurationSeconds int64
	DurationTime    string
	Height          float64
}

// BuildGraph sums session durations per calendar day of the session end,
// one bucket for every day from rangeStart to rangeEnd. Heights scale to
// maxHeight against the largest bucket.
func BuildGraph(sessions []recorddomain.SleepSession, rangeStart, rangeEnd int64, maxHeight float64, loc *time.Location) ([]GraphBucket, error) {
	if rangeEnd < rangeStart {
		return nil, apperrors.Invalid("range end %d is before range start %d", rangeEnd, rangeStart)
	}
	if maxHeight <= 0 {
		return nil, apperrors.Invalid("max height must be positive")
	}
	days, err := recorddomain.DateRange(recorddomain.DateOf(rangeStart, loc), recorddomain.DateOf(rangeEnd, loc))
	if err != nil {
		return nil, err
	}
	index := make(map[string]int, len(days))
	buckets := make([]GraphBucket, len(days))
	for i, day := range days {
		index[day] = i
		buckets[i].Date = day
	}
	for _, s := range sessions {
		i, ok := index[recorddomain.DateOf(s.End, loc)]
		if !ok {
			continue
		}
		buckets[i].DurationSeconds += s.Duration()
	}

	var peak int64
	for _, b := range buckets {
		peak = max(peak, b.DurationSeconds)
	}
	for i := range buckets {
		buckets[i].DurationTime = recorddomain.FormatClock(buckets[i].DurationSeconds)
		if peak > 0 {
			h := float64(buckets[i].DurationSeconds) / float64(peak) * maxHeight
			buckets[i].Height = math.Round(h*100) / 100
		}
	}
	return buckets, nil
}

// EndRange is the earliest and latest session end.
func EndRange(sessions []recorddomain.SleepSession) (int64, int64, error) {
	if len(sessions) == 0 {
		return 0, 0, apperrors.Invalid("graph needs at least one session")
	}
	lo, hi := sessions[0].End, sessions[0].End
	for _, s := range sessions[1:] {
		lo, hi = min(lo, s.End), max(hi, s.End)
	}
	return lo, hi, nil
}
