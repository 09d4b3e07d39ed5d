package domain

import (
	"time"

	recorddomain "sleepsun/internal/modules/record/domain"
	apperrors "sleepsun/internal/platform/errors"
)

const DefaultSplit = 24 * time.Hour

// MaxIntervals bounds the bucket count of one split.
const MaxIntervals = 100_000

type SplitParams struct {
	RangeStart int64
	RangeEnd   int64
	Split      time.Duration
	Offset     time.Duration
	Loc        *time.Location
}

// Interval is one fixed-width bucket, [Start, End).
type Interval struct {
	Start    int64
	End      int64
	Sessions []recorddomain.SleepSession
	SunTimes []recorddomain.SunTimes
}

// SplitIntervals cuts the range into consecutive buckets anchored at the
// local day boundary of RangeStart plus Offset. Every record lands in each
// bucket its [start, end] touches; indices outside the range are clamped
// to the first or last bucket.
func SplitIntervals(params SplitParams, sessions []recorddomain.SleepSession, suns []recorddomain.SunTimes) ([]Interval, error) {
	if params.Split == 0 {
		params.Split = DefaultSplit
	}
	if params.Split < time.Second {
		return nil, apperrors.Invalid("split %s must be at least one second", params.Split)
	}
	if params.Offset < 0 || params.Offset > params.Split {
		return nil, apperrors.Invalid("offset %s exceeds split %s", params.Offset, params.Split)
	}
	if params.RangeEnd < params.RangeStart {
		return nil, apperrors.Invalid("range end %d is before range start %d", params.RangeEnd, params.RangeStart)
	}

	width := int64(params.Split / time.Second)
	anchor := recorddomain.DayStart(params.RangeStart, params.Loc).Add(params.Offset).Unix()
	if anchor > params.RangeStart {
		anchor -= width
	}
	span := (params.RangeEnd-anchor)/width + 1
	if span > MaxIntervals {
		return nil, apperrors.Invalid("split %s over this range yields %d intervals, more than %d", params.Split, span, MaxIntervals)
	}
	count := int(span)

	intervals := make([]Interval, count)
	for i := range intervals {
		intervals[i].Start = anchor + int64(i)*width
		intervals[i].End = intervals[i].Start + width
	}

	bucketsOf := func(start, end int64) (int, int) {
		lo := clamp(floorDiv(start-anchor, width), count)
		hi := clamp(floorDiv(end-anchor, width), count)
		return lo, hi
	}
	for _, s := range sessions {
		lo, hi := bucketsOf(s.Start, s.End)
		for i := lo; i <= hi; i++ {
			intervals[i].Sessions = append(intervals[i].Sessions, s)
		}
	}
	for _, sun := range suns {
		lo, hi := bucketsOf(sun.Sunrise, sun.Sunset)
		for i := lo; i <= hi; i++ {
			intervals[i].SunTimes = append(intervals[i].SunTimes, sun)
		}
	}
	return intervals, nil
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func clamp(i int64, count int) int {
	if i < 0 {
		return 0
	}
	if i >= int64(count) {
		return count - 1
	}
	return int(i)
}
