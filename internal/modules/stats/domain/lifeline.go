package domain

import (
	"cmp"
	"slices"

	recorddomain "sleepsun/internal/modules/record/domain"
	apperrors "sleepsun/internal/platform/errors"
)

// LifelinePadding widens the covering range by half a day on each side.
const LifelinePadding int64 = secondsPerDay / 2

type LifelineEntry struct {
	Session  recorddomain.SleepSession
	Midpoint int64
	// Offset, Width and Shift are in layout units.
	Offset float64
	Width  float64
	Shift  float64
}

type Lifeline struct {
	RangeStart int64
	RangeEnd   int64
	Width      float64
	Entries    []LifelineEntry
	SunTimes   []recorddomain.SunTimes
}

// LifelineRange is the padded span covering every session.
func LifelineRange(sessions []recorddomain.SleepSession) (int64, int64, error) {
	if len(sessions) == 0 {
		return 0, 0, apperrors.Invalid("lifeline needs at least one session")
	}
	lo, hi := sessions[0].Start, sessions[0].End
	for _, s := range sessions[1:] {
		lo, hi = min(lo, s.Start), max(hi, s.End)
	}
	return lo - LifelinePadding, hi + LifelinePadding, nil
}

// BuildLifeline lays sessions out by midpoint on a horizontal axis where one
// day spans unitsPerDay units. Sun times outside the covering range are
// dropped.
func BuildLifeline(sessions []recorddomain.SleepSession, suns []recorddomain.SunTimes, unitsPerDay float64) (Lifeline, error) {
	if unitsPerDay <= 0 {
		return Lifeline{}, apperrors.Invalid("units per day must be positive")
	}
	rangeStart, rangeEnd, err := LifelineRange(sessions)
	if err != nil {
		return Lifeline{}, err
	}
	units := func(seconds int64) float64 { return float64(seconds) * unitsPerDay / secondsPerDay }

	ordered := slices.Clone(sessions)
	slices.SortStableFunc(ordered, func(a, b recorddomain.SleepSession) int {
		return cmp.Or(cmp.Compare(a.Midpoint(), b.Midpoint()), cmp.Compare(a.ID, b.ID))
	})

	line := Lifeline{
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
		Width:      units(rangeEnd - rangeStart),
		Entries:    make([]LifelineEntry, 0, len(ordered)),
	}
	for i, s := range ordered {
		entry := LifelineEntry{
			Session:  s,
			Midpoint: s.Midpoint(),
			Offset:   units(s.Start - rangeStart),
			Width:    units(s.Duration()),
		}
		if i > 0 {
			entry.Shift = units(entry.Midpoint - line.Entries[i-1].Midpoint)
		}
		line.Entries = append(line.Entries, entry)
	}
	for _, sun := range suns {
		if sun.Sunset >= rangeStart && sun.Sunrise <= rangeEnd {
			line.SunTimes = append(line.SunTimes, sun)
		}
	}
	slices.SortFunc(line.SunTimes, func(a, b recorddomain.SunTimes) int { return cmp.Compare(a.Date, b.Date) })
	return line, nil
}
