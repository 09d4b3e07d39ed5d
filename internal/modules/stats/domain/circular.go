package domain

import (
	"math"
	"time"

	recorddomain "sleepsun/internal/modules/record/domain"
	apperrors "sleepsun/internal/platform/errors"
)

const secondsPerDay = 86400

type TimeOfDayMean struct {
	// MeanSeconds is seconds after local midnight, in [0, 86400).
	MeanSeconds int64
	MeanTime    string
	// Concentration is the resultant length in [0, 1]. Values near 1 mean
	// the times cluster tightly.
	Concentration float64
}

type DurationMean struct {
	MeanSeconds float64
	MeanTime    string
}

type Averages struct {
	Count    int
	Start    TimeOfDayMean
	End      TimeOfDayMean
	Duration DurationMean
}

// CircularMean averages clock times on the unit circle so that 23:50 and
// 00:10 average to 00:00 rather than noon.
func CircularMean(epochs []int64, loc *time.Location) (TimeOfDayMean, error) {
	if len(epochs) == 0 {
		return TimeOfDayMean{}, apperrors.Invalid("circular mean needs at least one timestamp")
	}
	if loc == nil {
		loc = time.UTC
	}
	var sumCos, sumSin float64
	for _, epoch := range epochs {
		theta := 2 * math.Pi * float64(secondOfDay(epoch, loc)) / secondsPerDay
		sumCos += math.Cos(theta)
		sumSin += math.Sin(theta)
	}
	n := float64(len(epochs))
	meanCos, meanSin := sumCos/n, sumSin/n

	angle := math.Atan2(meanSin, meanCos)
	if angle < 0 {
		angle += 2 * math.Pi
	}
	seconds := int64(math.Round(angle/(2*math.Pi)*secondsPerDay)) % secondsPerDay
	return TimeOfDayMean{
		MeanSeconds:   seconds,
		MeanTime:      recorddomain.FormatClock(seconds),
		Concentration: math.Min(1, math.Hypot(meanCos, meanSin)),
	}, nil
}

// ComputeAverages takes circular means of starts and ends and the plain
// mean of durations.
func ComputeAverages(sessions []recorddomain.SleepSession, loc *time.Location) (Averages, error) {
	if len(sessions) == 0 {
		return Averages{}, apperrors.Invalid("averages need at least one session")
	}
	starts := make([]int64, 0, len(sessions))
	ends := make([]int64, 0, len(sessions))
	var total float64
	for _, s := range sessions {
		starts = append(starts, s.Start)
		ends = append(ends, s.End)
		total += float64(s.Duration())
	}
	start, err := CircularMean(starts, loc)
	if err != nil {
		return Averages{}, err
	}
	end, err := CircularMean(ends, loc)
	if err != nil {
		return Averages{}, err
	}
	mean := total / float64(len(sessions))
	return Averages{
		Count: len(sessions),
		Start: start,
		End:   end,
		Duration: DurationMean{
			MeanSeconds: mean,
			MeanTime:    recorddomain.FormatClock(int64(math.Round(mean))),
		},
	}, nil
}

func secondOfDay(epoch int64, loc *time.Location) int64 {
	t := time.Unix(epoch, 0).In(loc)
	return int64(t.Hour()*3600 + t.Minute()*60 + t.Second())
}
