package domain

import (
	"math"
	"time"

	recorddomain "sleepsun/internal/modules/record/domain"
)

// Source tells where a returned record came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceRemote   Source = "remote"
	SourceEstimate Source = "estimate"
)

// axialTilt is 23.45 degrees in radians.
const axialTilt = 0.409

// NoData is the day progress reported when no sun times are known.
const NoData = 2.0

// Estimate approximates sunrise and sunset for key with closed-form solar
// geometry: declination from day of year (23.45 degree tilt), hour angle
// from cos(w) = -tan(lat)*tan(decl) clamped to [-1, 1], and solar noon from
// 12:00 UTC shifted 4 minutes per degree of longitude plus the equation of
// time.
func Estimate(key recorddomain.SunKey) (recorddomain.SunTimes, error) {
	day, err := time.Parse(recorddomain.DateLayout, key.Date)
	if err != nil {
		return recorddomain.SunTimes{}, err
	}
	n := float64(day.YearDay())
	phi := key.Lat * math.Pi / 180

	b := 2 * math.Pi / 365 * (n - 81)
	delta := math.Asin(math.Sin(axialTilt) * math.Sin(b))

	term := math.Max(-1, math.Min(1, -math.Tan(phi)*math.Tan(delta)))
	omega := math.Acos(term)
	daylength := omega / math.Pi * 86400

	eot := 9.87*math.Sin(2*b) - 7.53*math.Cos(b) - 1.5*math.Sin(b)
	noon := float64(day.Unix()) + 12*3600 - (key.Lon*4+eot)*60

	return recorddomain.SunTimes{
		Date:      key.Date,
		Lat:       key.Lat,
		Lon:       key.Lon,
		Sunrise:   int64(math.Floor(noon - daylength/2)),
		Sunset:    int64(math.Floor(noon + daylength/2)),
		Daylength: int64(math.Floor(daylength)),
	}, nil
}

// Progress is the fraction of daylight elapsed at now: 0 at sunrise, 1 at
// sunset, negative before dawn and above 1 after dusk. A nil record or a
// day without daylight yields NoData.
func Progress(now int64, sun *recorddomain.SunTimes) float64 {
	if sun == nil || sun.DayLength() <= 0 {
		return NoData
	}
	return float64(now-sun.Sunrise) / float64(sun.DayLength())
}
