package domain

import (
	"fmt"
	"math"
	"strconv"
	"time"

	apperrors "sleepsun/internal/platform/errors"
)

const DateLayout = "2006-01-02"

// SleepSession is a persisted sleep interval. Times are epoch seconds (UTC).
type SleepSession struct {
	ID        string   `json:"id"`
	Start     int64    `json:"start"`
	End       int64    `json:"end"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	CreatedAt int64    `json:"createdAt"`
	UpdatedAt *int64   `json:"updatedAt,omitempty"`
}

func (s SleepSession) Validate() error {
	if s.ID == "" {
		return apperrors.Invalid("session id is required")
	}
	if s.End < s.Start {
		return apperrors.Invalid("session end %d is before start %d", s.End, s.Start)
	}
	return ValidateCoordinates(s.Lat, s.Lon)
}

func (s SleepSession) Duration() int64 {
	return s.End - s.Start
}

func (s SleepSession) Midpoint() int64 {
	return s.Start + (s.End-s.Start)/2
}

// Matches reports whether the session falls in [start, end] under mode.
func (s SleepSession) Matches(start, end int64, mode MatchMode) bool {
	if mode == MatchContained {
		return s.Start >= start && s.End <= end
	}
	return s.End >= start && s.Start <= end
}

// SunTimes is one cached sunrise/sunset pair for a calendar date at rounded
// coordinates.
type SunTimes struct {
	Date      string  `json:"date"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Sunrise   int64   `json:"sunrise"`
	Sunset    int64   `json:"sunset"`
	Daylength int64   `json:"daylength,omitempty"`
	UpdatedAt *int64  `json:"updatedAt,omitempty"`
}

func (s SunTimes) Key() SunKey {
	return SunKey{Date: s.Date, Lat: s.Lat, Lon: s.Lon}
}

func (s SunTimes) DayLength() int64 {
	if s.Daylength > 0 {
		return s.Daylength
	}
	return s.Sunset - s.Sunrise
}

func (s SunTimes) Validate() error {
	if _, err := time.Parse(DateLayout, s.Date); err != nil {
		return apperrors.Invalid("sun times date %q must be YYYY-MM-DD", s.Date)
	}
	if s.Sunset < s.Sunrise {
		return apperrors.Invalid("sunset %d is before sunrise %d", s.Sunset, s.Sunrise)
	}
	return ValidateCoordinates(&s.Lat, &s.Lon)
}

// SunKey is the composite cache key of a SunTimes record. Keys built with
// NewSunKey from the same rounded inputs compare equal.
type SunKey struct {
	Date string
	Lat  float64
	Lon  float64
}

func NewSunKey(date string, lat, lon float64) (SunKey, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return SunKey{}, apperrors.Invalid("date %q must be YYYY-MM-DD", date)
	}
	rlat, rlon := RoundCoordinate(lat), RoundCoordinate(lon)
	if err := ValidateCoordinates(&rlat, &rlon); err != nil {
		return SunKey{}, err
	}
	return SunKey{Date: d.Format(DateLayout), Lat: rlat, Lon: rlon}, nil
}

func (k SunKey) String() string {
	return k.Date + "_" + FormatCoordinate(k.Lat) + "_" + FormatCoordinate(k.Lon)
}

type MatchMode string

const (
	MatchOverlapping MatchMode = "overlapping"
	MatchContained   MatchMode = "contained"
)

func ParseMatchMode(raw string) (MatchMode, error) {
	switch MatchMode(raw) {
	case "", MatchOverlapping:
		return MatchOverlapping, nil
	case MatchContained:
		return MatchContained, nil
	default:
		return "", apperrors.Invalid("unknown match mode %q", raw)
	}
}

// CoordinatePatch distinguishes an absent field (Set=false) from an explicit
// clear (Set=true, Value=nil) in partial updates.
type CoordinatePatch struct {
	Set   bool
	Value *float64
}

func Patch(v *float64) CoordinatePatch {
	return CoordinatePatch{Set: true, Value: v}
}

func (p CoordinatePatch) Apply(current *float64) *float64 {
	if !p.Set {
		return current
	}
	return RoundCoordinatePtr(p.Value)
}

// RoundCoordinate rounds to two decimals, about 1.1 km.
func RoundCoordinate(v float64) float64 {
	return math.Round(v*100) / 100
}

func RoundCoordinatePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := RoundCoordinate(*v)
	return &r
}

func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func ValidateCoordinates(lat, lon *float64) error {
	if lat != nil && (math.IsNaN(*lat) || *lat < -90 || *lat > 90) {
		return apperrors.Invalid("latitude %v out of range", *lat)
	}
	if lon != nil && (math.IsNaN(*lon) || *lon < -180 || *lon > 180) {
		return apperrors.Invalid("longitude %v out of range", *lon)
	}
	return nil
}

// DateOf returns the calendar date of epoch in loc.
func DateOf(epoch int64, loc *time.Location) string {
	return time.Unix(epoch, 0).In(locOrUTC(loc)).Format(DateLayout)
}

// DayStart returns midnight of the calendar day containing epoch in loc.
func DayStart(epoch int64, loc *time.Location) time.Time {
	t := time.Unix(epoch, 0).In(locOrUTC(loc))
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DateRange lists every calendar date from start to end inclusive.
func DateRange(start, end string) ([]string, error) {
	from, err := time.Parse(DateLayout, start)
	if err != nil {
		return nil, apperrors.Invalid("date %q must be YYYY-MM-DD", start)
	}
	to, err := time.Parse(DateLayout, end)
	if err != nil {
		return nil, apperrors.Invalid("date %q must be YYYY-MM-DD", end)
	}
	if to.Before(from) {
		return nil, apperrors.Invalid("range end %s is before start %s", end, start)
	}
	out := []string{}
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(DateLayout))
	}
	return out, nil
}

func FormatClock(seconds int64) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%s%02d:%02d:%02d", sign, seconds/3600, seconds%3600/60, seconds%60)
}

func locOrUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
