package dto

import "time"

// RangeInput bounds accept anything timeparse.Parse understands.
type RangeInput struct {
	RangeStart any
	RangeEnd   any
}

// GraphInput takes explicit sessions when SessionIDs is set, else queries
// the range.
type GraphInput struct {
	RangeInput
	SessionIDs []string
	MaxHeight  float64
}

// SplitInput falls back to the configured split and offset when Split is
// zero. A nil Offset means 0 for an explicit Split.
type SplitInput struct {
	RangeInput
	Split  time.Duration
	Offset *time.Duration
	Lat    *float64
	Lon    *float64
}

type LifelineInput struct {
	RangeInput
	UnitsPerDay float64
	Lat         *float64
	Lon         *float64
}

type TimeOfDayOutput struct {
	MeanSeconds   int64
	MeanTime      string
	Concentration float64
}

type AveragesOutput struct {
	Count               int
	Start               TimeOfDayOutput
	End                 TimeOfDayOutput
	DurationMeanSeconds float64
	DurationMeanTime    string
}

type GraphBucketOutput struct {
	Date            string
	DurationSeconds int64
	DurationTime    string
	Height          float64
}

type SessionRef struct {
	ID    string
	Start int64
	End   int64
}

type SunRef struct {
	Date    string
	Sunrise int64
	Sunset  int64
}

type IntervalOutput struct {
	Start    int64
	End      int64
	Sessions []SessionRef
	SunTimes []SunRef
}

type LifelineEntryOutput struct {
	Session  SessionRef
	Midpoint int64
	Offset   float64
	Width    float64
	Shift    float64
}

type LifelineOutput struct {
	RangeStart int64
	RangeEnd   int64
	Width      float64
	Entries    []LifelineEntryOutput
	SunTimes   []SunRef
}
