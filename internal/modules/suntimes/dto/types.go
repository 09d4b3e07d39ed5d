package dto

import "time"

// GetInput.Date accepts YYYY-MM-DD or any parseable timestamp.
type GetInput struct {
	Date any
	Lat  float64
	Lon  float64
}

type PutInput struct {
	Date    any
	Lat     float64
	Lon     float64
	Sunrise any
	Sunset  any
}

// ListInput without coordinates lists every cached location.
type ListInput struct {
	RangeStart any
	RangeEnd   any
	Lat        *float64
	Lon        *float64
}

type ProgressInput struct {
	// At defaults to now.
	At  any
	Lat float64
	Lon float64
}

type SunTimesOutput struct {
	Date      string
	Lat       float64
	Lon       float64
	Sunrise   int64
	Sunset    int64
	Daylength int64
	UpdatedAt *int64
	Source    string
}

type FailedDate struct {
	Date string
	Err  error
}

type RequestListOutput struct {
	Records   []SunTimesOutput
	Cached    int
	Fetched   int
	Estimated int
	Failed    []FailedDate
}

type ProgressOutput struct {
	At       time.Time
	Progress float64
	Daylight bool
	Record   SunTimesOutput
}
