package dto

import (
	"time"

	recorddomain "sleepsun/internal/modules/record/domain"
)

// CreateInput timestamps accept anything timeparse.Parse understands.
type CreateInput struct {
	ID    string
	Start any
	End   any
	Lat   *float64
	Lon   *float64
}

// UpdateInput leaves nil Start/End and unset coordinate patches untouched.
type UpdateInput struct {
	ID    string
	Start any
	End   any
	Lat   recorddomain.CoordinatePatch
	Lon   recorddomain.CoordinatePatch
}

type ListInput struct {
	RangeStart any
	RangeEnd   any
	Match      string
}

type TrackInput struct {
	Lat *float64
	Lon *float64
}

type SessionOutput struct {
	ID              string
	Start           int64
	End             int64
	Lat             *float64
	Lon             *float64
	CreatedAt       int64
	UpdatedAt       *int64
	DurationSeconds int64
	Duration        string
}

type StartOutput struct {
	ID        string
	StartedAt time.Time
	Lat       *float64
	Lon       *float64
	// Replaced holds the start of an overwritten in-progress session.
	Replaced *time.Time
}

type ActiveSessionOutput struct {
	ID        string
	StartedAt time.Time
	Lat       *float64
	Lon       *float64
	Elapsed   time.Duration
}

type CountersOutput struct {
	LastSessionID string
	SessionCount  int
}
