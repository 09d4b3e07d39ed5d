// Package location supplies the device coordinates consumed by the tracker
// and the sun-time fetcher.
package location

import (
	"context"
	"errors"
	"math"
	"time"

	"sleepsun/internal/platform/clock"
)

var ErrUnavailable = errors.New("location unavailable")

type Coordinates struct {
	Lat float64
	Lon float64
	// Approximate is set when the position was derived from the time zone.
	Approximate bool
}

type Provider interface {
	Current(ctx context.Context) (Coordinates, error)
}

// Static returns fixed coordinates, typically from configuration.
type Static struct {
	Lat, Lon *float64
}

func (s Static) Current(context.Context) (Coordinates, error) {
	if s.Lat == nil || s.Lon == nil {
		return Coordinates{}, ErrUnavailable
	}
	return Coordinates{Lat: round(*s.Lat), Lon: round(*s.Lon)}, nil
}

// UTCOffset estimates a position on the equator from the local UTC offset:
// 15 degrees of longitude per hour.
type UTCOffset struct {
	Clock    clock.Clock
	Location *time.Location
}

func (u UTCOffset) Current(context.Context) (Coordinates, error) {
	now := time.Now()
	if u.Clock != nil {
		now = u.Clock.Now()
	}
	loc := u.Location
	if loc == nil {
		loc = time.Local
	}
	_, offset := now.In(loc).Zone()
	return Coordinates{Lat: 0, Lon: round(float64(offset) / 60 / 4), Approximate: true}, nil
}

// Chain returns the first provider that yields coordinates.
type Chain []Provider

func (c Chain) Current(ctx context.Context) (Coordinates, error) {
	var lastErr error = ErrUnavailable
	for _, p := range c {
		coords, err := p.Current(ctx)
		if err == nil {
			return coords, nil
		}
		lastErr = err
	}
	return Coordinates{}, lastErr
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}
