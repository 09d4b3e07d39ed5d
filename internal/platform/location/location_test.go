package location_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"sleepsun/internal/platform/location"
)

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

func TestChainFallsBackToUTCOffset(t *testing.T) {
	t.Parallel()
	tokyo := time.FixedZone("JST", 9*3600)
	chain := location.Chain{
		location.Static{},
		location.UTCOffset{Clock: fixedClock{t: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}, Location: tokyo},
	}
	coords, err := chain.Current(context.Background())
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if coords.Lat != 0 || coords.Lon != 135 || !coords.Approximate {
		t.Fatalf("expected approximate 0,135, got %+v", coords)
	}
}

func TestStaticRoundsCoordinates(t *testing.T) {
	t.Parallel()
	lat, lon := 52.51937, 13.40498
	coords, err := location.Static{Lat: &lat, Lon: &lon}.Current(context.Background())
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if coords.Lat != 52.52 || coords.Lon != 13.4 {
		t.Fatalf("expected rounded coordinates, got %+v", coords)
	}
	if _, err := (location.Chain{}).Current(context.Background()); !errors.Is(err, location.ErrUnavailable) {
		t.Fatalf("empty chain should be unavailable, got %v", err)
	}
}
