package domain_test

import (
	"math"
	"testing"

	recorddomain "sleepsun/internal/modules/record/domain"
	"sleepsun/internal/modules/suntimes/domain"
)

func TestEstimateNearKnownValues(t *testing.T) {
	t.Parallel()
	// Berlin at the summer solstice has close to 16.8 hours of daylight.
	got, err := domain.Estimate(recorddomain.SunKey{Date: "2024-06-21", Lat: 52.52, Lon: 13.4})
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	hours := float64(got.Daylength) / 3600
	if hours < 16.2 || hours > 17.2 {
		t.Fatalf("expected ~16.8h of daylight, got %.2fh", hours)
	}
	noon := (got.Sunrise + got.Sunset) / 2
	wantNoon := int64(1718971200) - int64(13.4*4*60)
	if math.Abs(float64(noon-wantNoon)) > 10*60 {
		t.Fatalf("solar noon %d too far from %d", noon, wantNoon)
	}
	if got.Sunset-got.Sunrise != got.Daylength && got.Sunset-got.Sunrise != got.Daylength+1 {
		t.Fatalf("daylength %d inconsistent with %d..%d", got.Daylength, got.Sunrise, got.Sunset)
	}
}

func TestEstimateClampsPolarDayAndNight(t *testing.T) {
	t.Parallel()
	summer, err := domain.Estimate(recorddomain.SunKey{Date: "2024-06-21", Lat: 80, Lon: 0})
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if summer.Daylength != 86400 {
		t.Fatalf("expected polar day, got %d", summer.Daylength)
	}
	winter, err := domain.Estimate(recorddomain.SunKey{Date: "2024-12-21", Lat: 80, Lon: 0})
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if winter.Daylength != 0 || winter.Sunrise != winter.Sunset {
		t.Fatalf("expected polar night, got %+v", winter)
	}
	if p := domain.Progress(winter.Sunrise, &winter); p != domain.NoData {
		t.Fatalf("expected no-data progress during polar night, got %v", p)
	}
}

func TestProgress(t *testing.T) {
	t.Parallel()
	sun := &recorddomain.SunTimes{Sunrise: 1000, Sunset: 2000}
	if p := domain.Progress(1500, sun); p != 0.5 {
		t.Fatalf("expected 0.5, got %v", p)
	}
	if p := domain.Progress(500, sun); p >= 0 {
		t.Fatalf("expected negative progress before sunrise, got %v", p)
	}
	if p := domain.Progress(1500, nil); p != domain.NoData {
		t.Fatalf("expected no-data marker, got %v", p)
	}
}
