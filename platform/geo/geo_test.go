package geo

import (
	"math"
	"testing"
)

func TestDistanceKmZeroForSamePoint(t *testing.T) {
	d := DistanceKm(52.3702, 4.8952, 52.3702, 4.8952)
	if d != 0 {
		t.Fatalf("expected 0 distance for identical points, got %f", d)
	}
}

func TestDistanceKmAmsterdamRotterdam(t *testing.T) {
	// Amsterdam -> Rotterdam is roughly 57 km as the crow flies.
	d := DistanceKm(52.3702, 4.8952, 51.9244, 4.4777)
	if d < 55 || d > 60 {
		t.Fatalf("expected ~57 km, got %f", d)
	}
}

func TestDistanceKmSymmetric(t *testing.T) {
	a := DistanceKm(48.8566, 2.3522, 51.5074, -0.1278)
	b := DistanceKm(51.5074, -0.1278, 48.8566, 2.3522)
	if math.Abs(a-b) > 1e-9 {
		t.Fatalf("expected symmetric distances, got %f and %f", a, b)
	}
}

func TestDistanceKmShortRange(t *testing.T) {
	// Two points ~1.11 km apart along a meridian (0.01 degrees of latitude).
	d := DistanceKm(52.0, 5.0, 52.01, 5.0)
	if d < 1.0 || d > 1.2 {
		t.Fatalf("expected ~1.11 km, got %f", d)
	}
}
