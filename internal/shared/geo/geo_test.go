package geo

import "testing"

func TestHaversineKm(t *testing.T) {
	// Jakarta (-6.2, 106.816) to Bandung (-6.9175, 107.6191) ~ 115-120 km
	d := HaversineKm(-6.2, 106.816, -6.9175, 107.6191)
	if d < 100 || d > 140 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestHaversineKmSamePoint(t *testing.T) {
	if d := HaversineKm(40.4093, 49.8671, 40.4093, 49.8671); d != 0 {
		t.Fatalf("expected zero distance, got %v", d)
	}
}

func TestHaversineKmShortHop(t *testing.T) {
	// 0.00045 deg of latitude is ~50 m
	d := HaversineKm(40.4093, 49.8671, 40.40975, 49.8671)
	if d < 0.049 || d > 0.051 {
		t.Fatalf("unexpected distance: %v", d)
	}
}
