package activity

import "backend-corevia/internal/shared/geo"

const (
	// JitterKm is the largest hop treated as GPS noise (3 m).
	JitterKm = 0.003
	// TeleportKm is the smallest hop treated as a signal jump (100 m).
	TeleportKm = 0.1

	mpsToKmh = 3.6
)

// Outcome describes what a fix did to the session.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeStale
	OutcomeInaccurate
	OutcomeStationary
	OutcomeAnchored
	OutcomeJitter
	OutcomeTeleport
	OutcomeAdded
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStale:
		return "stale"
	case OutcomeInaccurate:
		return "inaccurate"
	case OutcomeStationary:
		return "stationary"
	case OutcomeAnchored:
		return "anchored"
	case OutcomeJitter:
		return "jitter"
	case OutcomeTeleport:
		return "teleport"
	case OutcomeAdded:
		return "added"
	default:
		return "ignored"
	}
}

// Accumulator integrates accepted fixes into distance, speed and route points.
// The zero value is ready to use.
type Accumulator struct {
	DistanceKm  float64
	SpeedKmh    float64
	MaxSpeedKmh float64
	Points      []TrackPoint
	Last        *LocationFix
}

// Reset clears all accumulated state.
func (a *Accumulator) Reset() {
	*a = Accumulator{}
}

// Hold moves the anchor to fix without adding distance. Used for fixes
// recorded while standing still.
func (a *Accumulator) Hold(fix LocationFix) {
	f := fix
	a.Last = &f
}

// Add applies a filter-accepted fix.
//
// Jitter hops keep the previous anchor so slow movement sampled at a high
// rate still adds up once it clears JitterKm. Teleport hops are dropped the
// same way and leave the anchor where it was.
func (a *Accumulator) Add(fix LocationFix) Outcome {
	if a.Last == nil {
		a.Hold(fix)
		a.appendPoint(fix)
		return OutcomeAnchored
	}

	deltaKm := geo.HaversineKm(a.Last.Lat, a.Last.Lng, fix.Lat, fix.Lng)
	if deltaKm <= JitterKm {
		return OutcomeJitter
	}
	if deltaKm >= TeleportKm {
		return OutcomeTeleport
	}

	a.DistanceKm += deltaKm
	a.appendPoint(fix)
	if fix.Speed >= 0 {
		a.SpeedKmh = fix.Speed * mpsToKmh
		if a.SpeedKmh > a.MaxSpeedKmh {
			a.MaxSpeedKmh = a.SpeedKmh
		}
	}
	a.Hold(fix)
	return OutcomeAdded
}

// PaceMinPerKm converts the current speed into minutes per kilometer.
func (a *Accumulator) PaceMinPerKm() float64 {
	return PaceFromSpeed(a.SpeedKmh)
}

func (a *Accumulator) appendPoint(fix LocationFix) {
	a.Points = append(a.Points, TrackPoint{
		Seq:        len(a.Points),
		Lat:        fix.Lat,
		Lng:        fix.Lng,
		Altitude:   fix.Altitude,
		RecordedAt: fix.Timestamp,
	})
}

// PaceFromSpeed returns minutes per kilometer for a speed in km/h, or 0 when
// not moving.
func PaceFromSpeed(speedKmh float64) float64 {
	if speedKmh <= 0 {
		return 0
	}
	return 60 / speedKmh
}
