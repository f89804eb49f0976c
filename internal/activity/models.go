package activity

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a tracking session.
type Status int

const (
	StatusIdle Status = iota
	StatusActive
	StatusPaused
	StatusStopped
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusPaused:
		return "paused"
	case StatusStopped:
		return "stopped"
	default:
		return "idle"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for _, st := range []Status{StatusIdle, StatusActive, StatusPaused, StatusStopped} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// LocationFix is a single raw GPS sample as reported by the device.
// Accuracy is the horizontal accuracy radius in meters; Speed is in m/s and
// may be negative when the device could not determine it.
type LocationFix struct {
	Timestamp time.Time `json:"timestamp"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Altitude  float64   `json:"altitude"`
	Accuracy  float64   `json:"accuracy"`
	Speed     float64   `json:"speed"`
}

// TrackPoint is an accepted fix kept for drawing the route.
type TrackPoint struct {
	Seq        int       `json:"seq"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	Altitude   float64   `json:"altitude"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Snapshot is an immutable view of a session at one instant.
type Snapshot struct {
	Status         Status       `json:"status"`
	ActivityType   string       `json:"activity_type"`
	WeightKg       float64      `json:"weight_kg"`
	DistanceKm     float64      `json:"distance_km"`
	DurationSec    int64        `json:"duration_seconds"`
	SpeedKmh       float64      `json:"speed_kmh"`
	MaxSpeedKmh    float64      `json:"max_speed_kmh"`
	PaceMinPerKm   float64      `json:"pace_min_per_km"`
	Calories       int          `json:"calories"`
	Steps          int          `json:"steps"`
	StepsAvailable bool         `json:"steps_available"`
	Points         []TrackPoint `json:"points"`
	StartedAt      time.Time    `json:"started_at"`
	FinishedAt     time.Time    `json:"finished_at,omitempty"`
}

// HasRoute reports whether enough points exist to draw a polyline.
func (s Snapshot) HasRoute() bool {
	return len(s.Points) >= 2
}
