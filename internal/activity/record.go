package activity

import (
	"encoding/json"
	"math"
	"time"
)

// MinRecordDurationSec is the moving time a session must exceed to be kept.
const MinRecordDurationSec = 10

// Record is the finalized summary of a stopped session, handed to storage.
type Record struct {
	ActivityType   string       `json:"activity_type"`
	StartLat       float64      `json:"start_latitude"`
	StartLng       float64      `json:"start_longitude"`
	EndLat         float64      `json:"end_latitude"`
	EndLng         float64      `json:"end_longitude"`
	Points         []TrackPoint `json:"points"`
	DistanceKm     float64      `json:"distance_km"`
	DurationSec    int64        `json:"duration_seconds"`
	AvgSpeedKmh    float64      `json:"avg_speed_kmh"`
	AvgPaceMinKm   float64      `json:"avg_pace"`
	MaxSpeedKmh    float64      `json:"max_speed_kmh"`
	ElevationGainM float64      `json:"elevation_gain"`
	ElevationLossM float64      `json:"elevation_loss"`
	Calories       int          `json:"calories_burned"`
	Steps          int          `json:"steps"`
	StartedAt      time.Time    `json:"started_at"`
	FinishedAt     time.Time    `json:"finished_at"`
}

// Coordinates returns the route as [lat, lng, altitude, unix seconds] rows.
func (r Record) Coordinates() [][]float64 {
	coords := make([][]float64, 0, len(r.Points))
	for _, p := range r.Points {
		coords = append(coords, []float64{p.Lat, p.Lng, p.Altitude, float64(p.RecordedAt.Unix())})
	}
	return coords
}

// CoordinatesJSON encodes Coordinates; an empty route encodes as "".
func (r Record) CoordinatesJSON() (string, error) {
	if len(r.Points) == 0 {
		return "", nil
	}
	data, err := json.Marshal(r.Coordinates())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *Session) record() Record {
	points := make([]TrackPoint, len(s.acc.Points))
	copy(points, s.acc.Points)

	rec := Record{
		ActivityType: s.activityType,
		Points:       points,
		DistanceKm:   round(s.acc.DistanceKm, 3),
		DurationSec:  s.durationSec,
		MaxSpeedKmh:  round(s.acc.MaxSpeedKmh, 2),
		Calories:     s.calories,
		Steps:        s.steps,
		StartedAt:    s.startedAt,
		FinishedAt:   s.finishedAt,
	}

	switch {
	case len(points) > 0:
		first, last := points[0], points[len(points)-1]
		rec.StartLat, rec.StartLng = first.Lat, first.Lng
		rec.EndLat, rec.EndLng = last.Lat, last.Lng
	case s.acc.Last != nil:
		rec.StartLat, rec.StartLng = s.acc.Last.Lat, s.acc.Last.Lng
		rec.EndLat, rec.EndLng = s.acc.Last.Lat, s.acc.Last.Lng
	}

	if s.acc.DistanceKm > 0 && s.durationSec > 0 {
		rec.AvgSpeedKmh = round(AverageSpeedKmh(s.acc.DistanceKm, s.durationSec), 2)
		rec.AvgPaceMinKm = round((float64(s.durationSec)/60)/s.acc.DistanceKm, 2)
	}
	rec.ElevationGainM, rec.ElevationLossM = elevation(points)
	return rec
}

// elevation sums climbs and descents between consecutive points, in meters.
func elevation(points []TrackPoint) (gain, loss float64) {
	for i := 1; i < len(points); i++ {
		diff := points[i].Altitude - points[i-1].Altitude
		if diff > 0 {
			gain += diff
		} else {
			loss -= diff
		}
	}
	return round(gain, 1), round(loss, 1)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
