package route

import "time"

// Route is a finished activity as stored in the routes table.
type Route struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	ActivityType    string    `json:"activity_type"`
	StartLat        float64   `json:"start_latitude"`
	StartLng        float64   `json:"start_longitude"`
	EndLat          float64   `json:"end_latitude"`
	EndLng          float64   `json:"end_longitude"`
	CoordinatesJSON string    `json:"coordinates_json,omitempty"`
	DistanceKm      float64   `json:"distance_km"`
	DurationSec     int64     `json:"duration_seconds"`
	AvgPace         float64   `json:"avg_pace"`
	AvgSpeedKmh     float64   `json:"avg_speed_kmh"`
	MaxSpeedKmh     float64   `json:"max_speed_kmh"`
	ElevationGainM  float64   `json:"elevation_gain"`
	ElevationLossM  float64   `json:"elevation_loss"`
	Calories        int       `json:"calories_burned"`
	Steps           int       `json:"steps"`
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// ListFilter narrows List. Zero values mean "no filter".
type ListFilter struct {
	ActivityType string
	From         time.Time
	To           time.Time
	Limit        int
	Offset       int
}

type Stats struct {
	Days             int            `json:"days"`
	TotalRoutes      int            `json:"total_routes"`
	TotalDistanceKm  float64        `json:"total_distance_km"`
	TotalDurationSec int64          `json:"total_duration_seconds"`
	TotalCalories    int64          `json:"total_calories"`
	AvgPace          float64        `json:"avg_pace"`
	AvgSpeedKmh      float64        `json:"avg_speed_kmh"`
	LongestKm        float64        `json:"longest_route_km"`
	ByActivity       map[string]int `json:"activity_breakdown"`
}
