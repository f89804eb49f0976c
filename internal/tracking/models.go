package tracking

import (
	"strings"

	"backend-corevia/internal/activity"
)

var activityTypes = map[string]struct{}{
	"running": {},
	"walking": {},
	"cycling": {},
}

// View is the live state of a session as served over HTTP and the stream.
type View struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	// LocationRequested tells the client whether it should be delivering fixes.
	LocationRequested bool `json:"location_requested"`
	activity.Snapshot
}

type StopResult struct {
	View
	Persisted bool   `json:"persisted"`
	RouteID   string `json:"route_id,omitempty"`
}

type StartRequest struct {
	ActivityType string `json:"activity_type"`
}

type StepsRequest struct {
	Steps int `json:"steps"`
}

func validActivityType(t string) bool {
	t = strings.TrimSpace(t)
	if t == "" {
		return true
	}
	_, ok := activityTypes[t]
	return ok
}
