package route

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"backend-corevia/internal/activity"
	"backend-corevia/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100

	DefaultStatsDays = 30
	MaxStatsDays     = 365
)

var ErrRouteNotFound = errors.New("route not found")

var nowFn = time.Now

const routeColumns = `id, user_id, activity_type, start_latitude, start_longitude,
		COALESCE(end_latitude,0), COALESCE(end_longitude,0), COALESCE(coordinates_json,''),
		distance_km, duration_seconds, COALESCE(avg_pace,0), COALESCE(avg_speed_kmh,0),
		COALESCE(max_speed_kmh,0), COALESCE(elevation_gain,0), COALESCE(elevation_loss,0),
		COALESCE(calories_burned,0), COALESCE(steps,0), started_at, finished_at, created_at`

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// SaveRecord stores a finished session for userID and returns the new route id.
func (s *Service) SaveRecord(ctx context.Context, userID string, rec activity.Record) (string, error) {
	coords, err := rec.CoordinatesJSON()
	if err != nil {
		return "", fmt.Errorf("encode coordinates: %w", err)
	}

	id := uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO routes (id, user_id, activity_type, start_latitude, start_longitude, end_latitude, end_longitude,
			coordinates_json, distance_km, duration_seconds, avg_pace, avg_speed_kmh, max_speed_kmh,
			elevation_gain, elevation_loss, calories_burned, steps, started_at, finished_at, is_completed)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,TRUE)
		RETURNING id
	`, id, userID, rec.ActivityType, rec.StartLat, rec.StartLng, rec.EndLat, rec.EndLng,
		nullString(coords), rec.DistanceKm, rec.DurationSec, nullFloat(rec.AvgPaceMinKm), nullFloat(rec.AvgSpeedKmh), rec.MaxSpeedKmh,
		rec.ElevationGainM, rec.ElevationLossM, rec.Calories, rec.Steps, rec.StartedAt, rec.FinishedAt)
	if err := row.Scan(&id); err != nil {
		return "", fmt.Errorf("insert route: %w", err)
	}
	return id, nil
}

// List returns userID's routes, newest first.
func (s *Service) List(ctx context.Context, userID string, f ListFilter) ([]Route, error) {
	var (
		where = []string{"user_id=$1"}
		args  = []any{userID}
	)
	if f.ActivityType != "" {
		args = append(args, f.ActivityType)
		where = append(where, fmt.Sprintf("activity_type=$%d", len(args)))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		where = append(where, fmt.Sprintf("started_at >= $%d", len(args)))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		where = append(where, fmt.Sprintf("started_at <= $%d", len(args)))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT %s
		FROM routes WHERE %s
		ORDER BY started_at DESC
		LIMIT $%d OFFSET $%d
	`, routeColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	routes := []Route{}
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	return routes, rows.Err()
}

func (s *Service) Get(ctx context.Context, userID, id string) (Route, error) {
	row := s.db.QueryRow(ctx, `SELECT `+routeColumns+` FROM routes WHERE id=$1 AND user_id=$2`, id, userID)
	r, err := scanRoute(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Route{}, ErrRouteNotFound
	}
	if err != nil {
		return Route{}, err
	}
	return r, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM routes WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRouteNotFound
	}
	return nil
}

// Stats aggregates completed routes started within the last days days.
func (s *Service) Stats(ctx context.Context, userID string, days int) (Stats, error) {
	if days <= 0 {
		days = DefaultStatsDays
	}
	if days > MaxStatsDays {
		days = MaxStatsDays
	}
	since := nowFn().Add(-time.Duration(days) * 24 * time.Hour)

	stats := Stats{Days: days, ByActivity: map[string]int{}}
	row := s.db.QueryRow(ctx, `
		SELECT COUNT(id), COALESCE(SUM(distance_km),0), COALESCE(SUM(duration_seconds),0),
			COALESCE(SUM(calories_burned),0), COALESCE(MAX(distance_km),0)
		FROM routes
		WHERE user_id=$1 AND started_at >= $2 AND is_completed
	`, userID, since)
	if err := row.Scan(&stats.TotalRoutes, &stats.TotalDistanceKm, &stats.TotalDurationSec, &stats.TotalCalories, &stats.LongestKm); err != nil {
		return Stats{}, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT activity_type, COUNT(id)
		FROM routes
		WHERE user_id=$1 AND started_at >= $2 AND is_completed
		GROUP BY activity_type
	`, userID, since)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			activityType string
			count        int
		)
		if err := rows.Scan(&activityType, &count); err != nil {
			return Stats{}, err
		}
		stats.ByActivity[activityType] = count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	if stats.TotalDistanceKm > 0 && stats.TotalDurationSec > 0 {
		stats.AvgPace = round2((float64(stats.TotalDurationSec) / 60) / stats.TotalDistanceKm)
		stats.AvgSpeedKmh = round2(activity.AverageSpeedKmh(stats.TotalDistanceKm, stats.TotalDurationSec))
	}
	stats.TotalDistanceKm = round2(stats.TotalDistanceKm)
	stats.LongestKm = round2(stats.LongestKm)
	return stats, nil
}

func scanRoute(row pgx.Row) (Route, error) {
	var r Route
	err := row.Scan(&r.ID, &r.UserID, &r.ActivityType, &r.StartLat, &r.StartLng,
		&r.EndLat, &r.EndLng, &r.CoordinatesJSON,
		&r.DistanceKm, &r.DurationSec, &r.AvgPace, &r.AvgSpeedKmh,
		&r.MaxSpeedKmh, &r.ElevationGainM, &r.ElevationLossM,
		&r.Calories, &r.Steps, &r.StartedAt, &r.FinishedAt, &r.CreatedAt)
	return r, err
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullFloat(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
