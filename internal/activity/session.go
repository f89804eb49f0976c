package activity

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultWeightKg is used when the athlete's weight is unknown.
	DefaultWeightKg = 70.0
	// DefaultActivityType is used when a session is started without one.
	DefaultActivityType = "running"
)

// ErrInvalidTransition is returned when a lifecycle call does not apply to
// the session's current status.
var ErrInvalidTransition = errors.New("invalid session transition")

// Session is the state of one tracked activity. It is not safe for
// concurrent use; Runner serializes access to it.
type Session struct {
	now           func() time.Time
	defaultWeight float64

	status       Status
	activityType string
	weightKg     float64
	acc          Accumulator
	durationSec  int64
	calories     int

	steps          int
	stepBaseline   int
	stepsAvailable bool

	startedAt  time.Time
	finishedAt time.Time
}

type Option func(*Session)

// WithClock overrides the time source used for staleness checks and
// start/finish timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDefaultWeight sets the fallback weight used when Start receives none.
func WithDefaultWeight(kg float64) Option {
	return func(s *Session) {
		if kg > 0 {
			s.defaultWeight = kg
		}
	}
}

func NewSession(opts ...Option) *Session {
	s := &Session{
		now:           time.Now,
		defaultWeight: DefaultWeightKg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Status() Status {
	return s.status
}

// Start begins a fresh activity. Any state left from a previous run is
// discarded. A non-positive weight falls back to the default.
func (s *Session) Start(activityType string, weightKg float64) error {
	if s.status != StatusIdle && s.status != StatusStopped {
		return fmt.Errorf("start from %s: %w", s.status, ErrInvalidTransition)
	}
	if weightKg <= 0 {
		weightKg = s.defaultWeight
	}
	activityType = strings.TrimSpace(activityType)
	if activityType == "" {
		activityType = DefaultActivityType
	}

	s.acc.Reset()
	s.activityType = activityType
	s.weightKg = weightKg
	s.durationSec = 0
	s.calories = 0
	s.steps = 0
	s.stepBaseline = 0
	s.stepsAvailable = false
	s.startedAt = s.now()
	s.finishedAt = time.Time{}
	s.status = StatusActive
	return nil
}

func (s *Session) Pause() error {
	if s.status != StatusActive {
		return fmt.Errorf("pause from %s: %w", s.status, ErrInvalidTransition)
	}
	s.stepBaseline = s.steps
	s.status = StatusPaused
	return nil
}

func (s *Session) Resume() error {
	if s.status != StatusPaused {
		return fmt.Errorf("resume from %s: %w", s.status, ErrInvalidTransition)
	}
	s.status = StatusActive
	return nil
}

// Stop freezes the session and returns its final record. keep is false when
// the session is too short to count as an activity.
func (s *Session) Stop() (rec Record, keep bool, err error) {
	if s.status != StatusActive && s.status != StatusPaused {
		return Record{}, false, fmt.Errorf("stop from %s: %w", s.status, ErrInvalidTransition)
	}
	s.recalculate()
	s.finishedAt = s.now()
	s.status = StatusStopped

	rec = s.record()
	return rec, rec.DurationSec > MinRecordDurationSec, nil
}

// Tick adds one second of moving time. It reports whether the tick counted.
func (s *Session) Tick() bool {
	if s.status != StatusActive {
		return false
	}
	s.durationSec++
	return true
}

// HandleFix filters fix and folds it into the totals.
func (s *Session) HandleFix(fix LocationFix) Outcome {
	if s.status != StatusActive {
		return OutcomeIgnored
	}

	switch Classify(fix, s.now()) {
	case VerdictStale:
		return OutcomeStale
	case VerdictInaccurate:
		return OutcomeInaccurate
	case VerdictStationary:
		s.acc.Hold(fix)
		return OutcomeStationary
	}

	out := s.acc.Add(fix)
	if out == OutcomeAdded {
		s.recalculate()
	}
	return out
}

// UpdateSteps records the step counter's running total for the current
// active stretch. The counter restarts from zero after each resume; counts
// from earlier stretches are kept in the baseline.
func (s *Session) UpdateSteps(total int) bool {
	if s.status != StatusActive || total < 0 {
		return false
	}
	steps := s.stepBaseline + total
	if steps < s.steps {
		return false
	}
	s.steps = steps
	s.stepsAvailable = true
	s.recalculate()
	return true
}

func (s *Session) Snapshot() Snapshot {
	points := make([]TrackPoint, len(s.acc.Points))
	copy(points, s.acc.Points)
	return Snapshot{
		Status:         s.status,
		ActivityType:   s.activityType,
		WeightKg:       s.weightKg,
		DistanceKm:     s.acc.DistanceKm,
		DurationSec:    s.durationSec,
		SpeedKmh:       s.acc.SpeedKmh,
		MaxSpeedKmh:    s.acc.MaxSpeedKmh,
		PaceMinPerKm:   s.acc.PaceMinPerKm(),
		Calories:       s.calories,
		Steps:          s.steps,
		StepsAvailable: s.stepsAvailable,
		Points:         points,
		StartedAt:      s.startedAt,
		FinishedAt:     s.finishedAt,
	}
}

func (s *Session) recalculate() {
	s.calories = EstimateCalories(CalorieInput{
		DistanceKm:     s.acc.DistanceKm,
		DurationSec:    s.durationSec,
		WeightKg:       s.weightKg,
		Steps:          s.steps,
		StepsAvailable: s.stepsAvailable,
	})
}
