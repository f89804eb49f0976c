package activity

import "time"

// ~50 m of latitude near Baku.
const (
	baseLat  = 40.4093
	baseLng  = 49.8671
	step50m  = 0.00045
	moveMps  = 1.5
	accurate = 5.0
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 14, 7, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func (c *fakeClock) fix(lat, lng, speed float64) LocationFix {
	return LocationFix{
		Timestamp: c.t,
		Lat:       lat,
		Lng:       lng,
		Accuracy:  accurate,
		Speed:     speed,
	}
}

func startedSession(clock *fakeClock, weightKg float64) *Session {
	s := NewSession(WithClock(clock.Now))
	if err := s.Start("running", weightKg); err != nil {
		panic(err)
	}
	return s
}

func tickN(s *Session, n int) {
	for i := 0; i < n; i++ {
		s.Tick()
	}
}
