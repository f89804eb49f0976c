package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 7, 30, 0, 0, time.UTC)
	good := LocationFix{Timestamp: now, Lat: baseLat, Lng: baseLng, Accuracy: 5, Speed: 1.5}

	tests := []struct {
		name string
		edit func(*LocationFix)
		want Verdict
	}{
		{"fresh accurate moving", func(*LocationFix) {}, VerdictAccept},
		{"exactly ten seconds old", func(f *LocationFix) { f.Timestamp = now.Add(-10 * time.Second) }, VerdictAccept},
		{"older than ten seconds", func(f *LocationFix) { f.Timestamp = now.Add(-10*time.Second - time.Millisecond) }, VerdictStale},
		{"exactly ten seconds ahead", func(f *LocationFix) { f.Timestamp = now.Add(10 * time.Second) }, VerdictAccept},
		{"ahead by more than ten seconds", func(f *LocationFix) { f.Timestamp = now.Add(10*time.Second + time.Millisecond) }, VerdictStale},
		{"an hour in the future", func(f *LocationFix) { f.Timestamp = now.Add(time.Hour) }, VerdictStale},
		{"negative accuracy", func(f *LocationFix) { f.Accuracy = -1 }, VerdictInaccurate},
		{"accuracy at limit", func(f *LocationFix) { f.Accuracy = 20 }, VerdictInaccurate},
		{"accuracy just under limit", func(f *LocationFix) { f.Accuracy = 19.9 }, VerdictAccept},
		{"slow drift", func(f *LocationFix) { f.Speed = 0.29 }, VerdictStationary},
		{"invalid speed", func(f *LocationFix) { f.Speed = -1 }, VerdictStationary},
		{"speed at threshold", func(f *LocationFix) { f.Speed = 0.3 }, VerdictAccept},
		{"stale wins over inaccurate", func(f *LocationFix) {
			f.Timestamp = now.Add(-time.Minute)
			f.Accuracy = 50
		}, VerdictStale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fix := good
			tt.edit(&fix)
			assert.Equal(t, tt.want, Classify(fix, now))
			assert.Equal(t, tt.want == VerdictAccept, Accept(fix, now))
		})
	}
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "stationary", VerdictStationary.String())
	assert.Equal(t, "unknown", Verdict(42).String())
}
