package activity

import "time"

const (
	// MaxFixAge is how far a fix timestamp may sit from now, in either
	// direction, before the fix is treated as cached or bogus.
	MaxFixAge = 10 * time.Second
	// MaxAccuracyM is the first horizontal accuracy (meters) considered too poor.
	MaxAccuracyM = 20.0
	// MinMovingSpeedMps is the speed below which the athlete is treated as standing still.
	MinMovingSpeedMps = 0.3
)

// Verdict is the outcome of classifying a fix.
type Verdict int

const (
	VerdictAccept Verdict = iota
	VerdictStale
	VerdictInaccurate
	// VerdictStationary fixes move the anchor but never add distance.
	VerdictStationary
)

func (v Verdict) String() string {
	switch v {
	case VerdictAccept:
		return "accept"
	case VerdictStale:
		return "stale"
	case VerdictInaccurate:
		return "inaccurate"
	case VerdictStationary:
		return "stationary"
	default:
		return "unknown"
	}
}

// Classify decides how a fix should influence accumulation. It is a pure
// function of the fix and the current time.
func Classify(fix LocationFix, now time.Time) Verdict {
	age := now.Sub(fix.Timestamp)
	if age > MaxFixAge || age < -MaxFixAge {
		return VerdictStale
	}
	if fix.Accuracy < 0 || fix.Accuracy >= MaxAccuracyM {
		return VerdictInaccurate
	}
	if fix.Speed < MinMovingSpeedMps {
		return VerdictStationary
	}
	return VerdictAccept
}

// Accept reports whether fix may contribute distance.
func Accept(fix LocationFix, now time.Time) bool {
	return Classify(fix, now) == VerdictAccept
}
