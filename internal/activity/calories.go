package activity

import "math"

// CaloriesPerStep is the energy attributed to a single step.
const CaloriesPerStep = 0.04

type metBand struct {
	minKmh float64
	met    float64
}

// Bands are ordered by their inclusive lower bound; each band ends where the
// next one starts.
var metBands = []metBand{
	{minKmh: 10.0, met: 9.8},
	{minKmh: 8.0, met: 8.3},
	{minKmh: 6.5, met: 5.0},
	{minKmh: 5.0, met: 4.3},
	{minKmh: 3.0, met: 3.5},
}

const restingMET = 2.0

// MET returns the metabolic equivalent for an average speed in km/h.
func MET(avgSpeedKmh float64) float64 {
	for _, b := range metBands {
		if avgSpeedKmh >= b.minKmh {
			return b.met
		}
	}
	return restingMET
}

// AverageSpeedKmh is distance over moving time, or 0 with no time elapsed.
func AverageSpeedKmh(distanceKm float64, durationSec int64) float64 {
	if durationSec <= 0 {
		return 0
	}
	return distanceKm / (float64(durationSec) / 3600)
}

// CalorieInput carries everything the estimator needs.
type CalorieInput struct {
	DistanceKm     float64
	DurationSec    int64
	WeightKg       float64
	Steps          int
	StepsAvailable bool
}

// MetCalories is the MET based estimate.
func MetCalories(in CalorieInput) int {
	met := MET(AverageSpeedKmh(in.DistanceKm, in.DurationSec))
	return int(math.Round(met * in.WeightKg * float64(in.DurationSec) / 3600))
}

// StepCalories is the pedometer based estimate, 0 without step data.
func StepCalories(in CalorieInput) int {
	if !in.StepsAvailable {
		return 0
	}
	return int(math.Round(float64(in.Steps) * CaloriesPerStep))
}

// EstimateCalories reports the larger of the MET and step estimates; the two
// are never blended.
func EstimateCalories(in CalorieInput) int {
	return max(MetCalories(in), StepCalories(in))
}
