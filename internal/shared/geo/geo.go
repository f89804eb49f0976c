package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// HaversineKm returns the great-circle distance between two lat/lng pairs in kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	return geo.DistanceHaversine(orb.Point{lng1, lat1}, orb.Point{lng2, lat2}) / 1000
}
