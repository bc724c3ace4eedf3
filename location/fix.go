// Package location turns GPS fixes into street snapshots for the tower.
package location

import (
	"errors"
	"math"
	"time"
)

var ErrInvalidFix = errors.New("invalid coordinates")

// Fix is a single GPS position.
type Fix struct {
	Lat float64   `json:"lat"`
	Lon float64   `json:"lon"`
	At  time.Time `json:"at"`
}

func (f Fix) Validate() error {
	if math.IsNaN(f.Lat) || math.IsNaN(f.Lon) ||
		f.Lat < -90 || f.Lat > 90 || f.Lon < -180 || f.Lon > 180 {
		return ErrInvalidFix
	}
	return nil
}

// Distance returns the great circle distance between a and b in metres.
func Distance(a, b Fix) float64 {
	const earthRadius = 6371000 // meters

	lat1Rad := a.Lat * math.Pi / 180
	lat2Rad := b.Lat * math.Pi / 180
	deltaLat := (b.Lat - a.Lat) * math.Pi / 180
	deltaLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadius * c
}
