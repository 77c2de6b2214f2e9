package models

import "github.com/paulmach/orb"

// Coordinates represents one KML coordinate tuple: a geographical point defined
// by its longitude and latitude, plus any trailing fields (altitude and the like)
// kept exactly as they were written.
type Coordinates struct {
	Point orb.Point // Point holds longitude at index 0 and latitude at index 1.
	Extra []string  // Extra fields after lon,lat, verbatim.
}

// Longitude of the geographical point.
func (c Coordinates) Longitude() float64 { return c.Point.Lon() }

// Latitude of the geographical point.
func (c Coordinates) Latitude() float64 { return c.Point.Lat() }
