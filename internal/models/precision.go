package models

import "fmt"

// Precision is an optional number of decimal places used to round coordinates
// before comparing them. The zero value means "unset": coordinates are compared
// exactly as written. Zero decimal places is a valid, distinct setting.
type Precision struct {
	places int
	set    bool
}

// NoPrecision returns an unset Precision.
func NoPrecision() Precision {
	return Precision{}
}

// NewPrecision returns a Precision rounding to the given number of decimal places.
// Negative values are rejected with ErrParse.
func NewPrecision(places int) (Precision, error) {
	if places < 0 {
		return Precision{}, fmt.Errorf("%w: decimal places must be non-negative, got %d", ErrParse, places)
	}

	return Precision{places: places, set: true}, nil
}

// Places returns the number of decimal places and whether the precision is set.
func (p Precision) Places() (int, bool) {
	return p.places, p.set
}

// String implements fmt.Stringer for logging.
func (p Precision) String() string {
	if !p.set {
		return "unset"
	}

	return fmt.Sprintf("%d", p.places)
}
