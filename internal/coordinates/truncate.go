// Package coordinates normalizes KML coordinate strings so that they can be
// compared as deduplication keys.
package coordinates

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/kmldedup/internal/models"
	"github.com/paulmach/orb"
)

const minTupleFields = 2

// Truncate returns the normalized form of a KML coordinates string.
//
// With an unset precision the input is returned unchanged. Otherwise every
// whitespace-separated tuple has its longitude and latitude rewritten in
// fixed-point notation with exactly the requested number of decimals; any
// further fields are kept verbatim and tuples are re-joined with a single space.
//
// Rounding is strconv's 'f' formatting: the exact binary value is rounded to
// the nearest decimal, ties to even.
func Truncate(coords string, precision models.Precision) (string, error) {
	places, ok := precision.Places()
	if !ok {
		return coords, nil
	}

	tuples := strings.Fields(coords)
	normalized := make([]string, 0, len(tuples))

	for _, tuple := range tuples {
		parsed, err := ParseTuple(tuple)
		if err != nil {
			return "", err
		}

		fields := make([]string, 0, minTupleFields+len(parsed.Extra))
		fields = append(fields,
			strconv.FormatFloat(parsed.Longitude(), 'f', places, 64),
			strconv.FormatFloat(parsed.Latitude(), 'f', places, 64),
		)
		fields = append(fields, parsed.Extra...)
		normalized = append(normalized, strings.Join(fields, ","))
	}

	return strings.Join(normalized, " "), nil
}

// ParseTuple parses a single "lon,lat[,rest...]" tuple.
func ParseTuple(tuple string) (models.Coordinates, error) {
	fields := strings.Split(tuple, ",")
	if len(fields) < minTupleFields {
		return models.Coordinates{}, fmt.Errorf("%w: coordinate tuple %q has fewer than %d fields",
			models.ErrParse, tuple, minTupleFields)
	}

	lon, err := parseFinite(fields[0])
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("%w: invalid longitude %q in tuple %q", models.ErrParse, fields[0], tuple)
	}

	lat, err := parseFinite(fields[1])
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("%w: invalid latitude %q in tuple %q", models.ErrParse, fields[1], tuple)
	}

	return models.Coordinates{
		Point: orb.Point{lon, lat},
		Extra: fields[minTupleFields:],
	}, nil
}

var errNotFinite = errors.New("not a finite number")

// parseFinite is strconv.ParseFloat without the "inf" and "nan" spellings.
func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, errNotFinite
	}

	return v, nil
}
