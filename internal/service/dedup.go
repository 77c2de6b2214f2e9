package service

import (
	"fmt"
	"strings"

	"github.com/UnknownOlympus/kmldedup/internal/coordinates"
	"github.com/UnknownOlympus/kmldedup/internal/kml"
	"github.com/UnknownOlympus/kmldedup/internal/models"
	"github.com/hashicorp/go-multierror"
	"github.com/paulmach/orb"
)

// Options tunes how survivors are placed back into the document.
type Options struct {
	// PreserveFolders keeps surviving placemarks where they were and only removes
	// duplicates. By default every survivor is re-attached directly under the
	// Document container, flattening folders.
	PreserveFolders bool
}

// Duplicate describes a placemark dropped because an earlier one had the same key.
type Duplicate struct {
	Name     string // Name of the dropped placemark.
	KeptName string // Name of the earlier placemark that was kept.
	Key      string // Key shared by both.
}

// Result summarizes one deduplication.
type Result struct {
	Total      int         // Placemarks found under Document.
	Kept       int         // Placemarks with a key seen for the first time.
	Duplicates []Duplicate // Placemarks dropped, in document order.
	// Bounds of every parseable tuple of the kept placemarks. Only meaningful
	// when HasBounds is true.
	Bounds    orb.Bound
	HasBounds bool
}

// Dropped returns the number of placemarks removed as duplicates.
func (r Result) Dropped() int {
	return len(r.Duplicates)
}

type survivor struct {
	placemark kml.Placemark
	coords    string
}

// Deduplicate keeps the first placemark for every distinct dedup key and removes
// the rest from doc. The key is the placemark's coordinates text, truncated to
// precision when it is set.
//
// Every placemark is checked before doc is touched: if any of them lacks
// coordinates (models.ErrStructure) or has an unparseable tuple (models.ErrParse),
// all such failures are returned together and doc is left unchanged.
//
// Unless opts.PreserveFolders is set, all placemarks are detached and the
// survivors are appended to the Document container in first-seen key order.
func Deduplicate(doc *kml.Document, precision models.Precision, opts Options) (Result, error) {
	placemarks := doc.Placemarks()
	keys := make([]string, len(placemarks))
	texts := make([]string, len(placemarks))

	var errs *multierror.Error
	for i, placemark := range placemarks {
		coords, err := placemark.Coordinates()
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}

		key, err := coordinates.Truncate(coords, precision)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("placemark %s: %w", placemark, err))
			continue
		}

		keys[i] = key
		texts[i] = coords
	}
	if err := errs.ErrorOrNil(); err != nil {
		return Result{}, err
	}

	res := Result{Total: len(placemarks)}
	firstByKey := make(map[string]kml.Placemark, len(placemarks))
	survivors := make([]survivor, 0, len(placemarks))
	var dropped []kml.Placemark

	for i, placemark := range placemarks {
		if first, seen := firstByKey[keys[i]]; seen {
			res.Duplicates = append(res.Duplicates, Duplicate{
				Name:     placemark.Name(),
				KeptName: first.Name(),
				Key:      keys[i],
			})
			dropped = append(dropped, placemark)
			continue
		}

		firstByKey[keys[i]] = placemark
		survivors = append(survivors, survivor{placemark: placemark, coords: texts[i]})
	}
	res.Kept = len(survivors)

	if opts.PreserveFolders {
		for _, placemark := range dropped {
			doc.Detach(placemark)
		}
	} else {
		for _, placemark := range placemarks {
			doc.Detach(placemark)
		}
		for _, s := range survivors {
			doc.Append(s.placemark)
		}
	}

	res.Bounds, res.HasBounds = bounds(survivors)

	return res, nil
}

// bounds covers every tuple of the survivors that parses; other tuples are skipped
// since unset precision never validates coordinates.
func bounds(survivors []survivor) (orb.Bound, bool) {
	var points orb.MultiPoint
	for _, s := range survivors {
		for _, tuple := range strings.Fields(s.coords) {
			c, err := coordinates.ParseTuple(tuple)
			if err != nil {
				continue
			}
			points = append(points, c.Point)
		}
	}
	if len(points) == 0 {
		return orb.Bound{}, false
	}

	return points.Bound(), true
}
