package service_test

import (
	"strings"
	"testing"

	"github.com/UnknownOlympus/kmldedup/internal/coordinates"
	"github.com/UnknownOlympus/kmldedup/internal/kml"
	"github.com/UnknownOlympus/kmldedup/internal/models"
	"github.com/UnknownOlympus/kmldedup/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2"><Document><name>Test</name>`

const footer = `</Document></kml>`

func placemark(name, coords string) string {
	return `<Placemark><name>` + name + `</name><Point><coordinates>` + coords + `</coordinates></Point></Placemark>`
}

func folder(name string, children ...string) string {
	return `<Folder><name>` + name + `</name>` + strings.Join(children, "") + `</Folder>`
}

func document(children ...string) string {
	return header + strings.Join(children, "") + footer
}

func parseDoc(t *testing.T, src string) *kml.Document {
	t.Helper()
	doc, err := kml.Parse(strings.NewReader(src))
	require.NoError(t, err)

	return doc
}

func precision(t *testing.T, places int) models.Precision {
	t.Helper()
	p, err := models.NewPrecision(places)
	require.NoError(t, err)

	return p
}

func names(doc *kml.Document) []string {
	var out []string
	for _, p := range doc.Placemarks() {
		out = append(out, p.Name())
	}

	return out
}

func TestDeduplicate(t *testing.T) {
	t.Parallel()

	t.Run("first placemark wins", func(t *testing.T) {
		t.Parallel()
		doc := parseDoc(t, document(
			placemark("first", "1,2"),
			placemark("second", "1,2"),
			placemark("other", "3,4"),
		))

		res, err := service.Deduplicate(doc, models.NoPrecision(), service.Options{})

		require.NoError(t, err)
		assert.Equal(t, []string{"first", "other"}, names(doc))
		assert.Equal(t, 3, res.Total)
		assert.Equal(t, 2, res.Kept)
		assert.Equal(t, 1, res.Dropped())
		assert.Equal(t, []service.Duplicate{{Name: "second", KeptName: "first", Key: "1,2"}}, res.Duplicates)
	})

	t.Run("only coordinates determine identity", func(t *testing.T) {
		t.Parallel()
		doc := parseDoc(t, document(
			`<Placemark><name>a</name><styleUrl>#red</styleUrl><Point><coordinates>5,5</coordinates></Point></Placemark>`,
			`<Placemark><name>b</name><description>x</description><Point><coordinates>5,5</coordinates></Point></Placemark>`,
		))

		_, err := service.Deduplicate(doc, models.NoPrecision(), service.Options{})

		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, names(doc))
	})

	t.Run("unset precision compares trimmed text exactly", func(t *testing.T) {
		t.Parallel()
		doc := parseDoc(t, document(
			placemark("a", " 1.0,2.0 "),
			placemark("b", "1.0,2.0"),
			placemark("c", "1,2"),
			placemark("d", "1.0,2.0  3,4"),
		))

		res, err := service.Deduplicate(doc, models.NoPrecision(), service.Options{})

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c", "d"}, names(doc))
		assert.Equal(t, "1.0,2.0", res.Duplicates[0].Key)
	})

	t.Run("truncated tuples collapse", func(t *testing.T) {
		t.Parallel()
		doc := parseDoc(t, document(
			placemark("line", "-122.419415,37.774929,0 -122.419300,37.775000,0"),
			placemark("same line", "-122.4194,37.7750,0 -122.4193,37.7749,0"),
		))

		res, err := service.Deduplicate(doc, precision(t, 3), service.Options{})

		require.NoError(t, err)
		assert.Equal(t, []string{"line"}, names(doc))
		assert.Equal(t, "-122.419,37.775,0 -122.419,37.775,0", res.Duplicates[0].Key)
	})

	t.Run("end to end with two decimals", func(t *testing.T) {
		t.Parallel()
		doc := parseDoc(t, document(
			placemark("origin", "1.0,2.0"),
			placemark("distinct", "7.5,8.5"),
			placemark("near origin", "1.00001,2.00001"),
		))

		res, err := service.Deduplicate(doc, precision(t, 2), service.Options{})

		require.NoError(t, err)
		assert.Equal(t, []string{"origin", "distinct"}, names(doc))
		assert.Equal(t, "1.00,2.00", res.Duplicates[0].Key)
		assert.Equal(t, "origin", res.Duplicates[0].KeptName)
	})

	t.Run("flattens folders in first-seen order", func(t *testing.T) {
		t.Parallel()
		doc := parseDoc(t, document(
			folder("outer",
				placemark("deep", "1,1"),
				folder("inner", placemark("deeper", "2,2")),
			),
			placemark("top", "3,3"),
			folder("dups", placemark("dup of deep", "1,1")),
		))

		_, err := service.Deduplicate(doc, models.NoPrecision(), service.Options{})

		require.NoError(t, err)
		assert.Equal(t, []string{"deep", "deeper", "top"}, names(doc))
		for _, p := range doc.Placemarks() {
			assert.Equal(t, "kml/Document", p.Parent(), p.Name())
		}
	})

	t.Run("preserve folders keeps survivors in place", func(t *testing.T) {
		t.Parallel()
		doc := parseDoc(t, document(
			folder("outer", placemark("deep", "1,1")),
			placemark("top", "3,3"),
			folder("dups", placemark("dup of deep", "1,1")),
		))

		res, err := service.Deduplicate(doc, models.NoPrecision(), service.Options{PreserveFolders: true})

		require.NoError(t, err)
		assert.Equal(t, 1, res.Dropped())
		placemarks := doc.Placemarks()
		require.Len(t, placemarks, 2)
		assert.Equal(t, "kml/Document/Folder", placemarks[0].Parent())
		assert.Equal(t, "kml/Document", placemarks[1].Parent())
	})

	t.Run("keys of the output are unique", func(t *testing.T) {
		t.Parallel()
		doc := parseDoc(t, document(
			placemark("a", "1.111,2.222"),
			placemark("b", "1.112,2.221"),
			placemark("c", "1.2,2.2"),
			placemark("d", "1.1,2.2"),
			placemark("e", "1.15,2.25"),
		))
		p := precision(t, 1)

		_, err := service.Deduplicate(doc, p, service.Options{})
		require.NoError(t, err)

		seen := map[string]bool{}
		for _, pm := range doc.Placemarks() {
			coords, err := pm.Coordinates()
			require.NoError(t, err)
			key, err := coordinates.Truncate(coords, p)
			require.NoError(t, err)
			assert.False(t, seen[key], "duplicate key %q", key)
			seen[key] = true
		}
		assert.Equal(t, []string{"a", "c"}, names(doc))
	})

	t.Run("bounds cover kept placemarks", func(t *testing.T) {
		t.Parallel()
		doc := parseDoc(t, document(
			placemark("a", "10,20 12,18"),
			placemark("b", "10,20 12,18"),
			placemark("c", "-5,30,100"),
		))

		res, err := service.Deduplicate(doc, models.NoPrecision(), service.Options{})

		require.NoError(t, err)
		require.True(t, res.HasBounds)
		assert.InDelta(t, -5, res.Bounds.Min.Lon(), 0)
		assert.InDelta(t, 18, res.Bounds.Min.Lat(), 0)
		assert.InDelta(t, 12, res.Bounds.Max.Lon(), 0)
		assert.InDelta(t, 30, res.Bounds.Max.Lat(), 0)
	})

	t.Run("no bounds without numeric tuples", func(t *testing.T) {
		t.Parallel()
		doc := parseDoc(t, document(placemark("a", "here")))

		res, err := service.Deduplicate(doc, models.NoPrecision(), service.Options{})

		require.NoError(t, err)
		assert.False(t, res.HasBounds)
		assert.Equal(t, 1, res.Kept)
	})

	t.Run("no placemarks", func(t *testing.T) {
		t.Parallel()
		doc := parseDoc(t, document())

		res, err := service.Deduplicate(doc, precision(t, 2), service.Options{})

		require.NoError(t, err)
		assert.Zero(t, res.Total)
		assert.Empty(t, names(doc))
	})
}

func TestDeduplicate_Errors(t *testing.T) {
	t.Parallel()

	t.Run("placemark without coordinates", func(t *testing.T) {
		t.Parallel()
		doc := parseDoc(t, document(
			placemark("ok", "1,2"),
			folder("f", `<Placemark><name>lost</name></Placemark>`),
		))

		_, err := service.Deduplicate(doc, models.NoPrecision(), service.Options{})

		require.ErrorIs(t, err, models.ErrStructure)
		assert.ErrorContains(t, err, `placemark "lost" has no coordinates element`)
		assert.Equal(t, []string{"ok", "lost"}, names(doc))
		assert.Equal(t, "kml/Document/Folder", doc.Placemarks()[1].Parent(), "document must be left untouched")
	})

	t.Run("every failure is reported", func(t *testing.T) {
		t.Parallel()
		doc := parseDoc(t, document(
			placemark("bad lon", "east,2"),
			`<Placemark><name>empty</name><Point><coordinates></coordinates></Point></Placemark>`,
			placemark("short", "1"),
		))

		_, err := service.Deduplicate(doc, precision(t, 2), service.Options{})

		require.ErrorIs(t, err, models.ErrParse)
		require.ErrorIs(t, err, models.ErrStructure)
		assert.ErrorContains(t, err, `placemark "bad lon": parse: invalid longitude "east"`)
		assert.ErrorContains(t, err, `placemark "empty" has an empty coordinates element`)
		assert.ErrorContains(t, err, `placemark "short": parse: coordinate tuple "1" has fewer than 2 fields`)
	})

	t.Run("bad numbers pass without precision", func(t *testing.T) {
		t.Parallel()
		doc := parseDoc(t, document(placemark("bad lon", "east,2")))

		_, err := service.Deduplicate(doc, models.NoPrecision(), service.Options{})

		require.NoError(t, err)
	})
}
