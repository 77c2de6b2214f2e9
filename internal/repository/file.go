package repository

import (
	"bufio"
	"context"
	"errors"
	"fmt"

	"github.com/UnknownOlympus/kmldedup/internal/kml"
	"github.com/UnknownOlympus/kmldedup/internal/models"
)

// Load reads and parses the KML file at path.
//
// It returns an error wrapping models.ErrLoad if the file is missing, unreadable or
// not well-formed, and one wrapping models.ErrStructure if it holds no KML Document.
func (r *Repository) Load(ctx context.Context, path string) (*kml.Document, error) {
	file, err := r.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %w", models.ErrLoad, path, err)
	}
	defer file.Close()

	doc, err := kml.Parse(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	r.log.DebugContext(ctx, "KML document loaded.", "path", path, "container", doc.Container())

	return doc, nil
}

// Save serializes doc to path, creating or truncating the file. Any failure wraps
// models.ErrWrite; a failed save may leave a truncated file behind.
func (r *Repository) Save(ctx context.Context, doc *kml.Document, path string) (err error) {
	file, err := r.fs.Create(path)
	if err != nil {
		return fmt.Errorf("%w: failed to create %s: %w", models.ErrWrite, path, err)
	}
	defer func() {
		if errClose := file.Close(); errClose != nil {
			err = errors.Join(err, fmt.Errorf("%w: failed to close %s: %w", models.ErrWrite, path, errClose))
		}
	}()

	buf := bufio.NewWriter(file)
	written, err := doc.Write(buf, r.opts)
	if err != nil {
		return fmt.Errorf("%w: failed to write %s: %w", models.ErrWrite, path, err)
	}
	if err = buf.Flush(); err != nil {
		return fmt.Errorf("%w: failed to flush %s: %w", models.ErrWrite, path, err)
	}

	r.log.DebugContext(ctx, "KML document saved.", "path", path, "bytes", written)

	return nil
}
