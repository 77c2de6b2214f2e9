package repository

import (
	"context"
	"log/slog"

	"github.com/UnknownOlympus/kmldedup/internal/kml"
	"github.com/spf13/afero"
)

// Repository loads and saves KML documents on a filesystem.
type Repository struct {
	fs   afero.Fs
	opts kml.WriteOptions
	log  *slog.Logger
}

type Interface interface {
	Load(ctx context.Context, path string) (*kml.Document, error)
	Save(ctx context.Context, doc *kml.Document, path string) error
}

// NewRepository creates a new instance of Repository backed by the provided filesystem.
// Documents are written with kml.DefaultWriteOptions.
// It returns a pointer to the newly created Repository.
func NewRepository(fs afero.Fs, log *slog.Logger) *Repository {
	return &Repository{fs: fs, opts: kml.DefaultWriteOptions(), log: log}
}

// NewOSRepository creates a Repository on the host filesystem.
func NewOSRepository(log *slog.Logger) *Repository {
	return NewRepository(afero.NewOsFs(), log)
}

// WithWriteOptions returns a copy of the repository that serializes documents with opts.
func (r *Repository) WithWriteOptions(opts kml.WriteOptions) *Repository {
	clone := *r
	clone.opts = opts

	return &clone
}
