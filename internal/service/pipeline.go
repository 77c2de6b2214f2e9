package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/kmldedup/internal/metrics"
	"github.com/UnknownOlympus/kmldedup/internal/models"
	"github.com/UnknownOlympus/kmldedup/internal/repository"
)

// Pipeline stage names, used as log attributes and metric labels.
const (
	StageLoad        = "load"
	StageDeduplicate = "deduplicate"
	StageWrite       = "write"
)

// DedupService runs the load, deduplicate and write pipeline over KML files.
type DedupService struct {
	log     *slog.Logger         // Logger for logging service activities
	repo    repository.Interface // Interface for loading and saving documents
	metrics *metrics.Metrics     // Metrics for tracking service runs
	opts    Options              // Placement of surviving placemarks
}

// NewDedupService creates a new instance of DedupService.
// It takes a logger, a document repository, metrics for monitoring and the
// deduplication options. It returns a pointer to the newly created DedupService.
func NewDedupService(
	log *slog.Logger,
	repo repository.Interface,
	metrics *metrics.Metrics,
	opts Options,
) *DedupService {
	return &DedupService{
		log:     log,
		repo:    repo,
		metrics: metrics,
		opts:    opts,
	}
}

// Run loads input, removes duplicate placemarks and writes the result to output.
// The stages run strictly in order and the first failure aborts the run; the
// returned error keeps the models sentinel of the stage that failed.
func (ds *DedupService) Run(ctx context.Context, input, output string, precision models.Precision) (res Result, err error) {
	defer func() {
		status := "success"
		if err != nil {
			status = "failure"
		}
		ds.metrics.Runs.WithLabelValues(status).Inc()
	}()

	ds.log.InfoContext(ctx, "Deduplication started.",
		"input", input,
		"output", output,
		"precision", precision.String(),
		"preserve_folders", ds.opts.PreserveFolders,
	)

	startTime := time.Now()
	doc, err := ds.repo.Load(ctx, input)
	ds.observe(StageLoad, startTime)
	if err != nil {
		ds.log.ErrorContext(ctx, "Failed to load document", "stage", StageLoad, "input", input, "error", err)
		return Result{}, err
	}

	startTime = time.Now()
	res, err = Deduplicate(doc, precision, ds.opts)
	ds.observe(StageDeduplicate, startTime)
	if err != nil {
		ds.log.ErrorContext(ctx, "Failed to deduplicate placemarks", "stage", StageDeduplicate, "input", input, "error", err)
		return Result{}, err
	}

	for _, dup := range res.Duplicates {
		ds.log.DebugContext(ctx, "Duplicate placemark dropped", "name", dup.Name, "kept", dup.KeptName, "key", dup.Key)
	}
	ds.metrics.Placemarks.WithLabelValues("kept").Add(float64(res.Kept))
	ds.metrics.Placemarks.WithLabelValues("dropped").Add(float64(res.Dropped()))

	startTime = time.Now()
	err = ds.repo.Save(ctx, doc, output)
	ds.observe(StageWrite, startTime)
	if err != nil {
		ds.log.ErrorContext(ctx, "Failed to write document", "stage", StageWrite, "output", output, "error", err)
		return Result{}, err
	}

	attrs := []any{"total", res.Total, "kept", res.Kept, "dropped", res.Dropped()}
	if res.HasBounds {
		attrs = append(attrs,
			"min_lon", res.Bounds.Min.Lon(), "min_lat", res.Bounds.Min.Lat(),
			"max_lon", res.Bounds.Max.Lon(), "max_lat", res.Bounds.Max.Lat(),
		)
	}
	ds.log.InfoContext(ctx, "Deduplication finished.", attrs...)

	return res, nil
}

func (ds *DedupService) observe(stage string, start time.Time) {
	ds.metrics.StageSeconds.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}
