package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Placemarks   *prometheus.CounterVec
	Runs         *prometheus.CounterVec
	StageSeconds *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Placemarks: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "kmldedup_placemarks_total",
			Help: "Total number of placemarks seen, by whether they were kept or dropped as duplicates.",
		}, []string{"status"}),
		Runs: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "kmldedup_runs_total",
			Help: "Total number of deduplication runs by outcome.",
		}, []string{"status"}),
		StageSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kmldedup_stage_duration_seconds",
			Help:    "Duration of each pipeline stage.",
			Buckets: prometheus.DefBuckets,
		}, []string{"stage"}),
	}
}

// WriteTextfile writes everything gathered from gth to path in the text
// exposition format, for node_exporter's textfile collector.
func WriteTextfile(path string, gth prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, gth); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}

	return nil
}
