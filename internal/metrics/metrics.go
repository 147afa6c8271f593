package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fika/fika-prep/pkg/classifier"
	"github.com/fika/fika-prep/pkg/pipeline"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fika_prep"

// Recorder collects classification metrics for a single process and writes them
// as a node_exporter textfile. It implements classifier.Observer.
type Recorder struct {
	registry *prometheus.Registry

	attemptFailures  *prometheus.CounterVec
	labelsClassified prometheus.Counter
	batchesAbandoned prometheus.Counter

	vocabulary      prometheus.Gauge
	remaining       prometheus.Gauge
	themeItems      *prometheus.GaugeVec
	lastRunDuration prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		attemptFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classify_attempt_failures_total",
			Help:      "Failed classification attempts by error kind.",
		}, []string{"kind"}),
		labelsClassified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "labels_classified_total",
			Help:      "Labels classified and appended to the checkpoint.",
		}),
		batchesAbandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_abandoned_total",
			Help:      "Batches that failed every attempt.",
		}),
		vocabulary: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vocabulary_labels",
			Help:      "Distinct labels in the input vocabulary.",
		}),
		remaining: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unclassified_labels",
			Help:      "Vocabulary labels without a checkpoint record at the end of the run.",
		}),
		themeItems: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "theme_items",
			Help:      "Labels admitted to each theme.",
		}, []string{"theme"}),
		lastRunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
	}

	r.registry.MustRegister(
		r.attemptFailures,
		r.labelsClassified,
		r.batchesAbandoned,
		r.vocabulary,
		r.remaining,
		r.themeItems,
		r.lastRunDuration,
	)
	return r
}

func (r *Recorder) AttemptFailed(kind classifier.ErrorKind) {
	r.attemptFailures.WithLabelValues(string(kind)).Inc()
}

func (r *Recorder) BatchClassified(labels int) {
	r.labelsClassified.Add(float64(labels))
}

func (r *Recorder) BatchAbandoned() {
	r.batchesAbandoned.Inc()
}

// ObserveSummary records the end-of-run gauges.
func (r *Recorder) ObserveSummary(s pipeline.Summary) {
	r.vocabulary.Set(float64(s.Vocabulary))
	r.remaining.Set(float64(s.Remaining - s.Classified))
	for _, theme := range s.Themes {
		r.themeItems.WithLabelValues(theme.Theme).Set(float64(theme.Items))
	}
	r.lastRunDuration.Set(s.Duration.Seconds())
}

// ObserveThemes sets the theme gauges from already generated artifacts.
func (r *Recorder) ObserveThemes(items map[string]int) {
	for theme, n := range items {
		r.themeItems.WithLabelValues(theme).Set(float64(n))
	}
}

// Registry exposes the underlying registry, e.g. for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes every metric to path in the Prometheus text format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
