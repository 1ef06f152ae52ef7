// Package metrics records the results of a filtering run in Prometheus
// text format, for collection by the node_exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/infodancer/mzfilter"
)

// Recorder holds the metrics of a single run on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	messages    *prometheus.CounterVec
	filed       *prometheus.CounterVec
	warnings    prometheus.Counter
	lastRun     prometheus.Gauge
	runDuration prometheus.Gauge
	dryRun      prometheus.Gauge
}

// New creates a Recorder. Every outcome label is pre-registered at zero so
// the textfile always carries the full series.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	r := &Recorder{
		registry: reg,
		messages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mzfilter_messages_total",
				Help: "Messages processed in the last run, by outcome",
			},
			[]string{"outcome"},
		),
		filed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mzfilter_filed_total",
				Help: "Messages moved or selected for moving in the last run, by destination folder",
			},
			[]string{"folder"},
		),
		warnings: factory.NewCounter(prometheus.CounterOpts{
			Name: "mzfilter_rule_warnings_total",
			Help: "Rule evaluation warnings in the last run",
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mzfilter_last_run_timestamp_seconds",
			Help: "Unix time the last run started",
		}),
		runDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mzfilter_last_run_duration_seconds",
			Help: "Wall time of the last run",
		}),
		dryRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "mzfilter_last_run_dry_run",
			Help: "1 if the last run was a dry run",
		}),
	}

	for _, k := range []mzfilter.OutcomeKind{mzfilter.NoMatch, mzfilter.Moved, mzfilter.WouldMove, mzfilter.Failed} {
		r.messages.WithLabelValues(k.String())
	}
	return r
}

// Observe records a finished run.
func (r *Recorder) Observe(outcomes []mzfilter.Outcome, summary mzfilter.Summary, started time.Time, took time.Duration, dryRun bool) {
	for _, k := range []mzfilter.OutcomeKind{mzfilter.NoMatch, mzfilter.Moved, mzfilter.WouldMove, mzfilter.Failed} {
		r.messages.WithLabelValues(k.String()).Add(float64(summary.Count(k)))
	}
	for _, o := range outcomes {
		if o.Kind == mzfilter.Moved || o.Kind == mzfilter.WouldMove {
			r.filed.WithLabelValues(o.Folder).Inc()
		}
	}
	r.warnings.Add(float64(summary.Warnings))
	r.lastRun.Set(float64(started.Unix()))
	r.runDuration.Set(took.Seconds())
	if dryRun {
		r.dryRun.Set(1)
	} else {
		r.dryRun.Set(0)
	}
}

// WriteTextfile writes the metrics to path. The file is replaced
// atomically so a concurrent scrape never sees a partial write.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

// Gatherer exposes the underlying registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}
