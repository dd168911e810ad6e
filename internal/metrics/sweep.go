package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/GoSim-25-26J-441/lca-sweep/internal/sweep"
)

const namespace = "lcasweep"

// SweepMetrics exports run and setup outcomes of the sweep runner
type SweepMetrics struct {
	runs          *prometheus.CounterVec
	setupFailures prometheus.Counter
	runDuration   prometheus.Histogram
}

// NewSweepMetrics creates the collectors and registers them on reg
func NewSweepMetrics(reg prometheus.Registerer) (*SweepMetrics, error) {
	m := &SweepMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Optimiser runs by outcome.",
		}, []string{"outcome"}),
		setupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "setup_failures_total",
			Help:      "Config generation pre-steps that failed.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of one optimiser run including collection.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}

	for _, c := range []prometheus.Collector{m.runs, m.setupFailures, m.runDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RunFinished implements sweep.Observer
func (m *SweepMetrics) RunFinished(status sweep.RunStatus, d time.Duration) {
	m.runs.WithLabelValues(string(status)).Inc()
	m.runDuration.Observe(d.Seconds())
}

// SetupFailed implements sweep.Observer
func (m *SweepMetrics) SetupFailed() {
	m.setupFailures.Inc()
}
