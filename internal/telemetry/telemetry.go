// Package telemetry exports solver and run counters as Prometheus metrics.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/reactorsim/internal/sim"
)

const namespace = "reactorsim"

// Collector is a dynamo.StepObserver that also records finished runs.
// Register it once per process; it may observe several runs in sequence.
type Collector struct {
	accepted    prometheus.Counter
	rejected    prometheus.Counter
	evaluations prometheus.Counter
	jacobians   prometheus.Counter
	stepSize    prometheus.Histogram
	runs        *prometheus.CounterVec
	runDuration *prometheus.HistogramVec
}

func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_accepted_total",
			Help:      "Accepted integrator steps.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_rejected_total",
			Help:      "Rejected integrator attempts.",
		}),
		evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rhs_evaluations_total",
			Help:      "Right-hand side evaluations of finished runs.",
		}),
		jacobians: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jacobian_evaluations_total",
			Help:      "Jacobian evaluations of finished runs.",
		}),
		stepSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_size_seconds",
			Help:      "Size of accepted steps in simulated time.",
			Buckets:   prometheus.ExponentialBuckets(1e-12, 10, 13),
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished runs by mode and terminal phase.",
		}, []string{"mode", "phase"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall clock time of finished runs.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"mode"}),
	}
	for _, col := range []prometheus.Collector{
		c.accepted, c.rejected, c.evaluations, c.jacobians, c.stepSize, c.runs, c.runDuration,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) OnAccept(_, h float64) {
	c.accepted.Inc()
	c.stepSize.Observe(h)
}

func (c *Collector) OnReject(float64, float64, error) { c.rejected.Inc() }

// ObserveRun records a finished run. A nil outcome is ignored.
func (c *Collector) ObserveRun(out *sim.Outcome) {
	if out == nil {
		return
	}
	c.evaluations.Add(float64(out.Stats.Evaluations))
	c.jacobians.Add(float64(out.Stats.Jacobians))
	c.runs.WithLabelValues(out.Mode, out.Phase.String()).Inc()
	c.runDuration.WithLabelValues(out.Mode).Observe(out.WallClock.Seconds())
}

// WriteTextfile writes everything gathered by g in the node exporter
// textfile format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
