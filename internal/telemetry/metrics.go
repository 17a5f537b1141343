// Package telemetry implements domain.Recorder with Prometheus metrics,
// exposed at /metrics by internal/httpapi. Grounded on the promauto idiom
// in the teacher's internal/infra/observability/observability.go
// (Namespace/Subsystem/Name/Help on every metric, registered at package
// init via promauto so there is no separate registry wiring step), with
// fresh metric names for this protocol's own probe/membership concerns.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/meshring/swim/internal/domain"
)

var probesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "swim",
	Subsystem: "detector",
	Name:      "probes_total",
	Help:      "Total probes by outcome.",
}, []string{"result"})

var membersGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "swim",
	Subsystem: "table",
	Name:      "members",
	Help:      "Current member count by status.",
}, []string{"status"})

var ackLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "swim",
	Subsystem: "detector",
	Name:      "ack_latency_seconds",
	Help:      "Latency between a direct Ping and its matching Ack.",
	Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
})

var transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "swim",
	Subsystem: "table",
	Name:      "transitions_total",
	Help:      "Total accepted membership transitions by resulting status.",
}, []string{"status"})

// Recorder implements domain.Recorder over the package's Prometheus
// collectors. It carries no state of its own beyond what the collectors
// hold, so a single zero-value Recorder can be shared across every table
// and detector actor in a process.
type Recorder struct{}

// New returns a Recorder. The underlying collectors are package-level and
// registered once via promauto at init, matching the teacher's pattern of
// top-level promauto vars rather than a constructor-scoped registry.
func New() Recorder { return Recorder{} }

func (Recorder) ObserveTransition(_ domain.Node, status domain.Status) {
	transitionsTotal.WithLabelValues(status.Kind.String()).Inc()
}

func (Recorder) SetMemberCount(kind domain.StatusKind, n int) {
	membersGauge.WithLabelValues(kind.String()).Set(float64(n))
}

func (Recorder) ObserveProbe(result string) {
	probesTotal.WithLabelValues(result).Inc()
}

func (Recorder) ObserveAckLatency(d time.Duration) {
	ackLatency.Observe(d.Seconds())
}
