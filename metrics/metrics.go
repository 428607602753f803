// Package metrics is an in-process Prometheus registry (SPEC_FULL §4.9):
// the core's explicit non-goal of never speaking to the network rules
// out an HTTP /metrics listener, so counters are rendered on demand into
// a metrics_snapshot inspect report body instead of being scraped.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Registry wraps a prometheus.Registry and the handful of counters/
// histograms the core emits, mirroring boulder's metrics.Scope wrapping
// a registerer without ever binding a listener.
type Registry struct {
	reg *prometheus.Registry

	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	RejectsTotal       *prometheus.CounterVec
	ActiveGrants       prometheus.Gauge
	ActiveAttestations prometheus.Gauge
}

func New() *Registry {
	reg := prometheus.NewRegistry()
	m := &Registry{
		reg: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lcore_requests_total",
			Help: "Count of accepted advance requests, by action and outcome.",
		}, []string{"action", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lcore_request_duration_seconds",
			Help:    "Handler latency by action.",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),
		RejectsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lcore_rejects_total",
			Help: "Count of rejected requests, by error kind.",
		}, []string{"kind"}),
		ActiveGrants: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lcore_active_grants",
			Help: "Current count of active access grants.",
		}),
		ActiveAttestations: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lcore_active_attestations",
			Help: "Current count of active attestations.",
		}),
	}
	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.RejectsTotal, m.ActiveGrants, m.ActiveAttestations)
	return m
}

// Snapshot renders every registered metric family in Prometheus text
// exposition format, for the metrics_snapshot inspect response. No
// listener is ever started; this is the sole way the core's metrics
// become observable.
func (m *Registry) Snapshot() (string, error) {
	families, err := m.reg.Gather()
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	enc := expfmt.NewEncoder(&sb, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}
