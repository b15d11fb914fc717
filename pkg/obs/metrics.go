// Package obs carries the observability seams: the prometheus metric
// set the engine feeds and a leveled console logger factory. The
// engine only writes these; scraping and display live outside.
package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bastion"

// GaugeSources are pull hooks for the point-in-time gauges. A nil
// field skips that gauge. A source may return NaN, which is how store
// outages surface at scrape time.
type GaugeSources struct {
	// Queued is the number of admitted, mid-verification sessions.
	Queued func() float64

	// Verifying is the number of open verification connections.
	Verifying func() float64

	// VerifiedSize is the verified cache's estimated entry count.
	VerifiedSize func() float64

	// BlacklistSize is the blacklist's estimated entry count.
	BlacklistSize func() float64
}

// Metrics is the engine's cumulative counter set.
type Metrics struct {
	// Joins counts connections that reached login, regardless of
	// outcome.
	Joins prometheus.Counter

	// Attempts counts verification sessions started.
	Attempts prometheus.Counter

	// Succeeded counts sessions that ended verified.
	Succeeded prometheus.Counter

	// Failed counts terminal failures, labeled by error kind.
	Failed *prometheus.CounterVec

	// RxBytes and TxBytes count traffic through the engine.
	RxBytes prometheus.Counter
	TxBytes prometheus.Counter
}

// NewMetrics registers the metric set with reg and wires the given
// gauge sources.
func NewMetrics(reg prometheus.Registerer, src GaugeSources) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		Joins: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "joins_total",
			Help:      "Connections that reached the login phase.",
		}),
		Attempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_attempts_total",
			Help:      "Verification sessions started.",
		}),
		Succeeded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_succeeded_total",
			Help:      "Sessions that ended with a verified verdict.",
		}),
		Failed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_failed_total",
			Help:      "Sessions that ended with a failure verdict, by error kind.",
		}, []string{"kind"}),
		RxBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rx_bytes_total",
			Help:      "Bytes read from clients.",
		}),
		TxBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_bytes_total",
			Help:      "Bytes written to clients.",
		}),
	}

	gauge := func(name, help string, fn func() float64) {
		if fn == nil {
			return
		}
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, fn)
	}
	gauge("queued", "Sessions currently admitted and verifying.", src.Queued)
	gauge("verifying_connections", "Open verification connections.", src.Verifying)
	gauge("verified_cache_size", "Estimated verified cache entries.", src.VerifiedSize)
	gauge("blacklist_size", "Estimated blacklist entries.", src.BlacklistSize)

	return m
}
