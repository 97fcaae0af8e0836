package challenge

import "github.com/prometheus/client_golang/prometheus"

// metrics are the counters promoted from the teacher's metrics surface
// (go-ethereum's metrics.NewRegisteredCounter call sites in miner/worker.go)
// to Prometheus client metrics, since that is the concrete metrics client
// this module wires (see SPEC_FULL.md DOMAIN STACK).
type metrics struct {
	issued   *prometheus.CounterVec
	verified *prometheus.CounterVec
}

var challengeMetrics = newMetrics()

func newMetrics() *metrics {
	m := &metrics{
		issued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "faucetd",
			Subsystem: "challenge",
			Name:      "issued_total",
			Help:      "Proof-of-work challenges issued, by chain and whether it was a fresh issuance or an idempotent reissue.",
		}, []string{"chain", "outcome"}),
		verified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "faucetd",
			Subsystem: "challenge",
			Name:      "verified_total",
			Help:      "Proof-of-work verification attempts, by chain and outcome.",
		}, []string{"chain", "outcome"}),
	}
	prometheus.MustRegister(m.issued, m.verified)
	return m
}
