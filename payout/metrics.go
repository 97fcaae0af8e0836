package payout

import "github.com/prometheus/client_golang/prometheus"

// metrics mirror challenge.metrics's shape: Prometheus counters/gauges
// promoted from the same go-ethereum metrics.NewRegisteredCounter idiom
// (see SPEC_FULL.md DOMAIN STACK).
type queueMetricsT struct {
	depth   prometheus.Gauge
	dropped prometheus.Counter
}

type batchMetricsT struct {
	built     prometheus.Counter
	buildFail prometheus.Counter
	broadcast prometheus.Counter
	failed    prometheus.Counter
	outputs   prometheus.Counter
}

var queueMetrics = newQueueMetrics()
var batchMetrics = newBatchMetrics()

func newQueueMetrics() queueMetricsT {
	m := queueMetricsT{
		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "faucetd",
			Subsystem: "payout",
			Name:      "queue_depth",
			Help:      "Number of L1 payout requests currently queued.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "faucetd",
			Subsystem: "payout",
			Name:      "queue_dropped_total",
			Help:      "Total L1 payout requests dropped because the queue was full.",
		}),
	}
	prometheus.MustRegister(m.depth, m.dropped)
	return m
}

func newBatchMetrics() batchMetricsT {
	m := batchMetricsT{
		built: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "faucetd",
			Subsystem: "payout",
			Name:      "batches_built_total",
			Help:      "Total payout batches successfully composed and signed.",
		}),
		buildFail: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "faucetd",
			Subsystem: "payout",
			Name:      "batches_build_failed_total",
			Help:      "Total payout batches that failed composition and were dropped.",
		}),
		broadcast: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "faucetd",
			Subsystem: "payout",
			Name:      "batches_broadcast_total",
			Help:      "Total payout batches successfully broadcast.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "faucetd",
			Subsystem: "payout",
			Name:      "batches_broadcast_failed_total",
			Help:      "Total payout batches that failed to broadcast.",
		}),
		outputs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "faucetd",
			Subsystem: "payout",
			Name:      "outputs_total",
			Help:      "Total number of individual payout outputs included in built batches.",
		}),
	}
	prometheus.MustRegister(m.built, m.buildFail, m.broadcast, m.failed, m.outputs)
	return m
}
