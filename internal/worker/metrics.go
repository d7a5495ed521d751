package worker

import "github.com/prometheus/client_golang/prometheus"

var (
	workerRestartsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "unitconverter",
			Subsystem: "worker",
			Name:      "restarts_total",
			Help:      "Total number of worker restarts scheduled after an exit or failed launch",
		},
		[]string{"worker"},
	)

	workerReady = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "unitconverter",
			Subsystem: "worker",
			Name:      "ready",
			Help:      "1 when the worker has announced READY, else 0",
		},
		[]string{"worker"},
	)

	workerPending = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "unitconverter",
			Subsystem: "worker",
			Name:      "pending",
			Help:      "In-flight correlated requests per worker",
		},
		[]string{"worker"},
	)

	workerResponsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "unitconverter",
			Subsystem: "worker",
			Name:      "responses_total",
			Help:      "Worker request resolutions by outcome",
		},
		[]string{"worker", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(workerRestartsTotal, workerReady, workerPending, workerResponsesTotal)
}

// outcomeLabel maps a request result to a low-cardinality label.
func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsTimeout(err):
		return "timeout"
	case IsCrash(err):
		return "crash"
	case IsProtocol(err):
		return "error"
	default:
		return "other"
	}
}
