package manager

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gtrackerpro/unitconverter/internal/units"
	"github.com/gtrackerpro/unitconverter/internal/worker"
)

var (
	conversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "unitconverter",
			Name:      "conversions_total",
			Help:      "Conversions by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	conversionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "unitconverter",
			Name:      "conversion_duration_seconds",
			Help:      "Time spent computing a conversion",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"mode"},
	)
)

func init() {
	prometheus.MustRegister(conversionsTotal, conversionDuration)
}

// modeLabel keeps unknown user input out of label values.
func modeLabel(mode string) string {
	switch mode {
	case ModeLocal, ModeNode:
		return ModeLocal
	}
	if k, err := worker.ParseKind(mode); err == nil {
		return string(k)
	}
	return "unknown"
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case units.IsValidation(err):
		return "invalid"
	case worker.IsUnavailable(err):
		return "unavailable"
	case worker.IsTimeout(err):
		return "timeout"
	case worker.IsCrash(err):
		return "crash"
	case worker.IsProtocol(err):
		return "error"
	}
	return "other"
}
