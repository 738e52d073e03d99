package metrics

import "github.com/prometheus/client_golang/prometheus"

const metricPrefix = "slimmemeter_"

const (
	FrameOK               = "ok"
	FrameChecksumMismatch = "checksum_mismatch"
	FrameTooLong          = "too_long"

	ResultSuccess = "success"
	ResultError   = "error"

	WindowFinalized = "finalized"
	WindowEmpty     = "empty"
)

var (
	frames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "frames_total",
			Help: "Decoded frames by result",
		},
		[]string{"result"},
	)
	telegrams = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "telegrams_total",
			Help: "Parsed telegrams by result",
		},
		[]string{"result"},
	)
	windows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "windows_total",
			Help: "Closed aggregation windows by result",
		},
		[]string{"result"},
	)
	ringEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: metricPrefix + "ring_evictions_total",
			Help: "Undelivered samples dropped because the ring buffer was full",
		},
	)
	ringPending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: metricPrefix + "ring_pending",
			Help: "Samples waiting for delivery",
		},
	)
	sinkDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "sink_deliveries_total",
			Help: "Sample deliveries to the sink by result",
		},
		[]string{"result"},
	)
	sinkConsecutiveFailures = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: metricPrefix + "sink_consecutive_failures",
			Help: "Current run of failed sink deliveries",
		},
	)
)

// MustRegister adds all collectors to reg.
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		frames,
		telegrams,
		windows,
		ringEvictions,
		ringPending,
		sinkDeliveries,
		sinkConsecutiveFailures,
	)
}

func ObserveFrame(result string) {
	frames.WithLabelValues(result).Inc()
}

func ObserveTelegram(result string) {
	telegrams.WithLabelValues(result).Inc()
}

func ObserveWindow(result string) {
	windows.WithLabelValues(result).Inc()
}

func ObserveRing(pending int, evicted bool) {
	ringPending.Set(float64(pending))
	if evicted {
		ringEvictions.Inc()
	}
}

func ObserveDelivery(result string, consecutiveFailures int) {
	sinkDeliveries.WithLabelValues(result).Inc()
	sinkConsecutiveFailures.Set(float64(consecutiveFailures))
}
