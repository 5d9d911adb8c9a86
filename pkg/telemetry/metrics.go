package telemetry

import (
	"strconv"

	"lintang/greenwave/pkg/engine/phase"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "greenwave"

// prometheus metrics
type Metrics struct {
	HTTPDuration       *prometheus.HistogramVec
	DurationSummary    prometheus.Summary
	ResponseStatusCode *prometheus.CounterVec
	TotalRequests      *prometheus.CounterVec

	notifications       *prometheus.CounterVec
	notificationDropped prometheus.Counter
	proximityEvents     prometheus.Counter
	phaseStarts         *prometheus.CounterVec
	phaseDuration       prometheus.Histogram
	geodataFetches      *prometheus.CounterVec
	routeClusters       prometheus.Gauge
	routeMatched        prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "The duration of request",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5}, // 0.001 = 1ms
		}, []string{"method", "path"}),
		DurationSummary: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace:  namespace,
			Name:       "request_duration_summary_seconds",
			Help:       "The duration of request",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}),
		ResponseStatusCode: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_status_code",
			Help:      "The status code of http response",
		}, []string{"status", "method", "path"}),
		TotalRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "total_requests",
			Help:      "The total number of requests",
		}, []string{"path", "method", "status"}),

		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Proximity notification deliveries by sink and result",
		}, []string{"sink", "result"}),
		notificationDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_dropped_total",
			Help:      "Proximity events dropped because the delivery queue was full",
		}),
		proximityEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proximity_events_total",
			Help:      "Approach events emitted by the proximity tracker",
		}),
		phaseStarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_starts_total",
			Help:      "Green phases started, by phase and emergency override",
		}, []string{"phase", "emergency"}),
		phaseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_green_seconds",
			Help:      "Computed green duration of started phases",
			Buckets:   []float64{20, 30, 45, 60, 75, 90, 105, 120},
		}),
		geodataFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geodata_fetches_total",
			Help:      "Traffic signal source attempts by source and result",
		}, []string{"source", "result"}),
		routeClusters: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "route_clusters",
			Help:      "Junction clusters found around the active route",
		}),
		routeMatched: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "route_matched_clusters",
			Help:      "Junction clusters matched onto the active route",
		}),
	}
	reg.MustRegister(m.HTTPDuration, m.DurationSummary, m.ResponseStatusCode, m.TotalRequests,
		m.notifications, m.notificationDropped, m.proximityEvents, m.phaseStarts, m.phaseDuration,
		m.geodataFetches, m.routeClusters, m.routeMatched)
	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) ObserveNotification(sink string, err error) {
	m.notifications.WithLabelValues(sink, result(err)).Inc()
}

func (m *Metrics) NotificationDropped() {
	m.notificationDropped.Inc()
}

func (m *Metrics) ProximityEvent() {
	m.proximityEvents.Inc()
}

func (m *Metrics) ObserveGeodata(source string, err error) {
	m.geodataFetches.WithLabelValues(source, result(err)).Inc()
}

// ObservePhaseTransitions counts only green starts; yellow windows carry no duration.
func (m *Metrics) ObservePhaseTransitions(trs []phase.Transition) {
	for _, tr := range trs {
		if tr.Kind != phase.TransitionGreen {
			continue
		}
		m.phaseStarts.WithLabelValues(tr.To, strconv.FormatBool(tr.Emergency)).Inc()
		m.phaseDuration.Observe(float64(tr.DurationSeconds))
	}
}

func (m *Metrics) SetRoute(clusters, matched int) {
	m.routeClusters.Set(float64(clusters))
	m.routeMatched.Set(float64(matched))
}
