package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector records backend metrics. A nil collector is valid and
// records nothing, so callers never need to branch on monitoring being
// disabled.
type PrometheusCollector struct {
	meetingsActive     prometheus.Gauge
	attendeesJoined    prometheus.Counter
	hubConnections     prometheus.Gauge
	messagesRelayed    prometheus.Counter
	relayErrors        prometheus.Counter
	droppedFrames      prometheus.Counter
	joinDuration       prometheus.Histogram
	meetingsPerRegion  *prometheus.GaugeVec
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		meetingsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "lectern_meetings_active",
			Help: "Number of currently provisioned meetings",
		}),

		attendeesJoined: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lectern_attendees_joined_total",
			Help: "Total number of attendees provisioned",
		}),

		hubConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "lectern_hub_connections",
			Help: "Number of open messaging hub connections",
		}),

		messagesRelayed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lectern_hub_messages_relayed_total",
			Help: "Total number of messages fanned out by the hub",
		}),

		relayErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lectern_hub_relay_errors_total",
			Help: "Total number of per-connection relay failures",
		}),

		droppedFrames: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lectern_hub_dropped_frames_total",
			Help: "Total number of inbound frames dropped by the hub",
		}),

		joinDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lectern_join_duration_seconds",
			Help:    "Duration of join requests",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),

		meetingsPerRegion: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lectern_meetings_per_region",
			Help: "Number of provisioned meetings per media region",
		}, []string{"region"}),
	}
}

func (p *PrometheusCollector) RecordMeetingCreated(region string) {
	if p == nil {
		return
	}
	p.meetingsActive.Inc()
	p.meetingsPerRegion.WithLabelValues(region).Inc()
}

func (p *PrometheusCollector) RecordMeetingEnded(region string) {
	if p == nil {
		return
	}
	p.meetingsActive.Dec()
	p.meetingsPerRegion.WithLabelValues(region).Dec()
}

func (p *PrometheusCollector) RecordAttendeeJoined() {
	if p == nil {
		return
	}
	p.attendeesJoined.Inc()
}

func (p *PrometheusCollector) RecordJoinDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.joinDuration.Observe(d.Seconds())
}

func (p *PrometheusCollector) RecordHubConnected() {
	if p == nil {
		return
	}
	p.hubConnections.Inc()
}

func (p *PrometheusCollector) RecordHubDisconnected() {
	if p == nil {
		return
	}
	p.hubConnections.Dec()
}

func (p *PrometheusCollector) RecordMessagesRelayed(n int) {
	if p == nil {
		return
	}
	p.messagesRelayed.Add(float64(n))
}

func (p *PrometheusCollector) RecordRelayError() {
	if p == nil {
		return
	}
	p.relayErrors.Inc()
}

func (p *PrometheusCollector) RecordDroppedFrame() {
	if p == nil {
		return
	}
	p.droppedFrames.Inc()
}
