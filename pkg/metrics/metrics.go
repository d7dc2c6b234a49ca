package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 网关指标管理器
type Metrics struct {
	// 连接指标
	connectionsActive prometheus.Gauge
	connectionsTotal  *prometheus.CounterVec
	usersOnline       prometheus.Gauge
	roomsActive       prometheus.Gauge

	// 在线状态事件指标
	presenceTransitions *prometheus.CounterVec
	presencePublishErrs prometheus.Counter

	// 事件分发指标
	framesDispatched *prometheus.CounterVec
	framesDiscarded  *prometheus.CounterVec
	frameSize        prometheus.Histogram
}

// NewMetrics 创建指标管理器
func NewMetrics() *Metrics {
	return &Metrics{
		connectionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "gateway_connections_active",
			Help: "Number of active WebSocket connections",
		}),

		connectionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_connections_total",
			Help: "Total number of WebSocket connections by result",
		}, []string{"result"}), // accepted|rejected

		usersOnline: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "gateway_users_online",
			Help: "Number of distinct users with at least one live connection",
		}),

		roomsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "gateway_rooms_active",
			Help: "Number of rooms with at least one member",
		}),

		presenceTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_presence_transitions_total",
			Help: "Presence transitions published to the message bus",
		}, []string{"status"}), // online|offline

		presencePublishErrs: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gateway_presence_publish_errors_total",
			Help: "Presence publish failures (logged and dropped)",
		}),

		framesDispatched: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_frames_dispatched_total",
			Help: "Inbound frames routed to a registered handler",
		}, []string{"event"}),

		framesDiscarded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_frames_discarded_total",
			Help: "Inbound frames discarded by reason",
		}, []string{"reason"}), // malformed|unknown_event|handler_error

		frameSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gateway_frame_size_bytes",
			Help:    "Inbound frame size in bytes",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		}),
	}
}

func (m *Metrics) ConnOpened() {
	m.connectionsActive.Inc()
	m.connectionsTotal.WithLabelValues("accepted").Inc()
}

func (m *Metrics) ConnRejected() { m.connectionsTotal.WithLabelValues("rejected").Inc() }
func (m *Metrics) ConnClosed()   { m.connectionsActive.Dec() }

func (m *Metrics) SetUsersOnline(n int) { m.usersOnline.Set(float64(n)) }
func (m *Metrics) SetRoomsActive(n int) { m.roomsActive.Set(float64(n)) }

func (m *Metrics) PresencePublished(status string) {
	m.presenceTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) PresencePublishFailed() { m.presencePublishErrs.Inc() }

func (m *Metrics) FrameDispatched(event string) { m.framesDispatched.WithLabelValues(event).Inc() }
func (m *Metrics) FrameDiscarded(reason string) { m.framesDiscarded.WithLabelValues(reason).Inc() }
func (m *Metrics) ObserveFrameSize(n int)       { m.frameSize.Observe(float64(n)) }
