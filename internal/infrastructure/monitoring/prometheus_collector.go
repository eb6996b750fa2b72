package monitoring

import (
	"stagecast/internal/core/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type PrometheusCollector struct {
	// Counters
	roomsActiveTotal    prometheus.Gauge
	peersConnectedTotal prometheus.Gauge
	reactionsTotal      prometheus.Counter
	signalRequestsTotal *prometheus.CounterVec

	// Room metrics
	roomPeerCount     *prometheus.GaugeVec
	roomProducerCount *prometheus.GaugeVec
	roomConsumerCount *prometheus.GaugeVec
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		roomsActiveTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "stagecast_rooms_active_total",
			Help: "Total number of live rooms",
		}),

		peersConnectedTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "stagecast_peers_connected_total",
			Help: "Total number of connected peers across all rooms",
		}),

		reactionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stagecast_reactions_total",
			Help: "Total number of audience reactions received",
		}),

		signalRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "stagecast_signal_requests_total",
			Help: "Signaling requests processed, by method and outcome",
		}, []string{"method", "outcome"}),

		roomPeerCount: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stagecast_room_peer_count",
			Help: "Number of peers in each room",
		}, []string{"room_id"}),

		roomProducerCount: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stagecast_room_producer_count",
			Help: "Number of producers in each room",
		}, []string{"room_id"}),

		roomConsumerCount: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "stagecast_room_consumer_count",
			Help: "Number of consumers in each room",
		}, []string{"room_id"}),
	}
}

func (p *PrometheusCollector) RecordReactions(n int) {
	p.reactionsTotal.Add(float64(n))
}

func (p *PrometheusCollector) RecordSignalRequest(method string, ok bool) {
	outcome := "accept"
	if !ok {
		outcome = "reject"
	}
	p.signalRequestsTotal.WithLabelValues(method, outcome).Inc()
}

// UpdateRoomStats refreshes the per-room gauges from a registry snapshot.
func (p *PrometheusCollector) UpdateRoomStats(statuses []services.Status) {
	p.roomsActiveTotal.Set(float64(len(statuses)))

	p.roomPeerCount.Reset()
	p.roomProducerCount.Reset()
	p.roomConsumerCount.Reset()

	totalPeers := 0
	for _, st := range statuses {
		roomID := string(st.RoomID)
		p.roomPeerCount.WithLabelValues(roomID).Set(float64(st.Peers))
		p.roomProducerCount.WithLabelValues(roomID).Set(float64(st.Producers))
		p.roomConsumerCount.WithLabelValues(roomID).Set(float64(st.Consumers))
		totalPeers += st.Peers
	}
	p.peersConnectedTotal.Set(float64(totalPeers))
}
