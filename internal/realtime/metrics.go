package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "smarttrack_ws_connections",
		Help: "Open websocket connections on this process.",
	})
	eventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smarttrack_realtime_events_total",
		Help: "Realtime events published, by event name.",
	}, []string{"event"})
	publishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smarttrack_realtime_publish_failures_total",
		Help: "Room publishes that failed on the backplane.",
	})
	framesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smarttrack_ws_frames_dropped_total",
		Help: "Frames dropped because a connection's send buffer was full.",
	})
)
