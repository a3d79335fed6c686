package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Connection metrics
var (
	// ConnectedClients tracks currently registered connections.
	ConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatrelay_connected_clients",
			Help: "Number of currently registered WebSocket connections",
		},
	)

	// ConnectionsTotal counts connect and disconnect events by kind.
	ConnectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrelay_connection_events_total",
			Help: "Total connection lifecycle events by kind (connect/disconnect)",
		},
		[]string{"kind"},
	)
)

// Message metrics
var (
	// MessagesReceived counts inbound chat messages accepted for fan-out.
	MessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chatrelay_messages_received_total",
			Help: "Total inbound chat messages accepted for fan-out",
		},
	)

	// MessagesDropped counts inbound messages that were not relayed, by reason.
	MessagesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrelay_messages_dropped_total",
			Help: "Total inbound messages dropped by reason",
		},
		[]string{"reason"},
	)

	// Deliveries counts per-recipient deliveries by status (ok/failed).
	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrelay_deliveries_total",
			Help: "Total per-recipient deliveries by status",
		},
		[]string{"status"},
	)

	// FanOutSize tracks how many recipients each message reached.
	FanOutSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chatrelay_fanout_recipients",
			Help:    "Number of recipients per fanned-out message",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)
)

// Relay metrics
var (
	// RelayMessages counts cross-instance relay traffic by direction (published/received) and status.
	RelayMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatrelay_relay_messages_total",
			Help: "Total cross-instance relay messages by direction and status",
		},
		[]string{"direction", "status"},
	)
)
