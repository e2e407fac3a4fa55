package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Channel Metrics
var (
	// ChannelViewers tracks attached viewers per channel
	ChannelViewers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "asciitv_channel_viewers",
			Help: "Number of viewers currently attached to a channel",
		},
		[]string{"channel"},
	)

	// UnitsPublished counts lines published by a channel's broadcaster
	UnitsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asciitv_units_published_total",
			Help: "Total content units published per channel",
		},
		[]string{"channel"},
	)

	// BroadcasterFailures counts broadcasters that stopped on a source error
	BroadcasterFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asciitv_broadcaster_failures_total",
			Help: "Broadcaster loops terminated by an unreadable content source",
		},
		[]string{"channel"},
	)
)

// Viewer Metrics
var (
	// SessionsStarted counts viewer sessions by transport (tcp/websocket)
	SessionsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asciitv_sessions_started_total",
			Help: "Total viewer sessions started by transport",
		},
		[]string{"transport"},
	)

	// BytesSent counts bytes written to viewers per channel
	BytesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "asciitv_bytes_sent_total",
			Help: "Total bytes written to viewers per channel",
		},
		[]string{"channel"},
	)

	// HandshakesRejected counts connections rejected during channel selection
	HandshakesRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "asciitv_handshakes_rejected_total",
			Help: "Connections rejected for an invalid channel selection",
		},
	)
)
