package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recording metrics
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wsrecorder_events_total",
			Help: "Total number of websocket messages observed",
		},
		[]string{"direction", "status"},
	)

	RecordBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wsrecorder_record_bytes_total",
			Help: "Total bytes of serialized records queued for output",
		},
	)

	ConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wsrecorder_connections_total",
			Help: "Total number of websocket connections registered",
		},
	)

	// Queue metrics
	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wsrecorder_queue_depth",
			Help: "Current depth of the hand-off queue",
		},
	)

	// Serialization metrics
	SerializeErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wsrecorder_serialize_errors_total",
			Help: "Total number of records dropped at serialization",
		},
	)

	// Sink metrics
	AppendErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wsrecorder_append_errors_total",
			Help: "Total number of records dropped at the sink",
		},
	)

	SinkSwapsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wsrecorder_sink_swaps_total",
			Help: "Total number of output file swap attempts",
		},
		[]string{"status"},
	)
)
