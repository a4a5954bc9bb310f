package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"routing_key", "queue"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	PipelineStageCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stage_count",
			Help: "Pipeline stage executions by stage and outcome",
		},
		[]string{"stage", "outcome"}, // stage: log, notify, dispatch; outcome: success, failed, skipped
	)

	LogEntriesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "activity_log_entries_written_total",
			Help: "Total number of activity log entries written",
		},
	)

	NotificationsFannedOut = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_fanned_out_total",
			Help: "Total number of notification rows created",
		},
	)

	DeadLetteredCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mq_dead_lettered_count",
			Help: "Messages parked on the DLQ",
		},
		[]string{"routing_key"},
	)
)

func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func IncrementPipelineStage(stage, outcome string) {
	PipelineStageCount.WithLabelValues(stage, outcome).Inc()
}

func AddLogEntriesWritten(n int) {
	LogEntriesWritten.Add(float64(n))
}

func AddNotificationsFannedOut(n int) {
	NotificationsFannedOut.Add(float64(n))
}

func IncrementDeadLettered(routingKey string) {
	DeadLetteredCount.WithLabelValues(routingKey).Inc()
}
