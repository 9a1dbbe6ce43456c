package kafka

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Publish outcomes recorded in the result label.
const (
	resultOK    = "ok"
	resultError = "error"
)

var (
	publishedMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_producer_messages_total",
			Help: "Kafka messages written by topic and result (ok or error).",
		},
		[]string{"topic", "result"},
	)

	publishLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_producer_publish_duration_seconds",
			Help:    "Latency of Kafka writes by topic.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"topic"},
	)
)

func observePublish(topic string, took time.Duration, err error) {
	publishLatency.WithLabelValues(topic).Observe(took.Seconds())
	result := resultOK
	if err != nil {
		result = resultError
	}
	publishedMessages.WithLabelValues(topic, result).Inc()
}
