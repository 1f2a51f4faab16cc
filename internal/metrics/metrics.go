// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "unibox_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unibox_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// OutboundMessagesTotal counts provider sends by channel and result.
	OutboundMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unibox_outbound_messages_total",
			Help: "Outbound messages handed to a provider",
		},
		[]string{"channel", "result"},
	)

	// SendDuration tracks provider send latency.
	SendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "unibox_send_duration_seconds",
			Help:    "Provider send duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"channel"},
	)

	// InboundMessagesTotal counts stored inbound messages by channel.
	InboundMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unibox_inbound_messages_total",
			Help: "Inbound messages stored",
		},
		[]string{"channel"},
	)

	// StatusCallbacksTotal counts provider status callbacks by unified status.
	StatusCallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unibox_status_callbacks_total",
			Help: "Delivery status callbacks received",
		},
		[]string{"status"},
	)

	// WebhookRequestsTotal counts webhook requests by outcome.
	WebhookRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "unibox_webhook_requests_total",
			Help: "Provider webhook requests",
		},
		[]string{"result"},
	)

	// WebSocketConnectionsActive tracks connected realtime clients.
	WebSocketConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "unibox_websocket_connections_active",
			Help: "Number of active websocket connections",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordSend records the outcome of a provider send.
func RecordSend(channel string, success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "failure"
	}
	OutboundMessagesTotal.WithLabelValues(channel, result).Inc()
	SendDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

// RecordInbound records a stored inbound message.
func RecordInbound(channel string) {
	InboundMessagesTotal.WithLabelValues(channel).Inc()
}

// RecordStatusCallback records a delivery status callback.
func RecordStatusCallback(status string) {
	StatusCallbacksTotal.WithLabelValues(status).Inc()
}

// RecordWebhook records a webhook request outcome.
func RecordWebhook(result string) {
	WebhookRequestsTotal.WithLabelValues(result).Inc()
}

// IncrementWebSocketConnections increments the active websocket count.
func IncrementWebSocketConnections() {
	WebSocketConnectionsActive.Inc()
}

// DecrementWebSocketConnections decrements the active websocket count.
func DecrementWebSocketConnections() {
	WebSocketConnectionsActive.Dec()
}
