// Package metrics provides Prometheus metrics for the chat pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	ChatTurnsTotal      *prometheus.CounterVec
	ChatTurnDuration    prometheus.Histogram
	FunctionCallsTotal  *prometheus.CounterVec
	DispatchesTotal     *prometheus.CounterVec
	InquiriesCreated    prometheus.Counter
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates all metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ChatTurnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bloomcart_chat_turns_total",
				Help: "Total number of chat turns by outcome",
			},
			[]string{"outcome"},
		),
		ChatTurnDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bloomcart_chat_turn_duration_seconds",
				Help:    "Duration of chat turns in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		FunctionCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bloomcart_function_calls_total",
				Help: "Total number of model function calls honoured, by function name",
			},
			[]string{"function"},
		),
		DispatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bloomcart_dispatches_total",
				Help: "Total number of notification dispatches by channel and result",
			},
			[]string{"channel", "result"},
		),
		InquiriesCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bloomcart_inquiries_created_total",
				Help: "Total number of inquiries created",
			},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bloomcart_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bloomcart_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
	if reg != nil {
		reg.MustRegister(
			m.ChatTurnsTotal,
			m.ChatTurnDuration,
			m.FunctionCallsTotal,
			m.DispatchesTotal,
			m.InquiriesCreated,
			m.HTTPRequestsTotal,
			m.HTTPRequestDuration,
		)
	}
	return m
}

// RecordTurn records a finished chat turn.
func (m *Metrics) RecordTurn(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ChatTurnsTotal.WithLabelValues(outcome).Inc()
	m.ChatTurnDuration.Observe(d.Seconds())
}

// RecordFunctionCall records an honoured function call.
func (m *Metrics) RecordFunctionCall(name string) {
	if m == nil {
		return
	}
	m.FunctionCallsTotal.WithLabelValues(name).Inc()
}

// RecordDispatch records a dispatch attempt on channel.
func (m *Metrics) RecordDispatch(channel string, success bool) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.DispatchesTotal.WithLabelValues(channel, result).Inc()
}

// RecordInquiryCreated increments the inquiry counter.
func (m *Metrics) RecordInquiryCreated() {
	if m == nil {
		return
	}
	m.InquiriesCreated.Inc()
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method).Observe(d.Seconds())
}
