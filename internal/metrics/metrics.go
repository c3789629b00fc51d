// Package metrics defines the Prometheus collectors of the relay.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Dispositions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "relay_dispositions_total", Help: "Inbound messages by country and disposition"},
		[]string{"country", "disposition"},
	)
	MailSends = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "relay_mail_send_total", Help: "Notification mail send outcomes"},
		[]string{"provider", "result"},
	)
	MailLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "relay_mail_send_latency_seconds", Help: "Notification mail send latency"},
		[]string{"provider"},
	)
	SweepFlushed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "relay_sweep_flushed_total", Help: "Deferred messages flushed by the sweeper"},
		[]string{"country", "result"},
	)
	DeferredBacklog = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "relay_deferred_backlog", Help: "Deferred messages waiting for their window, per country"},
		[]string{"country"},
	)
	AutoReplies = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "relay_auto_replies_total", Help: "Out-of-hours auto replies"},
		[]string{"country", "result"},
	)
	EventErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "relay_event_errors_total", Help: "Inbound events dropped by error code"},
		[]string{"code"},
	)
)

// Register adds all relay collectors to reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(Dispositions, MailSends, MailLatency, SweepFlushed, DeferredBacklog, AutoReplies, EventErrors)
}

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// ResultLabel maps an error to a result label.
func ResultLabel(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
