// internal/sms/metrics.go

package sms

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sendTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sms_send_total",
			Help: "Total number of SMS send attempts",
		},
		[]string{"provider", "outcome"},
	)

	sendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sms_send_duration_seconds",
			Help:    "Time spent delivering a single SMS",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)
)

func recordSend(provider Provider, result SendResult, duration time.Duration) {
	outcome := "success"
	if !result.Success {
		outcome = string(result.Failure)
	}
	sendTotal.WithLabelValues(string(provider), outcome).Inc()
	sendDuration.WithLabelValues(string(provider)).Observe(duration.Seconds())
}
