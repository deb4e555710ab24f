package client

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/0xmhha/bitquery-go/internal/constants"
)

// Request outcomes recorded by Metrics.RequestsTotal
const (
	OutcomeSuccess      = "success"
	OutcomeGraphQLError = "graphql_error"
	OutcomeHTTPError    = "http_error"
	OutcomeNetworkError = "network_error"
	OutcomeDecodeError  = "decode_error"
)

// Metrics holds Prometheus metrics for the client. A nil *Metrics records
// nothing.
type Metrics struct {
	// Counters
	RequestsTotal *prometheus.CounterVec
	AttemptsTotal *prometheus.CounterVec
	RetriesTotal  prometheus.Counter
	AuthTotal     *prometheus.CounterVec

	// Histograms
	RequestDuration prometheus.Histogram
}

// NewMetrics creates client metrics and registers them with reg. A nil reg
// registers with the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: constants.MetricsSubsystem,
			Name:      "requests_total",
			Help:      "Total number of GraphQL queries by outcome",
		}, []string{"outcome"}),
		AttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: constants.MetricsSubsystem,
			Name:      "attempts_total",
			Help:      "Total number of HTTP attempts by status code",
		}, []string{"status"}),
		RetriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: constants.MetricsSubsystem,
			Name:      "retries_total",
			Help:      "Total number of retried attempts",
		}),
		AuthTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: constants.MetricsSubsystem,
			Name:      "auth_total",
			Help:      "Total number of OAuth2 token requests by result",
		}, []string{"result"}),
		RequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: constants.MetricsSubsystem,
			Name:      "request_duration_seconds",
			Help:      "Time spent in Send, retries included",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) recordOutcome(outcome string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(outcome).Inc()
}

// recordAttempt counts one HTTP attempt; status 0 means no response
func (m *Metrics) recordAttempt(status int) {
	if m == nil {
		return
	}
	label := "error"
	if status != 0 {
		label = strconv.Itoa(status)
	}
	m.AttemptsTotal.WithLabelValues(label).Inc()
}

func (m *Metrics) recordRetry() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

func (m *Metrics) recordAuth(ok bool) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.AuthTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) observeDuration(start time.Time) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(time.Since(start).Seconds())
}
