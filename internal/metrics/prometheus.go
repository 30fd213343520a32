package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Upstream call labels.
const (
	CallIdentity = "identity"
	CallExchange = "token_exchange"
	CallPublish  = "publish"
)

// Metrics holds the indexer's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	PublishRequests       *prometheus.CounterVec
	CredentialTransitions *prometheus.CounterVec
	ReconcileWriteFailure prometheus.Counter
	UpstreamDuration      *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
// Collectors already registered (e.g. by a previous call in tests) are reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		PublishRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "indexer_publish_requests_total",
			Help: "Indexing requests by terminal outcome.",
		}, []string{"outcome"}),
		CredentialTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "indexer_credential_transitions_total",
			Help: "Credential status changes written by the reconciler.",
		}, []string{"from", "to"}),
		ReconcileWriteFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indexer_reconcile_write_failures_total",
			Help: "Credential status writes that failed.",
		}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "indexer_upstream_duration_seconds",
			Help:    "Latency of outbound calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"call"}),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	m.PublishRequests, err = register(reg, m.PublishRequests)
	if err != nil {
		return nil, err
	}
	m.CredentialTransitions, err = register(reg, m.CredentialTransitions)
	if err != nil {
		return nil, err
	}
	m.ReconcileWriteFailure, err = register(reg, m.ReconcileWriteFailure)
	if err != nil {
		return nil, err
	}
	m.UpstreamDuration, err = register(reg, m.UpstreamDuration)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// ObservePublish counts a finished indexing request.
func (m *Metrics) ObservePublish(outcome string) {
	if m == nil {
		return
	}
	m.PublishRequests.WithLabelValues(outcome).Inc()
}

// ObserveTransition counts a credential status change.
func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.CredentialTransitions.WithLabelValues(from, to).Inc()
}

// ObserveWriteFailure counts a failed reconciliation write.
func (m *Metrics) ObserveWriteFailure() {
	if m == nil {
		return
	}
	m.ReconcileWriteFailure.Inc()
}

// ObserveUpstream records the latency of an outbound call started at start.
func (m *Metrics) ObserveUpstream(call string, start time.Time) {
	if m == nil {
		return
	}
	m.UpstreamDuration.WithLabelValues(call).Observe(time.Since(start).Seconds())
}
