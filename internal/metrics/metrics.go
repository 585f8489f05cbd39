// Package metrics exports Prometheus counters for remote storage and image
// CDN calls.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "remotefiles"

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	remoteOps   *prometheus.CounterVec
	remoteBytes *prometheus.CounterVec
	cdnRequests *prometheus.CounterVec
}

// New registers the collectors on reg (the default registerer when nil).
// Collectors already registered by an earlier call are reused.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		remoteOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_operations_total",
			Help:      "Remote storage writes and deletes by backend and outcome.",
		}, []string{"backend", "op", "result"}),
		remoteBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_written_bytes_total",
			Help:      "Bytes successfully written to remote storage.",
		}, []string{"backend"}),
		cdnRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_cdn_requests_total",
			Help:      "Image CDN API calls by operation and outcome.",
		}, []string{"op", "result"}),
	}

	var err error
	if m.remoteOps, err = register(reg, m.remoteOps); err != nil {
		return nil, err
	}
	if m.remoteBytes, err = register(reg, m.remoteBytes); err != nil {
		return nil, err
	}
	if m.cdnRequests, err = register(reg, m.cdnRequests); err != nil {
		return nil, err
	}
	return m, nil
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
			return existing, nil
		}
	}
	return nil, fmt.Errorf("register remotefiles metrics: %w", err)
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

// ObserveWrite records one remote write of size bytes.
func (m *Metrics) ObserveWrite(backend string, size int, ok bool) {
	if m == nil {
		return
	}
	m.remoteOps.WithLabelValues(backend, "write", result(ok)).Inc()
	if ok {
		m.remoteBytes.WithLabelValues(backend).Add(float64(size))
	}
}

// ObserveDelete records one remote delete.
func (m *Metrics) ObserveDelete(backend string, ok bool) {
	if m == nil {
		return
	}
	m.remoteOps.WithLabelValues(backend, "delete", result(ok)).Inc()
}

// ObserveCDN records one image CDN call; op is "upload", "delete" or "get".
func (m *Metrics) ObserveCDN(op string, ok bool) {
	if m == nil {
		return
	}
	m.cdnRequests.WithLabelValues(op, result(ok)).Inc()
}
