// Copyright 2025 The axfor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all planStore metrics
const (
	namespace = "planstore"
	subsystem = "server"
)

// Metrics holds all Prometheus metrics for the planStore server
type Metrics struct {
	// Storage operation metrics
	StorageOperationDuration *prometheus.HistogramVec
	StorageOperationTotal    *prometheus.CounterVec
	StorageOperationErrors   *prometheus.CounterVec
	StorageRecoveries        *prometheus.CounterVec
	ShadowCopyFailures       prometheus.Counter
	QueuedOperations         prometheus.Gauge

	// HTTP metrics
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestInFlight prometheus.Gauge
	RateLimitHits       prometheus.Counter
	RejectedRequests    *prometheus.CounterVec

	// Migration metrics
	MigratedKeys *prometheus.CounterVec

	// Panic recovery metrics
	PanicsRecovered *prometheus.CounterVec
}

// New creates and registers all metrics
func New(registry *prometheus.Registry) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		StorageOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "storage",
				Name:      "operation_duration_seconds",
				Help:      "Histogram of document store operation latencies, including time spent waiting for the key",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16), // 100us .. ~3s
			},
			[]string{"operation", "status"},
		),

		StorageOperationTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "storage",
				Name:      "operation_total",
				Help:      "Total number of document store operations",
			},
			[]string{"operation"},
		),

		StorageOperationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "storage",
				Name:      "operation_errors_total",
				Help:      "Total number of failed document store operations",
			},
			[]string{"operation", "error"},
		),

		StorageRecoveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "storage",
				Name:      "recoveries_total",
				Help:      "Reads that could not use the primary file",
			},
			[]string{"source"}, // "shadow", "empty"
		),

		ShadowCopyFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "storage",
				Name:      "shadow_copy_failures_total",
				Help:      "Writes whose last-good copy could not be refreshed",
			},
		),

		QueuedOperations: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "storage",
				Name:      "queued_operations",
				Help:      "Operations currently waiting for an earlier operation on the same key",
			},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Histogram of HTTP request latencies",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "code"},
		),

		HTTPRequestInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_in_flight",
				Help:      "Current number of in-flight HTTP requests",
			},
		),

		RateLimitHits: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "rate_limit_hits_total",
				Help:      "Total number of requests rejected by the rate limiter",
			},
		),

		RejectedRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "rejected_requests_total",
				Help:      "Total number of requests rejected before reaching a handler",
			},
			[]string{"reason"}, // "limit_exceeded", "rate_limit", "too_large"
		),

		MigratedKeys: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "migration",
				Name:      "keys_total",
				Help:      "Keys processed while migrating the legacy combined file",
			},
			[]string{"result"}, // "migrated", "skipped", "failed"
		),

		PanicsRecovered: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "panics_recovered_total",
				Help:      "Total number of panics recovered",
			},
			[]string{"where"},
		),
	}
}

// RecordStorageOperation records one store operation
func (m *Metrics) RecordStorageOperation(operation string, status string, duration time.Duration) {
	m.StorageOperationDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
	m.StorageOperationTotal.WithLabelValues(operation).Inc()
}

// RecordStorageError records a failed store operation
func (m *Metrics) RecordStorageError(operation string, errorType string) {
	m.StorageOperationErrors.WithLabelValues(operation, errorType).Inc()
}

// RecordHTTPRequest records a served HTTP request
func (m *Metrics) RecordHTTPRequest(method, route string, code int, duration time.Duration) {
	m.HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(code)).Observe(duration.Seconds())
}

// RecordRateLimitHit records a request rejected by the token bucket
func (m *Metrics) RecordRateLimitHit() {
	m.RateLimitHits.Inc()
	m.RejectedRequests.WithLabelValues("rate_limit").Inc()
}

// RecordRequestRejected records a request rejected for reason
func (m *Metrics) RecordRequestRejected(reason string) {
	m.RejectedRequests.WithLabelValues(reason).Inc()
}

// RecordMigratedKey records the outcome of migrating one legacy key
func (m *Metrics) RecordMigratedKey(result string) {
	m.MigratedKeys.WithLabelValues(result).Inc()
}

// RecordPanicRecovered records a recovered panic
func (m *Metrics) RecordPanicRecovered(where string) {
	m.PanicsRecovered.WithLabelValues(where).Inc()
}
