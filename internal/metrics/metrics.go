// file: internal/metrics/metrics.go
// version: 2.0.0
// guid: 9f8e7d6c-5b4a-3210-9fed-cba876543210

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "book_library"

var (
	registerOnce sync.Once

	lookupTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lookups_total",
		Help:      "Total number of ISBN lookups by source and outcome",
	}, []string{"source", "outcome"})
	lookupDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "lookup_duration_seconds",
		Help:      "Histogram of per-source lookup durations in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.05, 1.6, 10), // ~50ms up to several seconds
	}, []string{"source"})
	lookupCache = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lookup_cache_total",
		Help:      "Lookup cache hits and misses",
	}, []string{"result"})

	storeOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_operations_total",
		Help:      "Total number of book store operations by op and outcome",
	}, []string{"op", "outcome"})

	booksGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "books_total",
		Help:      "Current total number of books in the library",
	})

	scanTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scan_transitions_total",
		Help:      "Scan controller state transitions by target state",
	}, []string{"state"})
	detectionsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scan_detections_dropped_total",
		Help:      "Detections dropped because the scan queue was full",
	})

	operationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "operations_total",
		Help:      "Background operations by type and lifecycle event",
	}, []string{"type", "event"})
	operationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Histogram of background operation durations in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	}, []string{"type"})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(lookupTotal, lookupDuration, lookupCache,
			storeOps, booksGauge, scanTransitions, detectionsDropped,
			operationsTotal, operationDuration)
	})
}

// Lookup helpers
func IncLookup(source, outcome string) { lookupTotal.WithLabelValues(source, outcome).Inc() }
func ObserveLookupDuration(source string, d time.Duration) {
	lookupDuration.WithLabelValues(source).Observe(d.Seconds())
}
func IncCacheHit()  { lookupCache.WithLabelValues("hit").Inc() }
func IncCacheMiss() { lookupCache.WithLabelValues("miss").Inc() }

// IncStoreOp counts a store operation; err decides the outcome label.
func IncStoreOp(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	storeOps.WithLabelValues(op, outcome).Inc()
}

// Gauges
func SetBooks(n int) { booksGauge.Set(float64(n)) }

// Scanner
func IncScanTransition(state string) { scanTransitions.WithLabelValues(state).Inc() }
func IncDetectionsDropped()          { detectionsDropped.Inc() }

// Operation lifecycle helpers
func IncOperationStarted(opType string)   { operationsTotal.WithLabelValues(opType, "started").Inc() }
func IncOperationCompleted(opType string) { operationsTotal.WithLabelValues(opType, "completed").Inc() }
func IncOperationFailed(opType string)    { operationsTotal.WithLabelValues(opType, "failed").Inc() }
func IncOperationCanceled(opType string)  { operationsTotal.WithLabelValues(opType, "canceled").Inc() }
func ObserveOperationDuration(opType string, d time.Duration) {
	operationDuration.WithLabelValues(opType).Observe(d.Seconds())
}
