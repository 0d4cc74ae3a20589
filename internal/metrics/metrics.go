// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StoreFlushesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fdeworld_store_flushes_total",
		Help: "Database file flushes, by outcome.",
	}, []string{"outcome"})

	StoreFlushSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fdeworld_store_flush_skipped_total",
		Help: "Lazy writes whose flush was deferred by the debounce window.",
	})

	StoreFlushSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fdeworld_store_flush_seconds",
		Help:    "Time spent serialising the database to disk.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
	})

	StoreFileBytes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fdeworld_store_file_bytes",
		Help: "Size of the database file after the last flush.",
	})

	StoreQuerySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fdeworld_store_statement_seconds",
		Help:    "Statement latency against the in-memory database.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"kind"})

	StoreImportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fdeworld_store_imports_total",
		Help: "Scraper database imports, by outcome.",
	}, []string{"outcome"})

	SearchCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fdeworld_search_cache_total",
		Help: "Job search cache lookups, by result.",
	}, []string{"result"})

	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fdeworld_ws_clients",
		Help: "Connected websocket clients.",
	})
)
