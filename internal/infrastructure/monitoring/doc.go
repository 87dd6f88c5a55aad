/*
Package monitoring provides Prometheus metrics for the portal backend.

# Overview

Metrics live on a private registry so several servers (or tests) can coexist
in one process. Every recording method is safe on a nil *Metrics, so
components can be built without monitoring.

# Metrics

  - foxsearch_http_requests_total, foxsearch_http_request_duration_seconds
  - foxsearch_relay_attempts_total{relay,outcome}
  - foxsearch_search_fetches_total{outcome}
  - foxsearch_records_appended_total
  - foxsearch_suggest_requests_total{outcome}
  - foxsearch_engine_relay_requests_total{status}
  - foxsearch_pinned_tabs, foxsearch_ws_connections

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
