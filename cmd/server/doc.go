// Package main is the entry point for the foxsearch portal backend.
//
// The server relays search and suggestion requests through public CORS
// relays, paginates scraped results per session, and proxies pages into
// the content frame.
//
// Architecture:
//
//	Browser → Go Backend → CORS relays → DuckDuckGo / Google suggest
//	                    → /engine frame relay → any web page
//
// The server provides:
//   - REST API for search, pagination, tabs and preferences
//   - WebSocket stream of result events
//   - Prometheus metrics on /metrics
//   - Per-client rate limiting
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//
// Usage:
//
//	./server -port 8000
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
