// Package middleware holds the gin middleware shared by the portal API:
// CORS, per-client rate limiting and structured access logging.
package middleware
