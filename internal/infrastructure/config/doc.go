// Package config provides 12-factor configuration for the portal backend.
//
// Configuration is loaded from environment variables with defaults.
// CLI flags in cmd/server can override the listen address.
//
// Configuration Sections:
//   - Server: HTTP listen address
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting of the API
//   - Relay: CORS relay list and outbound client limits
//   - Search: Search target and scraping contract
//   - Suggest: Suggestion language
//   - Engine: Frame URL-rewrite relay
//   - Prefs: Backend for the results-per-page preference
//
// Environment Variables:
//   - PORT, HOST
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - RELAY_URLS, RELAY_TIMEOUT, RELAY_RPS
//   - SEARCH_BASE_URL, SEARCH_CONTRACT
//   - SUGGEST_LANG
//   - ENGINE_RETRIES, ENGINE_TIMEOUT, ENGINE_PUBLIC_PATH
//   - PREFS_BACKEND, PREFS_PATH, REDIS_ADDR, REDIS_DB
package config
