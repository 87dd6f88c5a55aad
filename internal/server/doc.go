// Package server provides HTTP server setup and initialization for foxsearch.
//
// This package orchestrates all components:
//   - HTTP routing with Gin framework
//   - Middleware stack (recovery, request IDs, access log, metrics, CORS, rate limiting)
//   - Relay fetcher, result parser and pagination engine
//   - Suggestions, frame relay, pinned tabs and preferences
//   - WebSocket render stream
//
// Server Lifecycle:
//  1. Load configuration from environment/flags
//  2. Initialize logger (production or development)
//  3. Build the relay chain and the configured parsing contract
//  4. Open the preference backend
//  5. Setup HTTP routes and middleware
//  6. Start HTTP server
//  7. Graceful shutdown on signal
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg, nil)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
