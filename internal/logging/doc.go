// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components receive a named *zap.Logger via Logger.For so every line
// carries the component ("relay", "search", "tabs", ...).
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.For("relay").Info("relay failed", zap.String("relay", base))
package logging
