/*
Package resilience provides the circuit breaker used to sideline failing relays.

# Overview

Public CORS relays go down, rate-limit, or start returning error pages for
long stretches. Each relay gets its own breaker so a dead relay is skipped
quickly instead of costing a full request timeout on every search.

# Usage

	breaker := resilience.New("corsproxy.io", resilience.Settings{
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	done, err := breaker.Allow()
	if err != nil {
		// relay sidelined, try the next one
	}
	ok := doRequest()
	done(ok)

# States

  - Closed: attempts pass through, failures are counted
  - Open: attempts are rejected until Timeout elapses
  - Half-Open: up to MaxRequests probe attempts decide whether to close again
*/
package resilience
