// Package relay fetches arbitrary URLs through public CORS relays.
//
// Relays are tried strictly in their configured order, one request at a
// time. The first relay answering 2xx with an acceptable body wins; when all
// of them fail the caller gets ok=false and treats it as "no data". Every
// relay is requested at least once per call; a relay with an open breaker is
// only moved to the back of the line.
package relay

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/foxsearch/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/foxsearch/internal/infrastructure/resilience"
)

// Getter issues a single uncached GET
type Getter interface {
	GetText(ctx context.Context, url string) (status int, body string, err error)
}

// Status reports a relay's breaker state
type Status struct {
	Base  string `json:"base"`
	State string `json:"state"`
}

// Fetcher fetches URLs through an ordered relay list
type Fetcher struct {
	client   Getter
	relays   []string
	breakers []*resilience.Breaker
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(f *Fetcher) { f.logger = logger }
}

// WithMetrics sets the metrics collector
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(f *Fetcher) { f.metrics = metrics }
}

// WithBreakerSettings replaces the per-relay breaker settings
func WithBreakerSettings(settings resilience.Settings) Option {
	return func(f *Fetcher) {
		for i, base := range f.relays {
			f.breakers[i] = resilience.New(relayName(base), settings)
		}
	}
}

// New creates a fetcher over relays, tried in the given order
func New(client Getter, relays []string, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   client,
		relays:   append([]string(nil), relays...),
		breakers: make([]*resilience.Breaker, len(relays)),
		logger:   zap.NewNop(),
	}
	for i, base := range f.relays {
		f.breakers[i] = resilience.New(relayName(base), resilience.Settings{})
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchText returns the first non-empty 2xx body
func (f *Fetcher) FetchText(ctx context.Context, target string) (string, bool) {
	return f.FetchAccepted(ctx, target, nonEmpty)
}

// FetchAccepted returns the first 2xx body that accept approves. Relays
// whose breaker is open are skipped on the first pass; if nothing else
// answered they are still requested, in order, before giving up.
func (f *Fetcher) FetchAccepted(ctx context.Context, target string, accept func(body string) bool) (string, bool) {
	encoded := percentEncode(target)

	var skipped []int
	for i, base := range f.relays {
		if ctx.Err() != nil {
			return "", false
		}

		name := relayName(base)
		done, err := f.breakers[i].Allow()
		if err != nil {
			f.metrics.RecordRelayAttempt(name, "open")
			f.logger.Debug("relay deferred", zap.String("relay", name), zap.Error(err))
			skipped = append(skipped, i)
			continue
		}

		outcome, body := f.attempt(ctx, base, encoded, accept)
		done(outcome == "ok")
		if outcome == "ok" {
			return body, true
		}
	}

	for _, i := range skipped {
		if ctx.Err() != nil {
			return "", false
		}

		outcome, body := f.attempt(ctx, f.relays[i], encoded, accept)
		if outcome == "ok" {
			f.breakers[i].Reset()
			return body, true
		}
	}

	f.logger.Warn("all relays failed", zap.String("target", target))
	return "", false
}

func (f *Fetcher) attempt(ctx context.Context, base, encoded string, accept func(string) bool) (string, string) {
	name := relayName(base)
	status, body, err := f.client.GetText(ctx, base+encoded)
	outcome := classify(status, body, err, accept)
	f.metrics.RecordRelayAttempt(name, outcome)

	if outcome != "ok" {
		f.logger.Warn("relay failed",
			zap.String("relay", name),
			zap.String("outcome", outcome),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	return outcome, body
}

// Relays returns the try order
func (f *Fetcher) Relays() []string {
	return append([]string(nil), f.relays...)
}

// Statuses reports every relay's breaker state in try order
func (f *Fetcher) Statuses() []Status {
	out := make([]Status, len(f.relays))
	for i, base := range f.relays {
		out[i] = Status{Base: base, State: f.breakers[i].State().String()}
	}
	return out
}

func classify(status int, body string, err error, accept func(string) bool) string {
	switch {
	case err != nil:
		return "error"
	case status < 200 || status >= 300:
		return "status"
	case body == "":
		return "empty"
	case !accept(body):
		return "rejected"
	default:
		return "ok"
	}
}

func nonEmpty(body string) bool {
	return strings.TrimSpace(body) != ""
}

// percentEncode escapes like encodeURIComponent-style relays expect (%20, not +)
func percentEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func relayName(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return base
	}
	return u.Host
}
