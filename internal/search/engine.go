package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/foxsearch/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/foxsearch/internal/parser"
	"github.com/GriffinCanCode/foxsearch/internal/shared/id"
	"github.com/GriffinCanCode/foxsearch/internal/shared/types"
)

// Fetcher retrieves a URL as text; ok=false means no data
type Fetcher interface {
	FetchText(ctx context.Context, target string) (string, bool)
}

// Renderer receives result events
type Renderer interface {
	OnResultsReady(records []types.Record, isFirstPage bool)
	OnNoResults(query string)
}

// PageSizer supplies the results-per-page preference
type PageSizer interface {
	ResultsPerPage(ctx context.Context) int
}

// Engine runs the pagination state machine for one session
type Engine struct {
	fetcher  Fetcher
	parser   parser.Parser
	base     *url.URL
	renderer Renderer
	sizer    PageSizer
	logger   *zap.Logger
	metrics  *monitoring.Metrics

	mu         sync.Mutex
	state      State
	session    session
	generation uint64
}

// Option configures an Engine
type Option func(*Engine)

// WithRenderer sets the result event sink
func WithRenderer(r Renderer) Option {
	return func(e *Engine) { e.renderer = r }
}

// WithPageSizer sets the results-per-page source
func WithPageSizer(s PageSizer) Option {
	return func(e *Engine) { e.sizer = s }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics sets the metrics collector
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(e *Engine) { e.metrics = metrics }
}

// New creates an engine fetching result pages under baseURL
func New(fetcher Fetcher, p parser.Parser, baseURL string, opts ...Option) (*Engine, error) {
	if baseURL == "" {
		baseURL = parser.DefaultBaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("invalid search base url %q", baseURL)
	}

	e := &Engine{
		fetcher: fetcher,
		parser:  p,
		base:    base,
		logger:  zap.NewNop(),
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Submit starts or continues a query. A reset, or a query different from
// the active one, clears the session first.
func (e *Engine) Submit(ctx context.Context, query string, reset bool) (Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Result{}, ErrEmptyQuery
	}
	perPage := e.pageSize(ctx)

	e.mu.Lock()
	if e.state == StateFetching {
		e.mu.Unlock()
		return e.dropped(), nil
	}
	if reset || e.state == StateIdle || e.session.query != query {
		e.generation++
		e.session = newSession(query, perPage)
	}
	tag := e.begin()
	e.mu.Unlock()

	return e.run(ctx, tag)
}

// Advance fetches the next page of the active query
func (e *Engine) Advance(ctx context.Context) (Result, error) {
	e.mu.Lock()
	switch e.state {
	case StateIdle:
		e.mu.Unlock()
		return Result{}, ErrNoQuery
	case StateFetching:
		e.mu.Unlock()
		return e.dropped(), nil
	}
	tag := e.begin()
	e.mu.Unlock()

	return e.run(ctx, tag)
}

// Reset clears the session and returns to Idle. In-flight fetches become stale.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.generation++
	e.session = session{}
	e.state = StateIdle
	e.logger.Debug("session reset", zap.Uint64("generation", e.generation))
}

// State returns the current lifecycle state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Snapshot copies the session for readers
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Snapshot{
		State:      e.state,
		Query:      e.session.query,
		Cursor:     e.session.cursor,
		PerPage:    e.session.perPage,
		SeenLinks:  len(e.session.seen),
		Pages:      append([]types.Page{}, e.session.pages...),
		Generation: e.generation,
	}
}

// begin marks the engine fetching; caller holds mu
func (e *Engine) begin() fetchTag {
	e.state = StateFetching
	return fetchTag{
		id:         id.NewFetchID(),
		generation: e.generation,
		query:      e.session.query,
		cursor:     e.session.cursor,
		perPage:    e.session.perPage,
	}
}

// pageSize reads the results-per-page preference; it is fixed per session
// so offsets stay aligned with earlier pages
func (e *Engine) pageSize(ctx context.Context) int {
	if e.sizer == nil {
		return DefaultPerPage
	}
	return clampPerPage(e.sizer.ResultsPerPage(ctx))
}

func (e *Engine) run(ctx context.Context, tag fetchTag) (Result, error) {
	perPage := tag.perPage
	target := TargetURL(e.base, tag.query, tag.cursor*perPage)

	logger := e.logger.With(
		zap.String("fetch_id", tag.id.String()),
		zap.String("query", tag.query),
		zap.Int("cursor", tag.cursor),
	)
	logger.Debug("fetching page", zap.String("target", target), zap.Int("per_page", perPage))

	var raw []types.Record
	if body, ok := e.fetcher.FetchText(ctx, target); ok {
		raw = e.parser.Parse(body, perPage)
	}

	e.mu.Lock()
	if !e.current(tag) {
		e.mu.Unlock()
		logger.Info("discarding stale response")
		e.metrics.RecordSearchFetch(string(OutcomeStale), 0)
		return Result{Outcome: OutcomeStale, FetchID: tag.id}, nil
	}

	if err := ctx.Err(); err != nil {
		e.state = StateReady
		e.mu.Unlock()
		logger.Warn("fetch abandoned", zap.Error(err))
		return Result{}, err
	}

	fresh := e.session.admit(raw)
	e.state = StateReady
	if len(fresh) == 0 {
		e.mu.Unlock()

		outcome := OutcomeNoNewResults
		if tag.cursor == 0 && len(raw) == 0 {
			outcome = OutcomeNoResults
		}
		logger.Info("no records appended", zap.String("outcome", string(outcome)), zap.Int("raw", len(raw)))
		e.metrics.RecordSearchFetch(string(outcome), 0)
		if outcome == OutcomeNoResults && e.renderer != nil {
			e.renderer.OnNoResults(tag.query)
		}
		return Result{Outcome: outcome, FetchID: tag.id}, nil
	}

	page := types.Page{Index: tag.cursor, Records: fresh}
	e.session.pages = append(e.session.pages, page)
	e.session.cursor++
	e.mu.Unlock()

	logger.Info("page appended", zap.Int("records", len(fresh)), zap.Int("duplicates", len(raw)-len(fresh)))
	e.metrics.RecordSearchFetch(string(OutcomePage), len(fresh))
	if e.renderer != nil {
		e.renderer.OnResultsReady(fresh, page.Index == 0)
	}
	return Result{Outcome: OutcomePage, FetchID: tag.id, Page: &page}, nil
}

// current reports whether tag still matches the session; caller holds mu
func (e *Engine) current(tag fetchTag) bool {
	return tag.generation == e.generation &&
		tag.query == e.session.query &&
		tag.cursor == e.session.cursor
}

func (e *Engine) dropped() Result {
	e.logger.Debug("trigger dropped while fetching")
	e.metrics.RecordSearchFetch(string(OutcomeDropped), 0)
	return Result{Outcome: OutcomeDropped}
}
