package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/foxsearch/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/foxsearch/internal/parser"
	"github.com/GriffinCanCode/foxsearch/internal/relay"
	"github.com/GriffinCanCode/foxsearch/internal/shared/types"
)

// page renders a results document with one anchor per link
func page(links ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, link := range links {
		fmt.Fprintf(&b, `<div class="result"><a class="result__a" href="//duckduckgo.com/l/?uddg=%s">%s</a><div class="result__snippet">about %s</div></div>`,
			url.QueryEscape(link), link, link)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func links(prefix string, from, to int) []string {
	out := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, fmt.Sprintf("https://%s%d.example/", prefix, i))
	}
	return out
}

// scriptedFetcher serves bodies in call order and records targets
type scriptedFetcher struct {
	mu      sync.Mutex
	bodies  []string
	targets []string
}

func (f *scriptedFetcher) FetchText(ctx context.Context, target string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets = append(f.targets, target)
	if len(f.bodies) == 0 {
		return "", false
	}
	body := f.bodies[0]
	f.bodies = f.bodies[1:]
	return body, true
}

func (f *scriptedFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.targets)
}

// blockingFetcher holds every fetch until its call is answered
type blockingFetcher struct {
	started chan *pendingFetch
}

type pendingFetch struct {
	target string
	reply  chan string
}

func newBlockingFetcher() *blockingFetcher {
	return &blockingFetcher{started: make(chan *pendingFetch, 4)}
}

func (f *blockingFetcher) FetchText(ctx context.Context, target string) (string, bool) {
	call := &pendingFetch{target: target, reply: make(chan string)}
	f.started <- call
	body := <-call.reply
	return body, body != ""
}

type recordingRenderer struct {
	mu        sync.Mutex
	ready     [][]types.Record
	firsts    []bool
	noResults []string
}

func (r *recordingRenderer) OnResultsReady(records []types.Record, isFirstPage bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ready = append(r.ready, records)
	r.firsts = append(r.firsts, isFirstPage)
}

func (r *recordingRenderer) OnNoResults(query string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.noResults = append(r.noResults, query)
}

type fixedSize int

func (s fixedSize) ResultsPerPage(context.Context) int { return int(s) }

// mutableSize lets a test change the preference mid-session
type mutableSize struct {
	mu sync.Mutex
	n  int
}

func (s *mutableSize) ResultsPerPage(context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

func (s *mutableSize) set(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n = n
}

// switchableRelays answers every relay request with the current body, or
// fails while body is empty
type switchableRelays struct {
	mu    sync.Mutex
	body  string
	calls int
}

func (g *switchableRelays) GetText(ctx context.Context, u string) (int, string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.body == "" {
		return 0, "", fmt.Errorf("relay unreachable")
	}
	return 200, g.body, nil
}

func (g *switchableRelays) serve(body string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.body = body
	g.calls = 0
}

func newEngine(t *testing.T, f Fetcher, opts ...Option) *Engine {
	t.Helper()
	p, err := parser.ForContract(parser.ContractHTML, parser.DefaultBaseURL)
	require.NoError(t, err)
	e, err := New(f, p, parser.DefaultBaseURL, opts...)
	require.NoError(t, err)
	return e
}

func TestSubmitFirstPage(t *testing.T) {
	fetcher := &scriptedFetcher{bodies: []string{page(links("cat", 0, 8)...)}}
	renderer := &recordingRenderer{}
	e := newEngine(t, fetcher, WithRenderer(renderer), WithMetrics(monitoring.NewMetrics()))

	res, err := e.Submit(context.Background(), "cats", true)

	require.NoError(t, err)
	assert.Equal(t, OutcomePage, res.Outcome)
	require.NotNil(t, res.Page)
	assert.Len(t, res.Page.Records, 8)

	snap := e.Snapshot()
	assert.Equal(t, StateReady, snap.State)
	require.Len(t, snap.Pages, 1)
	assert.Len(t, snap.Pages[0].Records, 8)
	assert.Equal(t, 1, snap.Cursor)
	assert.Equal(t, 8, snap.SeenLinks)

	assert.Equal(t, "https://duckduckgo.com/html/?q=cats&s=0", fetcher.targets[0])
	require.Len(t, renderer.ready, 1)
	assert.True(t, renderer.firsts[0])
}

func TestAdvanceFiltersDuplicates(t *testing.T) {
	second := append(links("cat", 5, 8), links("dog", 0, 5)...)
	fetcher := &scriptedFetcher{bodies: []string{
		page(links("cat", 0, 8)...),
		page(second...),
	}}
	renderer := &recordingRenderer{}
	e := newEngine(t, fetcher, WithRenderer(renderer))

	_, err := e.Submit(context.Background(), "cats", true)
	require.NoError(t, err)
	res, err := e.Advance(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomePage, res.Outcome)
	assert.Len(t, res.Page.Records, 5)
	assert.Equal(t, 1, res.Page.Index)

	snap := e.Snapshot()
	assert.Equal(t, 13, snap.SeenLinks)
	assert.Equal(t, 2, snap.Cursor)
	assert.Equal(t, "https://duckduckgo.com/html/?q=cats&s=8", fetcher.targets[1])
	assert.False(t, renderer.firsts[1])
}

func TestAdvanceAllDuplicates(t *testing.T) {
	fetcher := &scriptedFetcher{bodies: []string{
		page(links("cat", 0, 8)...),
		page(links("cat", 0, 8)...),
	}}
	renderer := &recordingRenderer{}
	e := newEngine(t, fetcher, WithRenderer(renderer))

	_, err := e.Submit(context.Background(), "cats", true)
	require.NoError(t, err)
	res, err := e.Advance(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeNoNewResults, res.Outcome)
	assert.Nil(t, res.Page)
	snap := e.Snapshot()
	assert.Len(t, snap.Pages, 1)
	assert.Equal(t, 1, snap.Cursor)
	assert.Equal(t, StateReady, snap.State)
	assert.Empty(t, renderer.noResults)
}

func TestSubmitNoResults(t *testing.T) {
	fetcher := &scriptedFetcher{}
	renderer := &recordingRenderer{}
	e := newEngine(t, fetcher, WithRenderer(renderer))

	res, err := e.Submit(context.Background(), "zzqxj", true)

	require.NoError(t, err)
	assert.Equal(t, OutcomeNoResults, res.Outcome)
	assert.Equal(t, []string{"zzqxj"}, renderer.noResults)
	assert.Equal(t, 0, e.Snapshot().Cursor)
	assert.Equal(t, StateReady, e.State())

	// retry stays at the same offset
	fetcher.bodies = []string{page(links("z", 0, 2)...)}
	res, err = e.Advance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomePage, res.Outcome)
	assert.Equal(t, 0, res.Page.Index)
	assert.Equal(t, "https://duckduckgo.com/html/?q=zzqxj&s=0", fetcher.targets[1])
}

func TestSubmitEmptyQuery(t *testing.T) {
	fetcher := &scriptedFetcher{bodies: []string{page(links("cat", 0, 3)...)}}
	e := newEngine(t, fetcher)
	_, err := e.Submit(context.Background(), "cats", true)
	require.NoError(t, err)
	before := e.Snapshot()

	_, err = e.Submit(context.Background(), "   ", true)

	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Equal(t, before, e.Snapshot())
	assert.Equal(t, 1, fetcher.calls())
}

func TestAdvanceWithoutQuery(t *testing.T) {
	e := newEngine(t, &scriptedFetcher{})

	_, err := e.Advance(context.Background())

	assert.ErrorIs(t, err, ErrNoQuery)
	assert.Equal(t, StateIdle, e.State())
}

func TestGuardDropsConcurrentTriggers(t *testing.T) {
	fetcher := newBlockingFetcher()
	e := newEngine(t, fetcher)

	done := make(chan Result, 1)
	go func() {
		res, _ := e.Submit(context.Background(), "cats", true)
		done <- res
	}()
	call := <-fetcher.started
	require.Equal(t, StateFetching, e.State())
	before := e.Snapshot()

	res, err := e.Advance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeDropped, res.Outcome)

	res, err = e.Submit(context.Background(), "dogs", true)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDropped, res.Outcome)

	assert.Equal(t, before, e.Snapshot())
	assert.Len(t, fetcher.started, 0, "dropped triggers must not fetch")

	call.reply <- page(links("cat", 0, 4)...)
	assert.Equal(t, OutcomePage, (<-done).Outcome)
	assert.Equal(t, "cats", e.Snapshot().Query)
}

func TestResetDiscardsInFlightResponse(t *testing.T) {
	fetcher := newBlockingFetcher()
	renderer := &recordingRenderer{}
	e := newEngine(t, fetcher, WithRenderer(renderer))

	done := make(chan Result, 1)
	go func() {
		res, _ := e.Submit(context.Background(), "cats", true)
		done <- res
	}()
	call := <-fetcher.started

	e.Reset()
	assert.Equal(t, StateIdle, e.State())

	call.reply <- page(links("cat", 0, 8)...)
	res := <-done

	assert.Equal(t, OutcomeStale, res.Outcome)
	snap := e.Snapshot()
	assert.Equal(t, StateIdle, snap.State)
	assert.Empty(t, snap.Pages)
	assert.Zero(t, snap.SeenLinks)
	assert.Empty(t, renderer.ready)
}

func TestStaleResponseDoesNotClobberNewSession(t *testing.T) {
	fetcher := newBlockingFetcher()
	e := newEngine(t, fetcher)

	oldDone := make(chan Result, 1)
	go func() {
		res, _ := e.Submit(context.Background(), "cats", true)
		oldDone <- res
	}()
	oldCall := <-fetcher.started
	e.Reset()

	newDone := make(chan Result, 1)
	go func() {
		res, _ := e.Submit(context.Background(), "dogs", true)
		newDone <- res
	}()
	newCall := <-fetcher.started
	assert.Contains(t, newCall.target, "q=dogs")

	oldCall.reply <- page(links("cat", 0, 8)...)
	assert.Equal(t, OutcomeStale, (<-oldDone).Outcome)
	assert.Equal(t, StateFetching, e.State())

	newCall.reply <- page(links("dog", 0, 3)...)
	assert.Equal(t, OutcomePage, (<-newDone).Outcome)

	snap := e.Snapshot()
	assert.Equal(t, "dogs", snap.Query)
	require.Len(t, snap.Pages, 1)
	assert.Len(t, snap.Pages[0].Records, 3)
}

func TestSubmitDifferentQueryWithoutResetStartsOver(t *testing.T) {
	fetcher := &scriptedFetcher{bodies: []string{
		page(links("cat", 0, 8)...),
		page(links("cat", 0, 4)...),
	}}
	e := newEngine(t, fetcher)

	_, err := e.Submit(context.Background(), "cats", true)
	require.NoError(t, err)
	res, err := e.Submit(context.Background(), "kittens", false)
	require.NoError(t, err)

	assert.Equal(t, OutcomePage, res.Outcome)
	snap := e.Snapshot()
	assert.Equal(t, "kittens", snap.Query)
	assert.Equal(t, 4, snap.SeenLinks)
	assert.Equal(t, 1, snap.Cursor)
}

func TestSubmitSameQueryWithoutResetAdvances(t *testing.T) {
	fetcher := &scriptedFetcher{bodies: []string{
		page(links("cat", 0, 8)...),
		page(links("cat", 8, 16)...),
	}}
	e := newEngine(t, fetcher)

	_, err := e.Submit(context.Background(), "cats", true)
	require.NoError(t, err)
	res, err := e.Submit(context.Background(), "cats", false)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Page.Index)
	assert.Equal(t, 16, e.Snapshot().SeenLinks)
}

func TestDedupAndCursorInvariants(t *testing.T) {
	// overlapping windows: each page repeats half of the previous one
	var bodies []string
	for i := 0; i < 6; i++ {
		bodies = append(bodies, page(links("r", i*4, i*4+8)...))
	}
	fetcher := &scriptedFetcher{bodies: bodies}
	e := newEngine(t, fetcher, WithPageSizer(fixedSize(8)))

	_, err := e.Submit(context.Background(), "overlap", true)
	require.NoError(t, err)
	advances := 1
	for i := 0; i < 5; i++ {
		res, err := e.Advance(context.Background())
		require.NoError(t, err)
		if res.Outcome == OutcomePage {
			advances++
		}
	}

	snap := e.Snapshot()
	seen := map[string]bool{}
	for _, p := range snap.Pages {
		for _, r := range p.Records {
			assert.False(t, seen[r.Link], "duplicate link %s", r.Link)
			seen[r.Link] = true
		}
	}
	assert.Equal(t, advances, snap.Cursor)
	assert.Equal(t, 6, snap.Cursor)
	assert.Equal(t, len(seen), snap.SeenLinks)
}

func TestPageSizeDrivesOffsetAndCount(t *testing.T) {
	fetcher := &scriptedFetcher{bodies: []string{
		page(links("a", 0, 10)...),
		page(links("a", 10, 20)...),
	}}
	e := newEngine(t, fetcher, WithPageSizer(fixedSize(3)))

	res, err := e.Submit(context.Background(), "a b", true)
	require.NoError(t, err)
	assert.Len(t, res.Page.Records, 3)

	_, err = e.Advance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://duckduckgo.com/html/?q=a+b&s=3", fetcher.targets[1])
}

func TestPageSizeFixedForSession(t *testing.T) {
	fetcher := &scriptedFetcher{bodies: []string{
		page(links("a", 0, 10)...),
		page(links("a", 10, 20)...),
		page(links("b", 0, 10)...),
	}}
	size := &mutableSize{n: 3}
	e := newEngine(t, fetcher, WithPageSizer(size))

	_, err := e.Submit(context.Background(), "a", true)
	require.NoError(t, err)

	size.set(5)
	res, err := e.Advance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://duckduckgo.com/html/?q=a&s=3", fetcher.targets[1])
	assert.Len(t, res.Page.Records, 3)
	assert.Equal(t, 3, e.Snapshot().PerPage)

	res, err = e.Submit(context.Background(), "b", true)
	require.NoError(t, err)
	assert.Len(t, res.Page.Records, 5)
	assert.Equal(t, 5, e.Snapshot().PerPage)
}

func TestRecoveredRelaysServeResultsAfterOutage(t *testing.T) {
	relays := &switchableRelays{}
	fetcher := relay.New(relays, []string{"https://r1/?", "https://r2/?", "https://r3/?"})
	renderer := &recordingRenderer{}
	e := newEngine(t, fetcher, WithRenderer(renderer))

	for i := 0; i < 3; i++ {
		res, err := e.Submit(context.Background(), "cats", true)
		require.NoError(t, err)
		require.Equal(t, OutcomeNoResults, res.Outcome)
	}
	for _, st := range fetcher.Statuses() {
		require.Equal(t, "open", st.State)
	}

	relays.serve(page(links("cat", 0, 8)...))
	res, err := e.Submit(context.Background(), "cats", true)

	require.NoError(t, err)
	assert.Equal(t, OutcomePage, res.Outcome)
	assert.Len(t, res.Page.Records, 8)
	assert.Len(t, renderer.noResults, 3, "no further no-results event once relays answer")
	assert.Equal(t, 1, relays.calls)
}

func TestCancelledContextLeavesSessionRetryable(t *testing.T) {
	fetcher := &scriptedFetcher{}
	e := newEngine(t, fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Submit(ctx, "cats", true)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateReady, e.State())
	assert.Equal(t, 0, e.Snapshot().Cursor)
}

func TestClampPerPage(t *testing.T) {
	assert.Equal(t, DefaultPerPage, clampPerPage(0))
	assert.Equal(t, MaxPerPage, clampPerPage(100))
	assert.Equal(t, 12, clampPerPage(12))
}

func TestNewRejectsBadBase(t *testing.T) {
	_, err := New(&scriptedFetcher{}, nil, "not-absolute")
	assert.Error(t, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "fetching", StateFetching.String())
	text, err := StateReady.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "ready", string(text))
}
