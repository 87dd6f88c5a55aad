package search

import (
	"errors"

	"github.com/GriffinCanCode/foxsearch/internal/shared/id"
	"github.com/GriffinCanCode/foxsearch/internal/shared/types"
)

var (
	// ErrEmptyQuery rejects a blank query before any state change
	ErrEmptyQuery = errors.New("query is empty")
	// ErrNoQuery rejects Advance before any query was submitted
	ErrNoQuery = errors.New("no active query")
)

// State is the engine lifecycle state
type State int

const (
	StateIdle State = iota
	StateFetching
	StateReady
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome classifies how a trigger ended
type Outcome string

const (
	OutcomePage         Outcome = "page"
	OutcomeNoResults    Outcome = "no_results"
	OutcomeNoNewResults Outcome = "no_new_results"
	OutcomeDropped      Outcome = "dropped"
	OutcomeStale        Outcome = "stale"
)

// Result reports a Submit or Advance call. Page is set only for OutcomePage.
type Result struct {
	Outcome Outcome     `json:"outcome"`
	FetchID id.FetchID  `json:"fetch_id,omitempty"`
	Page    *types.Page `json:"page,omitempty"`
}

// Snapshot is a read-only copy of the session
type Snapshot struct {
	State      State        `json:"state"`
	Query      string       `json:"query"`
	Cursor     int          `json:"cursor"`
	PerPage    int          `json:"per_page"`
	SeenLinks  int          `json:"seen_links"`
	Pages      []types.Page `json:"pages"`
	Generation uint64       `json:"generation"`
}

// session is the per-query state; pages and seen only grow until reset
type session struct {
	query   string
	cursor  int
	perPage int
	seen    map[string]struct{}
	pages   []types.Page
}

func newSession(query string, perPage int) session {
	return session{query: query, perPage: clampPerPage(perPage), seen: make(map[string]struct{})}
}

// admit filters records against seen links and marks the survivors seen
func (s *session) admit(records []types.Record) []types.Record {
	fresh := make([]types.Record, 0, len(records))
	for _, r := range records {
		if _, ok := s.seen[r.Link]; ok {
			continue
		}
		s.seen[r.Link] = struct{}{}
		fresh = append(fresh, r)
	}
	return fresh
}

// fetchTag identifies the session a fetch was issued for
type fetchTag struct {
	id         id.FetchID
	generation uint64
	query      string
	cursor     int
	perPage    int
}
