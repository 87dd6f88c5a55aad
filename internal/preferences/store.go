// Package preferences persists the user's portal settings.
//
// The only setting is the number of results fetched per page. Storage is a
// small string KV with memory, TOML file and Redis implementations; read
// failures degrade to the default value.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

const (
	KeyResultsPerPage = "results_per_page"

	MinResultsPerPage     = 1
	MaxResultsPerPage     = 30
	DefaultResultsPerPage = 8
)

var (
	// ErrOutOfRange rejects a results-per-page value outside 1..30
	ErrOutOfRange = errors.New("results_per_page out of range")
	// ErrNotFound is returned by a KV for a missing key
	ErrNotFound = errors.New("preference not set")
)

// KV is the storage backend
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Store reads and writes typed preferences
type Store struct {
	kv     KV
	logger *zap.Logger
}

// NewStore wraps a backend
func NewStore(kv KV, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, logger: logger}
}

// ResultsPerPage returns the stored value or the default
func (s *Store) ResultsPerPage(ctx context.Context) int {
	raw, err := s.kv.Get(ctx, KeyResultsPerPage)
	switch {
	case errors.Is(err, ErrNotFound):
		return DefaultResultsPerPage
	case err != nil:
		s.logger.Warn("preference read failed, using default", zap.String("key", KeyResultsPerPage), zap.Error(err))
		return DefaultResultsPerPage
	}

	n, err := strconv.Atoi(raw)
	if err != nil || validate(n) != nil {
		s.logger.Warn("stored preference invalid, using default", zap.String("key", KeyResultsPerPage), zap.String("value", raw))
		return DefaultResultsPerPage
	}
	return n
}

// SetResultsPerPage validates and stores n
func (s *Store) SetResultsPerPage(ctx context.Context, n int) error {
	if err := validate(n); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, KeyResultsPerPage, strconv.Itoa(n)); err != nil {
		return fmt.Errorf("store %s: %w", KeyResultsPerPage, err)
	}
	s.logger.Info("preference updated", zap.String("key", KeyResultsPerPage), zap.Int("value", n))
	return nil
}

// Close releases the backend
func (s *Store) Close() error {
	return s.kv.Close()
}

func validate(n int) error {
	if n < MinResultsPerPage || n > MaxResultsPerPage {
		return fmt.Errorf("%w: %d (allowed %d..%d)", ErrOutOfRange, n, MinResultsPerPage, MaxResultsPerPage)
	}
	return nil
}
