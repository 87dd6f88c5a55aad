package tabs

import (
	"errors"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/foxsearch/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/foxsearch/internal/shared/types"
)

// BlankURL is the empty-frame sentinel
const BlankURL = "about:blank"

// ErrTabNotFound is returned when restoring a URL that was never pinned
var ErrTabNotFound = errors.New("tab not pinned")

// Manager owns the pinned tabs in insertion order
type Manager struct {
	mu      sync.RWMutex
	tabs    []types.PinnedTab
	index   map[string]int
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewManager creates an empty manager
func NewManager(logger *zap.Logger, metrics *monitoring.Metrics) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		index:   make(map[string]int),
		logger:  logger,
		metrics: metrics,
	}
}

// Pin saves the frame's current URL. Blank and already pinned URLs are
// skipped; added reports whether the list grew.
func (m *Manager) Pin(frameURL string) (tab types.PinnedTab, added bool) {
	frameURL = strings.TrimSpace(frameURL)
	if frameURL == "" || frameURL == BlankURL {
		return types.PinnedTab{}, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if i, ok := m.index[frameURL]; ok {
		return m.tabs[i], false
	}

	tab = types.PinnedTab{URL: frameURL, Title: TitleFor(frameURL)}
	m.index[frameURL] = len(m.tabs)
	m.tabs = append(m.tabs, tab)
	m.metrics.SetPinnedTabs(len(m.tabs))
	m.logger.Info("tab pinned", zap.String("url", frameURL), zap.Int("count", len(m.tabs)))
	return tab, true
}

// List returns the pinned tabs in insertion order
func (m *Manager) List() []types.PinnedTab {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.PinnedTab{}, m.tabs...)
}

// Restore returns the URL to load for a pinned tab
func (m *Manager) Restore(tabURL string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.index[strings.TrimSpace(tabURL)]; !ok {
		return "", ErrTabNotFound
	}
	return strings.TrimSpace(tabURL), nil
}

// Len returns the number of pinned tabs
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tabs)
}

// TitleFor derives a tab title from the URL host, or the raw URL without one
func TitleFor(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return u.Hostname()
}
