package tabs

import (
	"errors"
	"net/url"
	"strings"
	"sync"
)

// ErrInvalidURL rejects anything but absolute http(s) URLs and the blank page
var ErrInvalidURL = errors.New("frame url must be an absolute http(s) url")

// FrameOverlay tracks the URL loaded in the embedded frame
type FrameOverlay struct {
	mu         sync.RWMutex
	current    string
	enginePath string
}

// NewFrameOverlay creates a blank frame whose pages are served through enginePath
func NewFrameOverlay(enginePath string) *FrameOverlay {
	if enginePath == "" {
		enginePath = "/engine"
	}
	return &FrameOverlay{current: BlankURL, enginePath: enginePath}
}

// Load replaces the frame URL
func (f *FrameOverlay) Load(rawURL string) error {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL != BlankURL && !IsWebURL(rawURL) {
		return ErrInvalidURL
	}

	f.mu.Lock()
	f.current = rawURL
	f.mu.Unlock()
	return nil
}

// CurrentURL returns the loaded URL or about:blank
func (f *FrameOverlay) CurrentURL() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current
}

// RelayURL is what the front end places in the iframe for the current URL
func (f *FrameOverlay) RelayURL() string {
	current := f.CurrentURL()
	if current == BlankURL {
		return BlankURL
	}
	return f.enginePath + "?url=" + url.QueryEscape(current)
}

// IsWebURL reports whether s is an absolute http or https URL with a host
func IsWebURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
