package parser

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/GriffinCanCode/foxsearch/internal/shared/types"
)

const (
	// DefaultMaxCount applies when Parse is called with maxCount <= 0
	DefaultMaxCount = 8

	MaxTitleLen   = 120
	MaxSnippetLen = 200
	MaxHostLen    = 25

	// IconTemplate is filled with the display host
	IconTemplate = "https://icons.duckduckgo.com/ip3/%s.ico"

	// DefaultBaseURL is the engine page relative hrefs are resolved against
	DefaultBaseURL = "https://duckduckgo.com/html/"

	// redirectParam carries the real destination on engine redirect links
	redirectParam = "uddg"
)

// Contract names
const (
	ContractHTML = "ddg-html/v1"
	ContractLite = "ddg-lite/v1"
)

// ErrUnknownContract is returned by ForContract for unregistered names
var ErrUnknownContract = errors.New("unknown parsing contract")

// Parser extracts result records from a results page
type Parser interface {
	Contract() string
	Parse(html string, maxCount int) []types.Record
}

// Contracts lists the supported contract names
func Contracts() []string {
	return []string{ContractHTML, ContractLite}
}

// ForContract returns the parser for a contract, resolving links against baseURL
func ForContract(name, baseURL string) (Parser, error) {
	r, err := newResolver(baseURL)
	if err != nil {
		return nil, err
	}

	switch name {
	case ContractHTML:
		return &HTMLParser{resolver: r}, nil
	case ContractLite:
		return &LiteParser{resolver: r}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownContract, name)
	}
}

// resolver turns raw hrefs into absolute destination URLs
type resolver struct {
	base   *url.URL
	domain string
}

func newResolver(baseURL string) (*resolver, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() || base.Host == "" {
		return nil, fmt.Errorf("invalid search base url %q", baseURL)
	}

	domain := strings.ToLower(base.Hostname())
	for _, prefix := range []string{"www.", "html.", "lite."} {
		domain = strings.TrimPrefix(domain, prefix)
	}
	return &resolver{base: base, domain: domain}, nil
}

// resolve returns the destination for href, or false when there is none
func (r *resolver) resolve(href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := r.base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}

	if r.isEngineHost(abs.Hostname()) {
		if dest := abs.Query().Get(redirectParam); dest != "" {
			return dest, true
		}
	}
	return abs.String(), true
}

func (r *resolver) isEngineHost(host string) bool {
	host = strings.ToLower(host)
	return host == r.domain || strings.HasSuffix(host, "."+r.domain)
}

// collector applies the shared record rules: bounds, dedupe and maxCount
type collector struct {
	max     int
	seen    map[string]struct{}
	records []types.Record
}

func newCollector(maxCount int) *collector {
	if maxCount <= 0 {
		maxCount = DefaultMaxCount
	}
	return &collector{
		max:     maxCount,
		seen:    make(map[string]struct{}, maxCount),
		records: make([]types.Record, 0, maxCount),
	}
}

func (c *collector) full() bool {
	return len(c.records) >= c.max
}

func (c *collector) add(link, title, snippet string) {
	if _, dup := c.seen[link]; dup {
		return
	}
	c.seen[link] = struct{}{}

	host := DisplayHost(link)
	c.records = append(c.records, types.Record{
		Title:       Truncate(normalizeSpace(title), MaxTitleLen),
		Snippet:     Truncate(normalizeSpace(snippet), MaxSnippetLen),
		Link:        link,
		DisplayHost: host,
		IconURL:     IconURL(host),
	})
}

// DisplayHost is the link's host, or the raw link when it has none
func DisplayHost(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return Truncate(link, MaxHostLen)
	}
	return Truncate(u.Hostname(), MaxHostLen)
}

// IconURL builds the favicon URL for a display host
func IconURL(displayHost string) string {
	return fmt.Sprintf(IconTemplate, displayHost)
}

// Truncate cuts s to at most n runes
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
