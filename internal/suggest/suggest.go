// Package suggest fetches query autocompletions through the relay chain.
package suggest

import (
	"context"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"github.com/GriffinCanCode/foxsearch/internal/infrastructure/monitoring"
)

const (
	// Endpoint is the suggestion service queried with client=firefox
	Endpoint = "https://suggestqueries.google.com/complete/search"

	// MaxSuggestions caps the returned list
	MaxSuggestions = 8

	fallbackLanguage = "en"
)

// Languages the suggestion endpoint is queried with
var Languages = []string{"pl", "en", "de", "fr", "es", "it", "pt", "nl", "sv", "ja", "zh"}

// Fetcher returns the first relayed body that accept approves
type Fetcher interface {
	FetchAccepted(ctx context.Context, target string, accept func(body string) bool) (string, bool)
}

// Service looks up suggestions
type Service struct {
	fetcher     Fetcher
	defaultLang string
	group       singleflight.Group
	logger      *zap.Logger
	metrics     *monitoring.Metrics
}

// New creates a service; unsupported languages fall back to defaultLang
func New(fetcher Fetcher, defaultLang string, logger *zap.Logger, metrics *monitoring.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !supported(defaultLang) {
		defaultLang = fallbackLanguage
	}
	return &Service{
		fetcher:     fetcher,
		defaultLang: defaultLang,
		logger:      logger,
		metrics:     metrics,
	}
}

// Suggest returns at most MaxSuggestions completions for query.
// Any failure yields an empty list.
func (s *Service) Suggest(ctx context.Context, query, lang string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return []string{}
	}
	lang = s.Language(lang)

	// identical lookups in flight share one relay round trip
	v, _, shared := s.group.Do(lang+"\x00"+query, func() (interface{}, error) {
		return s.lookup(ctx, query, lang), nil
	})
	out := v.([]string)
	if shared {
		s.logger.Debug("suggestion lookup shared", zap.String("query", query))
	}
	return append([]string{}, out...)
}

// Language picks a supported code from an hl value or an Accept-Language
// header ("de-AT", "fr;q=0.8", "xx,de;q=0.5"), preferring higher q weights.
func (s *Service) Language(header string) string {
	if tags, _, err := language.ParseAcceptLanguage(header); err == nil {
		for _, tag := range tags {
			base, _ := tag.Base()
			if code := base.String(); supported(code) {
				return code
			}
		}
		return s.defaultLang
	}

	// malformed header: take the first entry's primary subtag
	code := strings.ToLower(strings.TrimSpace(header))
	if i := strings.IndexAny(code, ",;"); i >= 0 {
		code = code[:i]
	}
	if i := strings.IndexAny(code, "-_"); i >= 0 {
		code = code[:i]
	}
	if supported(strings.TrimSpace(code)) {
		return strings.TrimSpace(code)
	}
	return s.defaultLang
}

// TargetURL builds the suggestion endpoint URL
func TargetURL(query, lang string) string {
	return Endpoint + "?" + url.Values{
		"client": {"firefox"},
		"hl":     {lang},
		"q":      {query},
	}.Encode()
}

func (s *Service) lookup(ctx context.Context, query, lang string) []string {
	var suggestions []string
	accept := func(body string) bool {
		list, ok := Decode(body)
		if ok {
			suggestions = list
		}
		return ok
	}

	if _, ok := s.fetcher.FetchAccepted(ctx, TargetURL(query, lang), accept); !ok {
		s.metrics.RecordSuggest("failed")
		s.logger.Warn("suggestions unavailable", zap.String("query", query), zap.String("lang", lang))
		return []string{}
	}

	s.metrics.RecordSuggest("ok")
	return suggestions
}

// Decode parses a `[query, [suggestion, ...], ...]` payload
func Decode(body string) ([]string, bool) {
	var payload []interface{}
	if err := sonic.UnmarshalString(body, &payload); err != nil || len(payload) < 2 {
		return nil, false
	}
	items, ok := payload[1].([]interface{})
	if !ok {
		return nil, false
	}

	out := make([]string, 0, MaxSuggestions)
	for _, item := range items {
		if str, ok := item.(string); ok && str != "" {
			out = append(out, str)
			if len(out) == MaxSuggestions {
				break
			}
		}
	}
	return out, true
}

func supported(code string) bool {
	for _, l := range Languages {
		if l == code {
			return true
		}
	}
	return false
}
