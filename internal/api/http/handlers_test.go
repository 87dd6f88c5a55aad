package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/foxsearch/internal/httpclient"
	"github.com/GriffinCanCode/foxsearch/internal/parser"
	"github.com/GriffinCanCode/foxsearch/internal/preferences"
	"github.com/GriffinCanCode/foxsearch/internal/relay"
	"github.com/GriffinCanCode/foxsearch/internal/search"
	"github.com/GriffinCanCode/foxsearch/internal/suggest"
	"github.com/GriffinCanCode/foxsearch/internal/tabs"
)

// fakeRelay answers like a CORS relay in front of the engine and the
// suggestion endpoint
func fakeRelay(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target, err := url.Parse(r.URL.Query().Get("url"))
		require.NoError(t, err)

		if strings.Contains(target.Host, "suggestqueries") {
			q := target.Query().Get("q")
			fmt.Fprintf(w, `[%q,[%q,%q]]`, q, q+" recipes", q+" near me")
			return
		}
		if target.Query().Get("q") == "nothing" {
			w.Write([]byte("<html><body>No results.</body></html>"))
			return
		}

		var offset int
		fmt.Sscanf(target.Query().Get("s"), "%d", &offset)
		var b strings.Builder
		b.WriteString("<html><body>")
		for i := offset; i < offset+3; i++ {
			fmt.Fprintf(&b, `<div class="result"><a class="result__a" href="https://site%d.example/">Site %d</a><a class="result__snippet">s</a></div>`, i, i)
		}
		b.WriteString("</body></html>")
		w.Write([]byte(b.String()))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRouter(t *testing.T) (*gin.Engine, *Handlers) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := fakeRelay(t)
	fetcher := relay.New(httpclient.NewClient(httpclient.Options{Timeout: 2 * time.Second}), []string{srv.URL + "/?url="})
	p, err := parser.ForContract(parser.ContractHTML, parser.DefaultBaseURL)
	require.NoError(t, err)

	prefs := preferences.NewStore(preferences.NewMemoryKV(), nil)
	engine, err := search.New(fetcher, p, parser.DefaultBaseURL, search.WithPageSizer(prefs))
	require.NoError(t, err)

	h := NewHandlers(Deps{
		Engine:      engine,
		Relays:      fetcher,
		Suggestions: suggest.New(fetcher, "en", nil, nil),
		Tabs:        tabs.NewManager(nil, nil),
		Frame:       tabs.NewFrameOverlay("/engine"),
		Preferences: prefs,
	})
	router := gin.New()
	h.Register(router)
	return router, h
}

func do(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestSearchFlow(t *testing.T) {
	router, _ := newRouter(t)

	w := do(router, http.MethodPost, "/search", SearchRequest{Query: "cats", Reset: true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode(t, w)
	assert.Equal(t, "page", res["outcome"])
	assert.Len(t, res["page"].(map[string]interface{})["records"], 3)

	w = do(router, http.MethodPost, "/search/next", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "page", decode(t, w)["outcome"])

	w = do(router, http.MethodGet, "/search", nil)
	snap := decode(t, w)
	assert.Equal(t, "ready", snap["state"])
	assert.Equal(t, float64(2), snap["cursor"])
	assert.Equal(t, float64(6), snap["seen_links"], "offsets 0 and 8 yield 3 links each")

	w = do(router, http.MethodDelete, "/search", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "idle", decode(t, do(router, http.MethodGet, "/search", nil))["state"])
}

func TestSearchErrors(t *testing.T) {
	router, _ := newRouter(t)

	w := do(router, http.MethodPost, "/search/next", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPost, "/search", SearchRequest{Query: "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "empty")

	w = do(router, http.MethodPost, "/search", SearchRequest{Query: "nothing", Reset: true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no_results", decode(t, w)["outcome"])
}

func TestSuggestEndpoint(t *testing.T) {
	router, _ := newRouter(t)

	w := do(router, http.MethodGet, "/suggest?q=pizza&hl=de-DE", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "de", body["lang"])
	assert.Equal(t, []interface{}{"pizza recipes", "pizza near me"}, body["suggestions"])
}

func TestFrameAndTabs(t *testing.T) {
	router, _ := newRouter(t)

	w := do(router, http.MethodPost, "/tabs/pin", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["added"], "blank frame is not pinned")

	w = do(router, http.MethodPost, "/frame/load", URLRequest{URL: "ftp://nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPost, "/frame/load", URLRequest{URL: "https://go.dev/"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/engine?url=https%3A%2F%2Fgo.dev%2F", decode(t, w)["relay_url"])

	w = do(router, http.MethodPost, "/tabs/pin", nil)
	assert.Equal(t, true, decode(t, w)["added"])
	w = do(router, http.MethodPost, "/tabs/pin", nil)
	assert.Equal(t, false, decode(t, w)["added"])
	w = do(router, http.MethodPost, "/tabs/pin", URLRequest{URL: "https://pkg.go.dev/"})
	assert.Equal(t, true, decode(t, w)["added"])
	assert.Equal(t, "https://pkg.go.dev/", decode(t, do(router, http.MethodGet, "/frame", nil))["url"],
		"pinning a body URL loads it into the frame")

	w = do(router, http.MethodPost, "/tabs/pin", URLRequest{URL: "javascript:alert(1)"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "https://pkg.go.dev/", decode(t, do(router, http.MethodGet, "/frame", nil))["url"])

	w = do(router, http.MethodGet, "/tabs", nil)
	list := decode(t, w)["tabs"].([]interface{})
	require.Len(t, list, 2)
	assert.Equal(t, "go.dev", list[0].(map[string]interface{})["title"])

	w = do(router, http.MethodPost, "/tabs/restore", URLRequest{URL: "https://pkg.go.dev/"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://pkg.go.dev/", decode(t, w)["url"])
	assert.Equal(t, "https://pkg.go.dev/", decode(t, do(router, http.MethodGet, "/frame", nil))["url"])

	w = do(router, http.MethodPost, "/tabs/restore", URLRequest{URL: "https://unknown.dev/"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPreferencesEndpoints(t *testing.T) {
	router, _ := newRouter(t)

	w := do(router, http.MethodGet, "/preferences/results-per-page", nil)
	assert.Equal(t, float64(preferences.DefaultResultsPerPage), decode(t, w)["results_per_page"])

	w = do(router, http.MethodPut, "/preferences/results-per-page", ResultsPerPageRequest{ResultsPerPage: 31})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodPut, "/preferences/results-per-page", ResultsPerPageRequest{ResultsPerPage: 2})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodPost, "/search", SearchRequest{Query: "dogs", Reset: true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["page"].(map[string]interface{})["records"], 2)
}

func TestHealth(t *testing.T) {
	router, h := newRouter(t)
	h.Subscribers = func() int { return 3 }

	w := do(router, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "idle", body["search"])
	assert.Equal(t, float64(3), body["subscribers"])
	assert.Len(t, body["relays"], 1)

	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/", nil).Code)
}
