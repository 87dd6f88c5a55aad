package framerelay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/foxsearch/internal/httpclient"
	"github.com/GriffinCanCode/foxsearch/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/foxsearch/internal/tabs"
)

// MaxBodySize bounds what is read from upstream
const MaxBodySize = 10 * 1024 * 1024

// Options configures the relay
type Options struct {
	Retries      int
	Timeout      time.Duration
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	UserAgent    string
}

// DefaultOptions returns the production settings
func DefaultOptions() Options {
	return Options{
		Retries:      2,
		Timeout:      20 * time.Second,
		RetryWaitMin: 500 * time.Millisecond,
		RetryWaitMax: 5 * time.Second,
		UserAgent:    httpclient.DefaultUserAgent,
	}
}

// Page is a fetched and rewritten upstream document
type Page struct {
	Status      int
	ContentType string
	Body        []byte
}

// Relay fetches and rewrites pages for the frame
type Relay struct {
	client    *retryablehttp.Client
	userAgent string
	sanitizer *bluemonday.Policy
	logger    *zap.Logger
	metrics   *monitoring.Metrics
}

// New creates a relay
func New(opts Options, logger *zap.Logger, metrics *monitoring.Metrics) *Relay {
	defaults := DefaultOptions()
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryWaitMin <= 0 {
		opts.RetryWaitMin = defaults.RetryWaitMin
	}
	if opts.RetryWaitMax < opts.RetryWaitMin {
		opts.RetryWaitMax = opts.RetryWaitMin
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaults.UserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := retryablehttp.NewClient()
	client.RetryMax = opts.Retries
	client.RetryWaitMin = opts.RetryWaitMin
	client.RetryWaitMax = opts.RetryWaitMax
	client.HTTPClient.Timeout = opts.Timeout
	client.Logger = nil
	// hand the last upstream response back instead of an error
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Relay{
		client:    client,
		userAgent: opts.UserAgent,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger,
		metrics:   metrics,
	}
}

// Handle serves GET ?url=...[&sanitize=1]
func (r *Relay) Handle(c *gin.Context) {
	target := c.Query("url")
	if !tabs.IsWebURL(target) {
		r.metrics.RecordEngineRelay(strconv.Itoa(http.StatusBadRequest))
		c.JSON(http.StatusBadRequest, gin.H{"error": "url must be an absolute http(s) url"})
		return
	}

	page, err := r.Fetch(c.Request.Context(), target, c.Query("sanitize") == "1")
	if err != nil {
		r.logger.Warn("upstream fetch failed", zap.String("url", target), zap.Error(err))
		r.metrics.RecordEngineRelay(strconv.Itoa(http.StatusBadGateway))
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream fetch failed"})
		return
	}

	r.metrics.RecordEngineRelay(strconv.Itoa(page.Status))
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Content-Security-Policy", "upgrade-insecure-requests")
	c.Data(page.Status, page.ContentType, page.Body)
}

// Fetch retrieves target and prepares it for framing
func (r *Relay) Fetch(ctx context.Context, target string, sanitize bool) (*Page, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, zstd")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read upstream body: %w", err)
	}
	body, err := decode(resp.Header.Get("Content-Encoding"), raw)
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mimetype.Detect(body).String()
	}

	if isHTML(contentType) {
		base := resp.Request.URL
		body, err = RewriteRootRelative(body, contentType, origin(base))
		if err != nil {
			return nil, err
		}
		contentType = "text/html; charset=utf-8"
		if sanitize {
			body = r.sanitizer.SanitizeBytes(body)
		}
	}

	r.logger.Debug("page relayed",
		zap.String("url", target),
		zap.Int("status", resp.StatusCode),
		zap.String("content_type", contentType),
		zap.Int("bytes", len(body)),
	)
	return &Page{Status: resp.StatusCode, ContentType: contentType, Body: body}, nil
}

var errUnsupportedEncoding = errors.New("unsupported content encoding")

func decode(encoding string, body []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return body, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		return io.ReadAll(io.LimitReader(zr, MaxBodySize))
	case "zstd":
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(body, nil)
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupportedEncoding, encoding)
	}
}

func isHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml")
}

// origin is scheme://host of u
func origin(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}
