package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/foxsearch/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/foxsearch/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/foxsearch/internal/preferences"
	"github.com/GriffinCanCode/foxsearch/internal/relay"
	"github.com/GriffinCanCode/foxsearch/internal/search"
	"github.com/GriffinCanCode/foxsearch/internal/suggest"
	"github.com/GriffinCanCode/foxsearch/internal/tabs"
)

// Version is reported by the root endpoint
const Version = "0.1.0"

// Deps groups what the handlers operate on
type Deps struct {
	Engine      *search.Engine
	Relays      *relay.Fetcher
	Suggestions *suggest.Service
	Tabs        *tabs.Manager
	Frame       *tabs.FrameOverlay
	Preferences *preferences.Store
	Subscribers func() int
	Tracer      *tracing.Tracer
	Metrics     *monitoring.Metrics
	Logger      *zap.Logger
}

// Handlers contains all HTTP handlers
type Handlers struct {
	Deps
}

// NewHandlers creates a new handler set
func NewHandlers(deps Deps) *Handlers {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Handlers{Deps: deps}
}

// Register mounts the API routes
func (h *Handlers) Register(r gin.IRoutes) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.GET("/search", h.SearchSnapshot)
	r.POST("/search", h.Search)
	r.POST("/search/next", h.SearchNext)
	r.DELETE("/search", h.SearchReset)

	r.GET("/suggest", h.Suggest)

	r.GET("/frame", h.Frame)
	r.POST("/frame/load", h.LoadFrame)

	r.GET("/tabs", h.ListTabs)
	r.POST("/tabs/pin", h.PinTab)
	r.POST("/tabs/restore", h.RestoreTab)

	r.GET("/preferences/results-per-page", h.GetResultsPerPage)
	r.PUT("/preferences/results-per-page", h.SetResultsPerPage)
}

// Root handles the liveness probe
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "foxsearch",
		"version": Version,
	})
}

// Health reports component state
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{
		"status":      "healthy",
		"search":      h.Engine.State().String(),
		"pinned_tabs": h.Tabs.Len(),
	}
	if h.Relays != nil {
		body["relays"] = h.Relays.Statuses()
	}
	if h.Subscribers != nil {
		body["subscribers"] = h.Subscribers()
	}
	c.JSON(http.StatusOK, body)
}

// span opens a child span when tracing is configured
func (h *Handlers) span(ctx context.Context, name string, tags ...string) (context.Context, func(error)) {
	if h.Tracer == nil {
		return ctx, func(error) {}
	}
	span, ctx := h.Tracer.StartSpan(ctx, name)
	for i := 0; i+1 < len(tags); i += 2 {
		span.SetTag(tags[i], tags[i+1])
	}
	return ctx, func(err error) {
		if err != nil {
			span.SetError(err)
		}
		h.Tracer.End(span)
	}
}

func abort(c *gin.Context, status int, err error) {
	c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, search.ErrEmptyQuery),
		errors.Is(err, search.ErrNoQuery),
		errors.Is(err, tabs.ErrInvalidURL),
		errors.Is(err, preferences.ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, tabs.ErrTabNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
