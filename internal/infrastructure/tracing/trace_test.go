package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/foxsearch/internal/shared/id"
)

func TestStartSpanNestsUnderTrace(t *testing.T) {
	tracer := New("test", nil)
	defer tracer.Close()

	parent, ctx := tracer.StartSpan(context.Background(), "parent")
	child, _ := tracer.StartSpan(ctx, "child")

	assert.True(t, id.IsValid(string(parent.TraceID)))
	assert.Equal(t, parent.TraceID, child.TraceID)
	assert.Equal(t, parent.SpanID, child.ParentID)
	assert.NotEqual(t, parent.SpanID, child.SpanID)

	tracer.End(child)
	tracer.End(parent)
}

func TestSpanTagsAreLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	tracer := New("test", zap.New(core))
	defer tracer.Close()

	span, _ := tracer.StartSpan(context.Background(), "search.submit")
	span.SetTag("query", "cats")
	tracer.End(span)

	require.Eventually(t, func() bool {
		return logs.FilterMessage("span completed").Len() == 1
	}, time.Second, 10*time.Millisecond)
	entry := logs.FilterMessage("span completed").All()[0]
	assert.Equal(t, "cats", entry.ContextMap()["query"])
	assert.Equal(t, "search.submit", entry.ContextMap()["operation"])
}

func TestEndAfterCloseIsSafe(t *testing.T) {
	tracer := New("test", nil)
	span, _ := tracer.StartSpan(context.Background(), "late")
	tracer.Close()
	tracer.Close()

	assert.NotPanics(t, func() { tracer.End(span) })
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer := New("test", nil)
	defer tracer.Close()

	var seen TraceID
	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	router.GET("/ping", func(c *gin.Context) {
		seen = GetTraceID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	t.Run("generates id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		require.NotEmpty(t, w.Header().Get(HeaderRequestID))
		assert.Equal(t, string(seen), w.Header().Get(HeaderRequestID))
	})

	t.Run("propagates incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(HeaderRequestID, "client-abc")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "client-abc", w.Header().Get(HeaderRequestID))
		assert.Equal(t, TraceID("client-abc"), seen)
	})
}
