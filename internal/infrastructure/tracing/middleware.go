package tracing

import (
	"github.com/gin-gonic/gin"
)

// HTTPMiddleware opens a span per request and echoes the request ID
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if incoming := c.GetHeader(HeaderRequestID); incoming != "" && len(incoming) <= maxIncomingIDLen {
			ctx = WithTraceID(ctx, TraceID(incoming))
		}

		name := c.FullPath()
		if name == "" {
			name = "unmatched"
		}
		span, ctx := tracer.StartSpan(ctx, c.Request.Method+" "+name)
		c.Request = c.Request.WithContext(ctx)
		c.Header(HeaderRequestID, string(span.TraceID))

		c.Next()

		span.StatusCode = c.Writer.Status()
		if len(c.Errors) > 0 {
			span.SetError(c.Errors.Last())
		}
		tracer.End(span)
	}
}
