/*
Package tracing gives every API request an ID and records lightweight spans.

Request IDs are ULIDs prefixed with "req". A caller may supply its own ID in
the X-Request-ID header; it is echoed back and carried in the request
context so log lines and child spans can be correlated.

# Usage

	tracer := tracing.New("foxsearch", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "search.fetch")
	defer tracer.End(span)

Finished spans are collected asynchronously and logged at debug level.
When the buffer is full spans are dropped rather than blocking the request.
*/
package tracing
