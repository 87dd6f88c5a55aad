package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/foxsearch/internal/infrastructure/tracing"
)

// SearchRequest is the POST /search body
type SearchRequest struct {
	Query string `json:"query"`
	Reset bool   `json:"reset"`
}

// Search submits a query
func (h *Handlers) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	ctx, end := h.span(c.Request.Context(), "search.submit", "query", req.Query)
	res, err := h.Engine.Submit(ctx, req.Query, req.Reset)
	end(err)
	if err != nil {
		abort(c, statusFor(err), err)
		return
	}

	h.Logger.Info("search submitted",
		tracing.Field(ctx),
		zap.String("query", req.Query),
		zap.Bool("reset", req.Reset),
		zap.String("outcome", string(res.Outcome)),
	)
	c.JSON(http.StatusOK, res)
}

// SearchNext advances to the next page
func (h *Handlers) SearchNext(c *gin.Context) {
	ctx, end := h.span(c.Request.Context(), "search.advance")
	res, err := h.Engine.Advance(ctx)
	end(err)
	if err != nil {
		abort(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SearchReset returns the engine to idle
func (h *Handlers) SearchReset(c *gin.Context) {
	h.Engine.Reset()
	c.Status(http.StatusNoContent)
}

// SearchSnapshot returns the accumulated session
func (h *Handlers) SearchSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.Engine.Snapshot())
}

// Suggest returns autocompletions for q
func (h *Handlers) Suggest(c *gin.Context) {
	query := c.Query("q")
	lang := h.Suggestions.Language(c.DefaultQuery("hl", c.GetHeader("Accept-Language")))

	ctx, end := h.span(c.Request.Context(), "suggest", "lang", lang)
	suggestions := h.Suggestions.Suggest(ctx, query, lang)
	end(nil)

	c.JSON(http.StatusOK, gin.H{
		"query":       query,
		"lang":        lang,
		"suggestions": suggestions,
	})
}
