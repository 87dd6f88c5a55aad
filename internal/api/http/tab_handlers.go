package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// URLRequest carries a single URL
type URLRequest struct {
	URL string `json:"url"`
}

// ResultsPerPageRequest is the PUT /preferences/results-per-page body
type ResultsPerPageRequest struct {
	ResultsPerPage int `json:"results_per_page" binding:"required"`
}

func (h *Handlers) frameState() gin.H {
	return gin.H{
		"url":       h.Deps.Frame.CurrentURL(),
		"relay_url": h.Deps.Frame.RelayURL(),
	}
}

// Frame returns the embedded frame state
func (h *Handlers) Frame(c *gin.Context) {
	c.JSON(http.StatusOK, h.frameState())
}

// LoadFrame points the frame at a URL
func (h *Handlers) LoadFrame(c *gin.Context) {
	var req URLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if err := h.Deps.Frame.Load(req.URL); err != nil {
		abort(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, h.frameState())
}

// ListTabs returns the pinned tabs
func (h *Handlers) ListTabs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tabs": h.Tabs.List()})
}

// PinTab pins the frame's current URL. A body URL is loaded into the frame
// first, so only URLs the frame has shown are ever pinned.
func (h *Handlers) PinTab(c *gin.Context) {
	var req URLRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			abort(c, http.StatusBadRequest, err)
			return
		}
	}

	if req.URL != "" {
		if err := h.Deps.Frame.Load(req.URL); err != nil {
			abort(c, statusFor(err), err)
			return
		}
	}
	tab, added := h.Tabs.Pin(h.Deps.Frame.CurrentURL())

	body := gin.H{"added": added, "tabs": h.Tabs.List()}
	if tab.URL != "" {
		body["tab"] = tab
	}
	c.JSON(http.StatusOK, body)
}

// RestoreTab loads a pinned tab back into the frame
func (h *Handlers) RestoreTab(c *gin.Context) {
	var req URLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	target, err := h.Tabs.Restore(req.URL)
	if err != nil {
		abort(c, statusFor(err), err)
		return
	}
	if err := h.Deps.Frame.Load(target); err != nil {
		abort(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, h.frameState())
}

// GetResultsPerPage returns the page size preference
func (h *Handlers) GetResultsPerPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"results_per_page": h.Preferences.ResultsPerPage(c.Request.Context())})
}

// SetResultsPerPage updates the page size preference
func (h *Handlers) SetResultsPerPage(c *gin.Context) {
	var req ResultsPerPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if err := h.Preferences.SetResultsPerPage(c.Request.Context(), req.ResultsPerPage); err != nil {
		abort(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results_per_page": req.ResultsPerPage})
}
