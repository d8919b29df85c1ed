package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ericwooz/yt-fetch-go/internal/app"
	"github.com/ericwooz/yt-fetch-go/internal/domain"
)

// InfoHandler serves the stream catalog endpoint
type InfoHandler struct {
	catalog *app.CatalogService
	logger  *zap.Logger
}

// NewInfoHandler creates a new info handler
func NewInfoHandler(catalog *app.CatalogService, logger *zap.Logger) *InfoHandler {
	return &InfoHandler{catalog: catalog, logger: logger}
}

// VideoInfoRequest is the catalog request body
type VideoInfoRequest struct {
	URL string `json:"url"`
}

// GetVideoInfo handles POST /get-video-info. Failures are tagged in
// the body rather than the status code; the endpoint never raises.
func (h *InfoHandler) GetVideoInfo(c *gin.Context) {
	var req VideoInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "missing URL"})
		return
	}

	// Reject unrecognized URLs before touching the engine.
	if domain.ExtractVideoID(req.URL) == "" {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "invalid URL format"})
		return
	}

	info, err := h.catalog.Build(c.Request.Context(), req.URL)
	if err != nil {
		h.logger.Warn("Catalog build failed", zap.String("url", req.URL), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": info})
}
