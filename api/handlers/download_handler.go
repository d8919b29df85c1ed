package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ericwooz/yt-fetch-go/internal/app"
	"github.com/ericwooz/yt-fetch-go/internal/domain"
)

// DownloadHandler serves the job lifecycle endpoints
type DownloadHandler struct {
	jobs   *app.JobService
	config *domain.DownloadConfig
	logger *zap.Logger
}

// NewDownloadHandler creates a new download handler
func NewDownloadHandler(jobs *app.JobService, config *domain.DownloadConfig, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{jobs: jobs, config: config, logger: logger}
}

// StartDownloadRequest is the job accept body
type StartDownloadRequest struct {
	URL      string `json:"url"`
	Itag     string `json:"itag"`
	Type     string `json:"type"`
	Adaptive bool   `json:"is_adaptive"`
	Quality  int    `json:"quality"`
	Title    string `json:"title"`
}

// StartDownload handles POST /download
func (h *DownloadHandler) StartDownload(c *gin.Context) {
	var req StartDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "missing URL"})
		return
	}

	kind := domain.KindVideo
	if req.Type == string(domain.KindAudio) {
		kind = domain.KindAudio
	}

	job, err := h.jobs.Start(app.StartRequest{
		URL:      req.URL,
		Itag:     req.Itag,
		Kind:     kind,
		Adaptive: req.Adaptive,
		Quality:  req.Quality,
		Title:    req.Title,
	})
	if err != nil {
		if domain.CategoryOf(err) == domain.CategoryInvalidURL {
			c.JSON(http.StatusOK, gin.H{"success": false, "error": "invalid URL format"})
			return
		}
		h.logger.Error("Failed to start job", zap.String("url", req.URL), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"timestamp": job.ID,
		"message":   "download started",
		"video_id":  job.VideoID,
	})
}

// Progress handles GET /download-progress/:id, the legacy poll that
// reports the bare percentage. A missing job reads as zero, a failed
// one as the sentinel.
func (h *DownloadHandler) Progress(c *gin.Context) {
	status := h.jobs.Status(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"progress": status.Progress})
}

// Status handles GET /download-status/:id
func (h *DownloadHandler) Status(c *gin.Context) {
	jobID := c.Param("id")
	status := h.jobs.Status(jobID)

	switch status.State {
	case domain.StateNotFound:
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": "download not found"})
	case domain.StateFailed:
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": "download failed"})
	case domain.StateComplete:
		c.JSON(http.StatusOK, gin.H{
			"status":      "complete",
			"filename":    status.Filename,
			"filesize":    status.Filesize,
			"download_id": jobID,
		})
	case domain.StateFinalizing:
		// Merge still running; keep the wire contract to downloading
		// and hold the bar just short of done.
		c.JSON(http.StatusOK, gin.H{"status": "downloading", "progress": 99})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "downloading", "progress": status.Progress})
	}
}

// ServeFile handles GET /downloads/:filename
func (h *DownloadHandler) ServeFile(c *gin.Context) {
	filename := filepath.Base(c.Param("filename"))
	path := filepath.Join(h.config.Dir, filename)

	if _, _, ok := statFile(path); !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "file not found"})
		return
	}

	c.Header("Content-Type", mimeFor(filename))
	c.FileAttachment(path, filename)
}

// ForceFetch handles GET /download-file/:id: it resolves the job's
// output itself and serves it with no-cache headers. Errors render as
// a small HTML page because the client navigated here directly.
func (h *DownloadHandler) ForceFetch(c *gin.Context) {
	jobID := c.Param("id")

	filename, _, ok := h.jobs.ResolveOutput(jobID)
	if !ok {
		c.Data(http.StatusNotFound, "text/html; charset=utf-8", errorPage("file not found"))
		return
	}

	path := filepath.Join(h.config.Dir, filename)
	if _, _, ok := statFile(path); !ok {
		c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", errorPage("file unreadable"))
		return
	}

	c.Header("Content-Type", mimeFor(filename))
	c.Header("Cache-Control", "no-cache")
	c.FileAttachment(path, filename)
}

// Confirm handles POST /confirm-download/:id
func (h *DownloadHandler) Confirm(c *gin.Context) {
	h.jobs.Confirm(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "files scheduled for deletion"})
}

func statFile(path string) (string, int64, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", 0, false
	}
	return info.Name(), info.Size(), true
}

func mimeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mp3":
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}

func errorPage(message string) []byte {
	return []byte(fmt.Sprintf(
		"<html><body><h1>Error</h1><p>%s</p><p><a href='/'>Back to home</a></p></body></html>",
		message))
}
