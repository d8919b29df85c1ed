package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ericwooz/yt-fetch-go/api/handlers"
	"github.com/ericwooz/yt-fetch-go/api/middleware"
	"github.com/ericwooz/yt-fetch-go/web"
)

// SetupRouter wires up the HTTP surface
func SetupRouter(
	info *handlers.InfoHandler,
	download *handlers.DownloadHandler,
	history *handlers.HistoryHandler,
	health *handlers.HealthHandler,
	log *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())

	// Landing page
	router.GET("/", func(c *gin.Context) {
		page, err := web.Index()
		if err != nil {
			c.String(http.StatusInternalServerError, "landing page unavailable")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	})

	// Job lifecycle
	router.POST("/get-video-info", info.GetVideoInfo)
	router.POST("/download", download.StartDownload)
	router.GET("/download-progress/:id", download.Progress)
	router.GET("/download-status/:id", download.Status)
	router.GET("/downloads/:filename", download.ServeFile)
	router.GET("/download-file/:id", download.ForceFetch)
	router.POST("/confirm-download/:id", download.Confirm)

	// Health endpoints
	router.GET("/health", health.Health)
	router.GET("/ready", health.Ready)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/history", history.List)
		v1.GET("/history/stats", history.Stats)
	}

	return router
}
