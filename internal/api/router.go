package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all the routes of the core service.
func RegisterRoutes(router *gin.Engine, api *API) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		docs := v1.Group("/documents")
		{
			docs.POST("", api.UploadHandler)
			docs.GET("", api.ListDocumentsHandler)
			docs.GET("/:id", api.GetDocumentHandler)
			docs.GET("/:id/sections", api.GetSectionsHandler)
			docs.DELETE("/:id", api.DeleteDocumentHandler)
		}

		v1.POST("/search", api.SearchHandler)
		v1.POST("/chat", api.ChatHandler)
		v1.POST("/insights", api.InsightsHandler)

		v1.POST("/mindmap", api.MindmapHandler)
		v1.GET("/mindmap/:id/download", api.DownloadMindmapHandler)

		v1.POST("/podcast", api.PodcastHandler)
		v1.GET("/podcast/:id/audio", api.PodcastAudioHandler)
	}
}
