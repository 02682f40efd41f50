package uploads

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the chunked upload endpoints under /files/upload.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	uploadGroup := r.Group("/files/upload")
	{
		uploadGroup.POST("/init", h.Init)
		uploadGroup.POST("/chunk/:upload_id", h.Chunk)
		uploadGroup.POST("/complete/:upload_id", h.Complete)
		uploadGroup.GET("/status/:upload_id", h.Status)
		uploadGroup.DELETE("/cancel/:upload_id", h.Cancel)
	}
}
