package storage

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the storage reporting endpoints under /api/storage.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	storageGroup := r.Group("/storage")
	{
		storageGroup.GET("/quota", h.Quota)
		storageGroup.GET("/analysis", h.Analysis)
	}
}
