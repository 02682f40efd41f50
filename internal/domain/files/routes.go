package files

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the protected file-tree routes. The chunked upload
// routes live in the uploads package under the same /files prefix.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	filesGroup := r.Group("/files")
	{
		filesGroup.GET("", h.List)
		filesGroup.POST("/upload", h.Upload)
		filesGroup.POST("/folder", h.CreateFolder)

		filesGroup.GET("/trash/list", h.TrashList)
		filesGroup.DELETE("/trash/empty", h.TrashEmpty)
		filesGroup.GET("/favorites/list", h.FavoritesList)

		filesGroup.GET("/:id", h.GetByID)
		filesGroup.GET("/:id/thumbnail", h.Thumbnail)
		filesGroup.PUT("/:id/rename", h.Rename)
		filesGroup.PUT("/:id/move", h.Move)
		filesGroup.POST("/:id/copy", h.Copy)
		filesGroup.DELETE("/:id", h.Delete)
		filesGroup.POST("/:id/restore", h.Restore)
		filesGroup.POST("/:id/favorite", h.Favorite)
	}
}

// RegisterPublicRoutes mounts the unauthenticated byte-serving routes;
// download and preview stay public for local use, as the reference does.
func RegisterPublicRoutes(r *gin.RouterGroup, h *Handler) {
	filesGroup := r.Group("/files")
	{
		filesGroup.GET("/:id/download", h.Download)
		filesGroup.GET("/:id/preview", h.Preview)
	}
}
