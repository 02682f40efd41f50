package storage

import (
	"log"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"

	"clouddrive/internal/config"
	"clouddrive/internal/domain/files"
	"clouddrive/internal/pkg/response"
)

// Handler reports quota and usage. Usage is what the metadata store says we
// hold; disk numbers come straight from the filesystem.
type Handler struct {
	repo files.Repository
	cfg  *config.Config
}

func NewHandler(repo files.Repository, cfg *config.Config) *Handler {
	return &Handler{repo: repo, cfg: cfg}
}

// Quota handles GET /api/storage/quota.
func (h *Handler) Quota(c *gin.Context) {
	stats, err := h.repo.AggregateStats(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "STATS_FAILED", "failed to aggregate storage stats")
		return
	}

	quota, err := h.cfg.StorageQuota()
	if err != nil {
		log.Printf("storage: resolve quota: %v", err)
		response.Error(c, http.StatusInternalServerError, "QUOTA_FAILED", "failed to resolve storage quota")
		return
	}

	disk, err := config.DiskUsage(h.cfg.StorageDir)
	if err != nil {
		log.Printf("storage: disk usage: %v", err)
		response.Error(c, http.StatusInternalServerError, "QUOTA_FAILED", "failed to read disk usage")
		return
	}

	var percentage float64
	if quota > 0 {
		percentage = math.Round(float64(stats.TotalUsed)/float64(quota)*1000) / 10
	}

	response.Success(c, http.StatusOK, gin.H{
		"total":           quota,
		"used":            stats.TotalUsed,
		"available":       quota - stats.TotalUsed,
		"percentage_used": percentage,
		"total_files":     stats.TotalFiles,
		"breakdown":       stats.Breakdown,
		"disk":            disk,
	})
}

// Analysis handles GET /api/storage/analysis.
func (h *Handler) Analysis(c *gin.Context) {
	stats, err := h.repo.AggregateStats(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "STATS_FAILED", "failed to aggregate storage stats")
		return
	}

	disk, err := config.DiskUsage(h.cfg.StorageDir)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "STATS_FAILED", "failed to read disk usage")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"total_files":            stats.TotalFiles,
		"file_type_distribution": stats.Breakdown,
		"disk_info":              disk,
	})
}
