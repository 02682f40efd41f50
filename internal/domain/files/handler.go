package files

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"clouddrive/internal/domain/events"
	"clouddrive/internal/pkg/response"
)

// Handler exposes the file tree over HTTP.
type Handler struct {
	service *Service
	hub     *events.Hub
}

func NewHandler(service *Service, hub *events.Hub) *Handler {
	return &Handler{service: service, hub: hub}
}

func (h *Handler) broadcast(eventType string, payload any) {
	if h.hub != nil {
		h.hub.Broadcast(&events.Event{Type: eventType, Payload: payload})
	}
}

type createFolderRequest struct {
	Name     string  `json:"name" binding:"required"`
	ParentID *string `json:"parent_id"`
}

type renameRequest struct {
	NewName string `json:"new_name" binding:"required"`
}

type moveRequest struct {
	DestinationFolderID *string `json:"destination_folder_id"`
}

// Upload handles POST /api/files/upload — the single-shot path for files
// that fit in one request.
func (h *Handler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "no file provided")
		return
	}

	var folderID *string
	if v := c.PostForm("folder_id"); v != "" {
		folderID = &v
	}

	rec, err := h.service.Upload(c.Request.Context(), fileHeader, folderID)
	if err != nil {
		log.Printf("files: upload %q: %v", fileHeader.Filename, err)
		response.Error(c, http.StatusInternalServerError, "UPLOAD_FAILED", "upload failed")
		return
	}

	h.broadcast(events.EventFileUploaded, rec)
	response.SuccessMessage(c, http.StatusOK, "File uploaded successfully", rec)
}

// CreateFolder handles POST /api/files/folder.
func (h *Handler) CreateFolder(c *gin.Context) {
	var req createFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "name is required")
		return
	}

	rec, err := h.service.CreateRecord(c.Request.Context(), req.Name, 0, req.ParentID, true)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "CREATE_FAILED", "failed to create folder")
		return
	}

	h.broadcast(events.EventFolderCreated, rec)
	response.SuccessMessage(c, http.StatusOK, "Folder created successfully", rec)
}

// List handles GET /api/files?folder_id=&search=&type=&sort=&order=.
func (h *Handler) List(c *gin.Context) {
	ctx := c.Request.Context()
	repo := h.service.Repository()

	var folderID *string
	if v := c.Query("folder_id"); v != "" {
		folderID = &v
	}

	var (
		recs []FileRecord
		err  error
	)
	if search := c.Query("search"); search != "" {
		recs, err = repo.Search(ctx, search)
	} else {
		recs, err = repo.ListChildren(ctx, folderID, false)
	}
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "LIST_FAILED", "failed to list files")
		return
	}

	if typeFilter := c.Query("type"); typeFilter != "" {
		filtered := recs[:0]
		for _, rec := range recs {
			if rec.Category == typeFilter {
				filtered = append(filtered, rec)
			}
		}
		recs = filtered
	}

	sortItems(recs, c.DefaultQuery("sort", "name"), c.DefaultQuery("order", "asc"))

	items := make([]ListItem, 0, len(recs))
	for _, rec := range recs {
		item := ListItem{FileRecord: rec}
		if rec.IsFolder {
			if n, err := repo.ChildCount(ctx, rec.ID); err == nil {
				item.ItemCount = &n
			}
		}
		items = append(items, item)
	}

	currentName := "My Files"
	if folderID != nil {
		if folder, err := repo.GetByID(ctx, *folderID); err == nil {
			currentName = folder.DisplayName
		}
	}

	breadcrumb, err := repo.Breadcrumb(ctx, folderID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "LIST_FAILED", "failed to build breadcrumb")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"items": items,
		"current_folder": gin.H{
			"id":   folderID,
			"name": currentName,
		},
		"breadcrumb": breadcrumb,
	})
}

// sortItems orders a listing. Folders always come first; within each group
// the requested key applies.
func sortItems(recs []FileRecord, sortKey, order string) {
	desc := order == "desc"
	less := func(a, b *FileRecord) bool {
		switch sortKey {
		case "date":
			return a.ModifiedAt.Before(b.ModifiedAt)
		case "size":
			return a.SizeBytes < b.SizeBytes
		case "type":
			return a.Category < b.Category
		default:
			return strings.ToLower(a.DisplayName) < strings.ToLower(b.DisplayName)
		}
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].IsFolder != recs[j].IsFolder {
			return recs[i].IsFolder
		}
		if desc {
			return less(&recs[j], &recs[i])
		}
		return less(&recs[i], &recs[j])
	})
}

// GetByID handles GET /api/files/:id.
func (h *Handler) GetByID(c *gin.Context) {
	rec, err := h.service.Repository().GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.notFoundOrInternal(c, err)
		return
	}
	response.Success(c, http.StatusOK, rec)
}

// Rename handles PUT /api/files/:id/rename.
func (h *Handler) Rename(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "new_name is required")
		return
	}

	rec, err := h.service.Rename(c.Request.Context(), c.Param("id"), req.NewName)
	if err != nil {
		h.notFoundOrInternal(c, err)
		return
	}

	h.broadcast(events.EventFileRenamed, rec)
	response.SuccessMessage(c, http.StatusOK, "Renamed successfully", rec)
}

// Move handles PUT /api/files/:id/move.
func (h *Handler) Move(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	rec, err := h.service.Move(c.Request.Context(), c.Param("id"), req.DestinationFolderID)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidDestination), errors.Is(err, ErrNotAFolder):
			response.Error(c, http.StatusBadRequest, "INVALID_DESTINATION", err.Error())
		default:
			h.notFoundOrInternal(c, err)
		}
		return
	}

	h.broadcast(events.EventFileMoved, rec)
	response.SuccessMessage(c, http.StatusOK, "Moved successfully", rec)
}

// Copy handles POST /api/files/:id/copy. Folder copies do not recurse.
func (h *Handler) Copy(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	rec, err := h.service.Copy(c.Request.Context(), c.Param("id"), req.DestinationFolderID)
	if err != nil {
		h.notFoundOrInternal(c, err)
		return
	}

	h.broadcast(events.EventFileCopied, rec)
	response.SuccessMessage(c, http.StatusOK, "Copied successfully", rec)
}

// Delete handles DELETE /api/files/:id?permanent=bool. Deleting an already
// trashed record makes the delete permanent, matching client expectations.
func (h *Handler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	rec, err := h.service.Repository().GetByID(ctx, id)
	if err != nil {
		h.notFoundOrInternal(c, err)
		return
	}

	if c.Query("permanent") == "true" || rec.IsDeleted {
		if _, err := h.service.PermanentDelete(ctx, id); err != nil {
			response.Error(c, http.StatusInternalServerError, "DELETE_FAILED", "failed to delete file")
			return
		}
		h.broadcast(events.EventFileDeleted, gin.H{"id": id})
		response.SuccessMessage(c, http.StatusOK, "File permanently deleted", nil)
		return
	}

	if _, err := h.service.SoftDelete(ctx, id); err != nil {
		h.notFoundOrInternal(c, err)
		return
	}
	h.broadcast(events.EventFileTrashed, gin.H{"id": id})
	response.SuccessMessage(c, http.StatusOK, "File moved to trash", nil)
}

// Restore handles POST /api/files/:id/restore.
func (h *Handler) Restore(c *gin.Context) {
	rec, err := h.service.Restore(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.notFoundOrInternal(c, err)
		return
	}
	h.broadcast(events.EventFileRestored, rec)
	response.SuccessMessage(c, http.StatusOK, "File restored", rec)
}

// Favorite handles POST /api/files/:id/favorite.
func (h *Handler) Favorite(c *gin.Context) {
	newState, err := h.service.ToggleFavorite(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.notFoundOrInternal(c, err)
		return
	}

	message := "Removed from favorites"
	if newState {
		message = "Added to favorites"
	}
	response.SuccessMessage(c, http.StatusOK, message, gin.H{"is_favorite": newState})
}

// TrashList handles GET /api/files/trash/list.
func (h *Handler) TrashList(c *gin.Context) {
	recs, err := h.service.Repository().ListDeleted(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "LIST_FAILED", "failed to list trash")
		return
	}
	response.Success(c, http.StatusOK, recs)
}

// TrashEmpty handles DELETE /api/files/trash/empty.
func (h *Handler) TrashEmpty(c *gin.Context) {
	count, err := h.service.EmptyTrash(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "EMPTY_TRASH_FAILED", "failed to empty trash")
		return
	}
	h.broadcast(events.EventTrashEmptied, gin.H{"deleted": count})
	response.SuccessMessage(c, http.StatusOK,
		fmt.Sprintf("Deleted %d files permanently", count), gin.H{"deleted": count})
}

// FavoritesList handles GET /api/files/favorites/list.
func (h *Handler) FavoritesList(c *gin.Context) {
	recs, err := h.service.Repository().ListFavorites(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "LIST_FAILED", "failed to list favorites")
		return
	}
	response.Success(c, http.StatusOK, recs)
}

func (h *Handler) notFoundOrInternal(c *gin.Context, err error) {
	if errors.Is(err, ErrFileNotFound) {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "File not found")
		return
	}
	response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "operation failed")
}
