package uploads

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"clouddrive/internal/domain/events"
	"clouddrive/internal/pkg/response"
)

type Handler struct {
	service *Service
	hub     *events.Hub
}

func NewHandler(service *Service, hub *events.Hub) *Handler {
	return &Handler{service: service, hub: hub}
}

type initRequest struct {
	Filename    string  `json:"filename" binding:"required"`
	FileSize    int64   `json:"file_size"`
	TotalChunks int     `json:"total_chunks" binding:"required,min=1"`
	FolderID    *string `json:"folder_id"`
}

// Init handles POST /api/files/upload/init.
func (h *Handler) Init(c *gin.Context) {
	var req initRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "filename and total_chunks are required")
		return
	}

	session, err := h.service.Init(c.Request.Context(), req.Filename, req.FileSize, req.TotalChunks, req.FolderID)
	if err != nil {
		log.Printf("uploads: init session for %q: %v", req.Filename, err)
		response.Error(c, http.StatusInternalServerError, "INIT_FAILED", "failed to initialize upload")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"upload_id":  session.UploadID,
		"chunk_size": h.service.ChunkSize(),
	})
}

// Chunk handles POST /api/files/upload/chunk/:upload_id with a multipart
// form carrying chunk_index and the binary chunk.
func (h *Handler) Chunk(c *gin.Context) {
	uploadID := c.Param("upload_id")

	index, err := strconv.Atoi(c.PostForm("chunk_index"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "chunk_index is required")
		return
	}

	fileHeader, err := c.FormFile("chunk")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "chunk payload is required")
		return
	}
	payload, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "unreadable chunk payload")
		return
	}
	defer payload.Close()

	session, err := h.service.IngestChunk(c.Request.Context(), uploadID, index, payload)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Upload session not found")
		case errors.Is(err, ErrInvalidSessionState):
			response.Error(c, http.StatusBadRequest, "INVALID_STATE", "Upload already completed or cancelled")
		case errors.Is(err, ErrChunkOutOfRange):
			response.Error(c, http.StatusBadRequest, "CHUNK_OUT_OF_RANGE", err.Error())
		default:
			log.Printf("uploads: ingest chunk %d of %s: %v", index, uploadID, err)
			response.Error(c, http.StatusInternalServerError, "CHUNK_FAILED", "failed to store chunk")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"chunk_index":     index,
		"uploaded_chunks": session.ReceivedCount(),
		"total_chunks":    session.TotalChunks,
	})
}

// Complete handles POST /api/files/upload/complete/:upload_id.
func (h *Handler) Complete(c *gin.Context) {
	uploadID := c.Param("upload_id")

	rec, err := h.service.Complete(c.Request.Context(), uploadID)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Upload session not found")
		case errors.Is(err, ErrInvalidSessionState):
			response.Error(c, http.StatusBadRequest, "INVALID_STATE", "Upload already completed or cancelled")
		case errors.Is(err, ErrIncompleteUpload):
			response.Error(c, http.StatusBadRequest, "INCOMPLETE_UPLOAD", err.Error())
		default:
			log.Printf("uploads: complete %s: %v", uploadID, err)
			response.Error(c, http.StatusInternalServerError, "COMPLETE_FAILED", "failed to complete upload")
		}
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(&events.Event{Type: events.EventUploadCompleted, Payload: rec})
	}
	response.SuccessMessage(c, http.StatusOK, "Upload completed", rec)
}

// Status handles GET /api/files/upload/status/:upload_id — resume info.
func (h *Handler) Status(c *gin.Context) {
	session, err := h.service.Status(c.Request.Context(), c.Param("upload_id"))
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Upload session not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "STATUS_FAILED", "failed to read upload status")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"upload_id":       session.UploadID,
		"filename":        session.Filename,
		"uploaded_chunks": session.ReceivedIndices(),
		"total_chunks":    session.TotalChunks,
		"status":          session.Status,
	})
}

// Cancel handles DELETE /api/files/upload/cancel/:upload_id. Always
// succeeds, even when the session is already gone.
func (h *Handler) Cancel(c *gin.Context) {
	if err := h.service.Cancel(c.Request.Context(), c.Param("upload_id")); err != nil {
		log.Printf("uploads: cancel %s: %v", c.Param("upload_id"), err)
	}
	response.SuccessMessage(c, http.StatusOK, "Upload cancelled", nil)
}
