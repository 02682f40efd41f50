package files

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"clouddrive/internal/pkg/response"
)

// streamBufSize bounds how much of a file sits in memory per write while
// streaming range responses.
const streamBufSize = 8 * 1024

// byteRange is a parsed, validated Range header.
type byteRange struct {
	start  int64
	end    int64 // inclusive
	length int64
}

// parseRange understands "bytes=start-end" and "bytes=start-" only; suffix
// ranges ("bytes=-N") and multipart ranges are not supported and parse as
// malformed. Malformed ranges return (nil, nil): the caller degrades to a
// full download. start >= size is the one hard error.
func parseRange(header string, size int64) (*byteRange, error) {
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, nil
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return nil, nil
	}

	start, err := strconv.ParseInt(strings.TrimSpace(startStr), 10, 64)
	if err != nil || start < 0 {
		return nil, nil
	}

	end := size - 1
	if s := strings.TrimSpace(endStr); s != "" {
		end, err = strconv.ParseInt(s, 10, 64)
		if err != nil || end < start {
			return nil, nil
		}
	}
	if end > size-1 {
		end = size - 1
	}

	if start >= size {
		return nil, ErrRangeNotSatisfiable
	}

	return &byteRange{start: start, end: end, length: end - start + 1}, nil
}

// Download handles GET /api/files/:id/download with single-range resume
// support. Public, as the reference keeps it for local use.
func (h *Handler) Download(c *gin.Context) {
	rec, path, err := h.service.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.notFoundOrInternal(c, err)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "File not found on disk")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "stat failed")
		return
	}
	size := info.Size()

	mimeType := "application/octet-stream"
	if rec.MimeType != nil {
		mimeType = *rec.MimeType
	}

	if header := c.GetHeader("Range"); header != "" {
		rng, err := parseRange(header, size)
		if err != nil {
			c.Header("Content-Range", fmt.Sprintf("bytes */%d", size))
			response.Error(c, http.StatusRequestedRangeNotSatisfiable, "BAD_RANGE", "Range not satisfiable")
			return
		}
		if rng != nil {
			h.servePartial(c, f, rec, rng, size, mimeType)
			return
		}
		// Malformed range header: fall through to a full download.
	}

	c.Header("Accept-Ranges", "bytes")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.DisplayName))
	c.Header("Content-Length", strconv.FormatInt(size, 10))
	c.Header("Content-Type", mimeType)
	c.Status(http.StatusOK)
	streamSection(c, f, size)
}

func (h *Handler) servePartial(c *gin.Context, f *os.File, rec *FileRecord, rng *byteRange, size int64, mimeType string) {
	if _, err := f.Seek(rng.start, io.SeekStart); err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "seek failed")
		return
	}

	c.Header("Content-Range", fmt.Sprintf("bytes %d-%d/%d", rng.start, rng.end, size))
	c.Header("Accept-Ranges", "bytes")
	c.Header("Content-Length", strconv.FormatInt(rng.length, 10))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.DisplayName))
	c.Header("Content-Type", mimeType)
	c.Status(http.StatusPartialContent)
	streamSection(c, f, rng.length)
}

// streamSection copies exactly n bytes to the client in bounded increments.
// A broken pipe mid-stream just ends the copy; the client disconnected.
func streamSection(c *gin.Context, r io.Reader, n int64) {
	buf := make([]byte, streamBufSize)
	if _, err := io.CopyBuffer(c.Writer, io.LimitReader(r, n), buf); err != nil {
		return
	}
}

// Preview handles GET /api/files/:id/preview — inline bytes for viewers.
func (h *Handler) Preview(c *gin.Context) {
	rec, path, err := h.service.Resolve(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.notFoundOrInternal(c, err)
		return
	}

	mimeType := "application/octet-stream"
	if rec.MimeType != nil {
		mimeType = *rec.MimeType
	}
	c.Header("Content-Type", mimeType)
	c.File(path)
}

// Thumbnail handles GET /api/files/:id/thumbnail.
func (h *Handler) Thumbnail(c *gin.Context) {
	path, err := h.service.ResolveThumbnail(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "No thumbnail available")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "operation failed")
		return
	}

	c.Header("Content-Type", "image/jpeg")
	c.File(path)
}
