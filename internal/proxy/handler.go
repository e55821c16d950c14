// Package proxy serves stored recording bytes back to clients, honoring
// byte-range requests for playback and attachment responses for download.
// Bytes stream directly from storage to the response writer; large objects
// are never buffered in memory.
package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/CybraneX-team/IEDUP-LMS/pkg/response"
	"github.com/CybraneX-team/IEDUP-LMS/pkg/storage"
)

// Recording objects are immutable once written, so clients may cache them
// indefinitely.
const cacheControl = "public, max-age=31536000, immutable"

// ObjectStore is the storage surface the proxy reads from.
type ObjectStore interface {
	Head(ctx context.Context, key string) (storage.ObjectMeta, error)
	GetObject(ctx context.Context, key, byteRange string) (io.ReadCloser, storage.ObjectMeta, error)
}

// Handler serves GET /recordings/stream and GET /recordings/download.
type Handler struct {
	store  ObjectStore
	logger *zap.Logger
}

// NewHandler creates a streaming proxy handler.
func NewHandler(store ObjectStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// Stream handles GET /recordings/stream?key=. Serves 200 with the full body,
// or 206 with the requested span when a Range header is present.
func (h *Handler) Stream(c *gin.Context) {
	h.serve(c, false)
}

// Download handles GET /recordings/download?key=. Same fetch as Stream but
// forces an attachment disposition.
func (h *Handler) Download(c *gin.Context) {
	h.serve(c, true)
}

func (h *Handler) serve(c *gin.Context, attachment bool) {
	if h.store == nil {
		response.ServiceUnavailable(c, "Recording storage is not configured")
		return
	}
	key := c.Query("key")
	if key == "" {
		response.BadRequest(c, "Missing key parameter")
		return
	}
	ctx := c.Request.Context()

	meta, err := h.store.Head(ctx, key)
	if err != nil {
		if storage.IsNotFound(err) {
			response.NotFound(c, "Recording not found")
			return
		}
		h.logger.Error("head object failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "Failed to fetch recording")
		return
	}

	contentType := meta.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = storage.ContentTypeForKey(key)
	}

	rng, ranged, err := parseRange(c.GetHeader("Range"), meta.SizeBytes)
	if err != nil {
		c.Header("Content-Range", fmt.Sprintf("bytes */%d", meta.SizeBytes))
		c.Status(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	spec := ""
	if ranged {
		spec = rng.Spec()
	}
	body, _, err := h.store.GetObject(ctx, key, spec)
	if err != nil {
		if storage.IsNotFound(err) {
			response.NotFound(c, "Recording not found")
			return
		}
		h.logger.Error("get object failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "Failed to fetch recording")
		return
	}
	defer body.Close()

	c.Header("Content-Type", contentType)
	c.Header("Accept-Ranges", "bytes")
	c.Header("Cache-Control", cacheControl)
	if attachment {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	}

	status := http.StatusOK
	length := meta.SizeBytes
	if ranged {
		status = http.StatusPartialContent
		length = rng.Length()
		c.Header("Content-Range", rng.ContentRange(meta.SizeBytes))
	}
	c.Header("Content-Length", strconv.FormatInt(length, 10))
	c.Status(status)

	// Copy directly from storage to the client. A client disconnect cancels
	// the request context and aborts the in-flight storage read.
	if _, err := io.Copy(c.Writer, body); err != nil {
		h.logger.Debug("stream interrupted", zap.Error(err), zap.String("key", key))
	}
}
