package multipart

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/CybraneX-team/IEDUP-LMS/config"
	"github.com/CybraneX-team/IEDUP-LMS/internal/recerr"
	"github.com/CybraneX-team/IEDUP-LMS/pkg/queue"
	"github.com/CybraneX-team/IEDUP-LMS/pkg/response"
	"github.com/CybraneX-team/IEDUP-LMS/pkg/storage"
)

// Store is the object-store surface the coordinator needs.
type Store interface {
	CreateMultipart(ctx context.Context, key, contentType string) (string, error)
	PresignUploadPart(ctx context.Context, key, uploadID string, partNumber int32, expires time.Duration) (string, error)
	ListParts(ctx context.Context, key, uploadID string) ([]storage.CompletedPart, error)
	CompleteMultipart(ctx context.Context, key, uploadID string, parts []storage.CompletedPart) error
	AbortMultipart(ctx context.Context, key, uploadID string) error
	PresignExpire() time.Duration
	PublicObjectURL(key string) string
	Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// AbortQueue re-schedules aborts that failed inline. Optional.
type AbortQueue interface {
	EnqueueAbort(ctx context.Context, payload queue.AbortUploadPayload) error
}

// Handler serves the multipart upload coordinator endpoints.
type Handler struct {
	store  Store
	cfg    config.UploadConfig
	aborts AbortQueue // optional
	logger *zap.Logger
}

// NewHandler creates a multipart coordinator handler. aborts may be nil.
func NewHandler(store Store, cfg config.UploadConfig, aborts AbortQueue, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, cfg: cfg, aborts: aborts, logger: logger}
}

// Initiate handles POST /recordings/multipart/initiate. Presigned part URLs
// are issued eagerly, one per estimated part, because the client uploads
// directly to storage and never sends bulk bytes through this service.
func (h *Handler) Initiate(c *gin.Context) {
	if h.store == nil {
		response.ServiceUnavailable(c, "Recording storage is not configured")
		return
	}
	var req InitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if req.RecordingID == "" || req.UserID == "" || req.RoomName == "" {
		response.BadRequest(c, "Missing recordingId, userId or roomName")
		return
	}
	if req.EstimatedParts <= 0 {
		response.BadRequest(c, "estimatedParts must be positive")
		return
	}
	if req.EstimatedParts > h.cfg.MaxParts {
		response.BadRequest(c, "estimatedParts exceeds the allowed maximum")
		return
	}
	if req.TimestampMs <= 0 {
		req.TimestampMs = time.Now().UnixMilli()
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "video/mp4"
	}

	key := storage.UploadKey(req.UserID, req.RoomName, req.TimestampMs, req.RecordingID, req.Quality, req.RecordingName, extensionFor(contentType))
	ctx := c.Request.Context()

	uploadID, err := h.store.CreateMultipart(ctx, key, contentType)
	if err != nil {
		h.logger.Error("create multipart failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "Failed to initiate upload")
		return
	}

	expires := h.store.PresignExpire()
	expiresAt := time.Now().Add(expires)
	urls := make(map[int32]PresignedPart, req.EstimatedParts)
	for n := int32(1); n <= int32(req.EstimatedParts); n++ {
		u, err := h.store.PresignUploadPart(ctx, key, uploadID, n, expires)
		if err != nil {
			h.logger.Error("presign part failed", zap.Error(err), zap.String("key", key), zap.Int32("part", n))
			h.abort(ctx, key, uploadID)
			response.Internal(c, "Failed to initiate upload")
			return
		}
		urls[n] = PresignedPart{URL: u, ExpiresAt: expiresAt}
	}

	h.logger.Info("multipart initiated",
		zap.String("upload_id", uploadID),
		zap.String("key", key),
		zap.Int("parts", req.EstimatedParts),
	)
	response.OK(c, InitiateResponse{
		UploadID:          uploadID,
		Key:               key,
		PresignedPartURLs: urls,
		MaxParts:          h.cfg.MaxParts,
		Config: UploadConfig{
			PartSizeBytes:  h.cfg.PartSizeBytes,
			MaxRetries:     h.cfg.MaxRetries,
			RetryBackoffMs: h.cfg.RetryBackoffMs,
			ContentType:    contentType,
		},
	})
}

// Complete handles POST /recordings/multipart/complete. The part list must
// be contiguous 1..N; completion is a one-way transition and the object
// becomes readable under key on success.
func (h *Handler) Complete(c *gin.Context) {
	if h.store == nil {
		response.ServiceUnavailable(c, "Recording storage is not configured")
		return
	}
	var req CompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if req.UploadID == "" || req.Key == "" {
		response.BadRequest(c, "Missing uploadId or key")
		return
	}
	if err := ValidatePartList(req.Parts); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	// A contiguous list can still be short: the backend finalizes any subset
	// of uploaded parts, so a truncated submit has to be caught here against
	// what storage actually holds.
	uploaded, err := h.store.ListParts(c.Request.Context(), req.Key, req.UploadID)
	if err != nil {
		if storage.IsNotFound(err) {
			response.NotFound(c, "Upload not found or already finalized")
			return
		}
		h.logger.Error("list parts failed", zap.Error(err), zap.String("upload_id", req.UploadID))
		response.Internal(c, "Failed to complete upload")
		return
	}
	if len(req.Parts) < len(uploaded) {
		response.BadRequest(c, fmt.Errorf("%w: submitted %d of %d uploaded parts", recerr.ErrUploadStateInvalid, len(req.Parts), len(uploaded)).Error())
		return
	}

	if err := h.store.CompleteMultipart(c.Request.Context(), req.Key, req.UploadID, req.Parts); err != nil {
		if storage.IsNotFound(err) {
			response.NotFound(c, "Upload not found or already finalized")
			return
		}
		h.logger.Error("complete multipart failed", zap.Error(err), zap.String("upload_id", req.UploadID))
		response.Internal(c, "Failed to complete upload")
		return
	}

	h.logger.Info("multipart completed", zap.String("upload_id", req.UploadID), zap.String("key", req.Key), zap.Int("parts", len(req.Parts)))
	response.OK(c, CompleteResponse{Key: req.Key, URL: h.store.PublicObjectURL(req.Key)})
}

// Abort handles POST /recordings/multipart/abort. Abort is a failure-recovery
// path: cleanup errors are logged and re-queued, never surfaced, so the
// caller's own error reporting is not blocked.
func (h *Handler) Abort(c *gin.Context) {
	if h.store == nil {
		response.ServiceUnavailable(c, "Recording storage is not configured")
		return
	}
	var req AbortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if req.UploadID == "" || req.Key == "" {
		response.BadRequest(c, "Missing uploadId or key")
		return
	}

	h.abort(c.Request.Context(), req.Key, req.UploadID)
	response.OK(c, gin.H{"aborted": true})
}

// UploadLegacy handles POST /recordings/upload: the single-shot path for
// blobs smaller than one multipart part, written under the same key grammar.
func (h *Handler) UploadLegacy(c *gin.Context) {
	if h.store == nil {
		response.ServiceUnavailable(c, "Recording storage is not configured")
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, "Missing file")
		return
	}
	defer file.Close()

	recordingID := c.PostForm("recordingId")
	userID := c.PostForm("userId")
	roomName := c.PostForm("roomName")
	if recordingID == "" || userID == "" || roomName == "" {
		response.BadRequest(c, "Missing recordingId, userId or roomName")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}
	key := storage.UploadKey(userID, roomName, time.Now().UnixMilli(), recordingID, c.PostForm("quality"), c.PostForm("recordingName"), extensionFor(contentType))

	url, err := h.store.Upload(c.Request.Context(), key, contentType, file)
	if err != nil {
		h.logger.Error("legacy upload failed", zap.Error(err), zap.String("key", key))
		response.Internal(c, "Failed to upload recording")
		return
	}
	response.OK(c, gin.H{"key": key, "url": url})
}

// abort performs a best-effort abort, queueing a retry job on failure.
func (h *Handler) abort(ctx context.Context, key, uploadID string) {
	err := h.store.AbortMultipart(ctx, key, uploadID)
	if err == nil || storage.IsNotFound(err) {
		return
	}
	h.logger.Warn("abort multipart failed", zap.Error(err), zap.String("upload_id", uploadID), zap.String("key", key))
	if h.aborts != nil {
		if qErr := h.aborts.EnqueueAbort(ctx, queue.AbortUploadPayload{UploadID: uploadID, Key: key}); qErr != nil {
			h.logger.Error("enqueue abort retry failed", zap.Error(qErr), zap.String("upload_id", uploadID))
		}
	}
}

// extensionFor maps a declared content type to the key extension.
func extensionFor(contentType string) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "webm"):
		return "webm"
	case strings.Contains(ct, "matroska"):
		return "mkv"
	default:
		return "mp4"
	}
}
