package catalog

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/CybraneX-team/IEDUP-LMS/pkg/response"
	"github.com/CybraneX-team/IEDUP-LMS/pkg/storage"
)

// Handler serves the recording catalog.
type Handler struct {
	resolver   *Resolver
	configured bool
	logger     *zap.Logger
}

// NewHandler creates a catalog handler. configured reports whether the
// egress subsystem credentials are present; without them the catalog cannot
// be resolved at all.
func NewHandler(resolver *Resolver, configured bool, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{resolver: resolver, configured: configured, logger: logger}
}

// List handles GET /recordings/list?roomName=. Role gating happens in
// middleware; by the time we are here the caller is a verified host.
func (h *Handler) List(c *gin.Context) {
	if !h.configured {
		response.ServiceUnavailable(c, "LiveKit server is not configured")
		return
	}
	result, err := h.resolver.Resolve(c.Request.Context(), c.Query("roomName"))
	if err != nil {
		h.logger.Error("resolve catalog failed", zap.Error(err))
		response.Internal(c, "Failed to fetch recordings")
		return
	}
	response.OK(c, result)
}

// StoreLister adapts *storage.S3 to the resolver's ObjectLister.
type StoreLister struct {
	Store *storage.S3
}

// ListRecordingObjects lists one page of raw bucket objects.
func (s StoreLister) ListRecordingObjects(ctx context.Context, maxKeys int32) ([]ObjectInfo, error) {
	objects, err := s.Store.ListObjects(ctx, maxKeys)
	if err != nil {
		return nil, err
	}
	out := make([]ObjectInfo, 0, len(objects))
	for _, obj := range objects {
		out = append(out, ObjectInfo{Key: obj.Key, SizeBytes: obj.SizeBytes})
	}
	return out, nil
}

// ObjectURL returns the public URL for a legacy object.
func (s StoreLister) ObjectURL(key string) string {
	return s.Store.PublicObjectURL(key)
}
