package egress

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/livekit/protocol/livekit"
	"go.uber.org/zap"

	"github.com/CybraneX-team/IEDUP-LMS/config"
	"github.com/CybraneX-team/IEDUP-LMS/internal/middleware"
	"github.com/CybraneX-team/IEDUP-LMS/internal/notify"
	"github.com/CybraneX-team/IEDUP-LMS/pkg/response"
	"github.com/CybraneX-team/IEDUP-LMS/pkg/storage"
)

// Handler manages the egress recording session lifecycle for a room.
type Handler struct {
	client   Client
	lkCfg    config.LiveKitConfig
	awsCfg   config.AWSConfig
	notifier notify.Publisher // optional: recording-status broadcast
	logger   *zap.Logger
}

// NewHandler creates an egress session handler. notifier may be nil.
func NewHandler(client Client, lkCfg config.LiveKitConfig, awsCfg config.AWSConfig, notifier notify.Publisher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{client: client, lkCfg: lkCfg, awsCfg: awsCfg, notifier: notifier, logger: logger}
}

// StartResponse is the success body for Start.
type StartResponse struct {
	EgressID string `json:"egressId"`
	Status   string `json:"status"`
	RoomName string `json:"roomName"`
}

// StoppedEgress is one stopped egress in the Stop response.
type StoppedEgress struct {
	EgressID string `json:"egressId"`
	Status   string `json:"status"`
}

// StopResponse is the success body for Stop.
type StopResponse struct {
	Stopped []StoppedEgress `json:"stopped"`
}

// Start handles GET/POST /recordings/egress/start?roomName=.
// One active recording per room: a second start without an intervening stop
// yields 409. The race between two concurrent starts is resolved by the
// egress subsystem's own admission control, not by local locking.
func (h *Handler) Start(c *gin.Context) {
	if h.client == nil || !h.lkCfg.Configured() {
		response.ServiceUnavailable(c, "LiveKit server is not configured")
		return
	}
	roomName := c.Query("roomName")
	if roomName == "" {
		response.BadRequest(c, "Missing roomName")
		return
	}

	active, err := h.client.List(c.Request.Context(), &livekit.ListEgressRequest{RoomName: roomName, Active: true})
	if err != nil {
		h.logger.Error("list active egress failed", zap.Error(err), zap.String("room", roomName))
		response.Internal(c, "Failed to start recording")
		return
	}
	if len(active) > 0 {
		response.Conflict(c, "Recording already in progress")
		return
	}

	if !h.awsCfg.Configured() || h.awsCfg.AccessKeyID == "" || h.awsCfg.SecretAccessKey == "" {
		response.ServiceUnavailable(c, "Recording storage is not configured. Set AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_REGION, and AWS_S3_BUCKET.")
		return
	}

	req := &livekit.RoomCompositeEgressRequest{
		RoomName: roomName,
		Layout:   h.lkCfg.RecordingLayout,
		FileOutputs: []*livekit.EncodedFileOutput{{
			FileType: livekit.EncodedFileType_MP4,
			Filepath: storage.EgressOutputPath,
			Output: &livekit.EncodedFileOutput_S3{
				S3: &livekit.S3Upload{
					AccessKey:    h.awsCfg.AccessKeyID,
					Secret:       h.awsCfg.SecretAccessKey,
					SessionToken: h.awsCfg.SessionToken,
					Region:       h.awsCfg.Region,
					Bucket:       h.awsCfg.Bucket,
				},
			},
		}},
	}

	info, err := h.client.StartRoomComposite(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("start egress failed", zap.Error(err), zap.String("room", roomName))
		response.Internal(c, "Failed to start recording")
		return
	}

	h.publishStatus(c, roomName, notify.ActionStart, info.EgressId)
	h.logger.Info("egress started", zap.String("room", roomName), zap.String("egress_id", info.EgressId))
	response.OK(c, StartResponse{
		EgressID: info.EgressId,
		Status:   info.Status.String(),
		RoomName: info.RoomName,
	})
}

// Stop handles GET/POST /recordings/egress/stop?roomName=&egressId=.
// Resolves the target egress directly by id when given, otherwise stops all
// active egresses for the room. Stopping an already-stopped egress surfaces
// as 404 rather than silently succeeding twice.
func (h *Handler) Stop(c *gin.Context) {
	if h.client == nil || !h.lkCfg.Configured() {
		response.ServiceUnavailable(c, "LiveKit server is not configured")
		return
	}
	roomName := c.Query("roomName")
	if roomName == "" {
		response.BadRequest(c, "Missing roomName")
		return
	}

	var targets []string
	if egressID := c.Query("egressId"); egressID != "" {
		targets = []string{egressID}
	} else {
		active, err := h.client.List(c.Request.Context(), &livekit.ListEgressRequest{RoomName: roomName, Active: true})
		if err != nil {
			h.logger.Error("list active egress failed", zap.Error(err), zap.String("room", roomName))
			response.Internal(c, "Failed to stop recording")
			return
		}
		for _, item := range active {
			targets = append(targets, item.EgressId)
		}
	}
	if len(targets) == 0 {
		response.NotFound(c, "No active recording found")
		return
	}

	stopped := make([]StoppedEgress, 0, len(targets))
	for _, id := range targets {
		info, err := h.client.Stop(c.Request.Context(), id)
		if err != nil {
			if isEgressGone(err) {
				response.NotFound(c, "No active recording found")
				return
			}
			h.logger.Error("stop egress failed", zap.Error(err), zap.String("egress_id", id))
			response.Internal(c, "Failed to stop recording")
			return
		}
		stopped = append(stopped, StoppedEgress{EgressID: info.EgressId, Status: info.Status.String()})
	}

	h.publishStatus(c, roomName, notify.ActionStop, targets[0])
	h.logger.Info("egress stopped", zap.String("room", roomName), zap.Int("count", len(stopped)))
	response.OK(c, StopResponse{Stopped: stopped})
}

// publishStatus broadcasts a best-effort recording-status event to the room.
func (h *Handler) publishStatus(c *gin.Context, roomName, action, egressID string) {
	if h.notifier == nil {
		return
	}
	h.notifier.PublishRecordingStatus(roomName, notify.RecordingStatus{
		Action:       action,
		HostIdentity: c.GetString(middleware.ContextIdentity),
		HostName:     c.GetString(middleware.ContextName),
		Timestamp:    time.Now().UnixMilli(),
		RecordingID:  egressID,
	})
}

// isEgressGone reports whether an egress stop failed because the egress no
// longer exists or has already ended.
func isEgressGone(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") ||
		strings.Contains(msg, "not_found") ||
		strings.Contains(msg, "already ended") ||
		strings.Contains(msg, "egress is not active")
}
