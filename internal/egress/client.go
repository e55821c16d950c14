package egress

import (
	"context"
	"strings"

	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"

	"github.com/CybraneX-team/IEDUP-LMS/config"
)

// Client is the narrow egress-subsystem surface this service consumes.
// The production implementation talks to LiveKit; tests substitute a fake.
type Client interface {
	StartRoomComposite(ctx context.Context, req *livekit.RoomCompositeEgressRequest) (*livekit.EgressInfo, error)
	List(ctx context.Context, req *livekit.ListEgressRequest) ([]*livekit.EgressInfo, error)
	Stop(ctx context.Context, egressID string) (*livekit.EgressInfo, error)
}

// NormalizeHost rewrites a LiveKit websocket URL to its HTTP equivalent
// for the server API endpoint.
func NormalizeHost(url string) string {
	if strings.HasPrefix(url, "wss://") {
		return "https://" + strings.TrimPrefix(url, "wss://")
	}
	if strings.HasPrefix(url, "ws://") {
		return "http://" + strings.TrimPrefix(url, "ws://")
	}
	return url
}

type liveKitClient struct {
	inner *lksdk.EgressClient
}

// NewClient creates a LiveKit egress client from config.
func NewClient(cfg config.LiveKitConfig) Client {
	return &liveKitClient{
		inner: lksdk.NewEgressClient(NormalizeHost(cfg.URL), cfg.APIKey, cfg.APISecret),
	}
}

func (c *liveKitClient) StartRoomComposite(ctx context.Context, req *livekit.RoomCompositeEgressRequest) (*livekit.EgressInfo, error) {
	return c.inner.StartRoomCompositeEgress(ctx, req)
}

func (c *liveKitClient) List(ctx context.Context, req *livekit.ListEgressRequest) ([]*livekit.EgressInfo, error) {
	res, err := c.inner.ListEgress(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (c *liveKitClient) Stop(ctx context.Context, egressID string) (*livekit.EgressInfo, error) {
	return c.inner.StopEgress(ctx, &livekit.StopEgressRequest{EgressId: egressID})
}
