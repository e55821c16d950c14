package notify

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// RoomPublisher publishes to Redis for cross-instance broadcast.
type RoomPublisher interface {
	PublishRoomEvent(roomName, event string, payload []byte) error
}

// RoomSubscriber subscribes to room channels and invokes handler for incoming events.
type RoomSubscriber interface {
	SubscribeRoom(roomName string, handler func(event string, payload []byte)) (cancel func(), err error)
}

// Hub maintains roomName -> set of websocket connections and broadcasts
// recording-status events. Redis pub/sub fans events out across instances.
type Hub struct {
	rooms    map[string]map[string]*Client
	subs     map[string]func() // cancel Redis subscription per room
	mu       sync.RWMutex
	logger   *zap.Logger
	redisPub RoomPublisher
	redisSub RoomSubscriber
}

// NewHub creates a new websocket hub. redisPub/redisSub may be nil for
// single-instance deployments.
func NewHub(logger *zap.Logger, redisPub RoomPublisher, redisSub RoomSubscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:    make(map[string]map[string]*Client),
		subs:     make(map[string]func()),
		logger:   logger,
		redisPub: redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to a room. Starts the Redis subscription for the
// room when the first client joins.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.RoomName] == nil {
		h.rooms[c.RoomName] = make(map[string]*Client)
		if h.redisSub != nil {
			cancel, err := h.redisSub.SubscribeRoom(c.RoomName, func(event string, payload []byte) {
				h.broadcastLocal(c.RoomName, event, payload)
			})
			if err == nil {
				h.subs[c.RoomName] = cancel
			}
		}
	}
	h.rooms[c.RoomName][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined room", zap.String("client_id", c.ID), zap.String("room", c.RoomName))
}

// Unregister removes a client from a room. Cancels the Redis subscription
// when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.rooms[c.RoomName]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.rooms, c.RoomName)
			if cancel, ok := h.subs[c.RoomName]; ok {
				cancel()
				delete(h.subs, c.RoomName)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left room", zap.String("client_id", c.ID), zap.String("room", c.RoomName))
}

// RoomCount returns the number of connected clients in a room.
func (h *Hub) RoomCount(roomName string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomName])
}

// PublishRecordingStatus implements Publisher: local broadcast plus Redis
// publish so participants on other instances see the event too.
func (h *Hub) PublishRecordingStatus(roomName string, status RecordingStatus) {
	data, err := json.Marshal(status)
	if err != nil {
		return
	}
	h.broadcastLocal(roomName, EventRecordingStatus, data)
	if h.redisPub != nil {
		if err := h.redisPub.PublishRoomEvent(roomName, EventRecordingStatus, data); err != nil {
			h.logger.Warn("recording status publish failed", zap.String("room", roomName), zap.Error(err))
		}
	}
}

// broadcastLocal sends an event to all local clients in a room.
func (h *Hub) broadcastLocal(roomName, event string, payload []byte) {
	msg := WSMessage{Event: event, Data: payload}

	h.mu.RLock()
	clients := h.rooms[roomName]
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}
