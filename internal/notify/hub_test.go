package notify

import (
	"encoding/json"
	"testing"
)

type fakeRoomPublisher struct {
	rooms    []string
	events   []string
	payloads [][]byte
	err      error
}

func (f *fakeRoomPublisher) PublishRoomEvent(roomName, event string, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.rooms = append(f.rooms, roomName)
	f.events = append(f.events, event)
	f.payloads = append(f.payloads, payload)
	return nil
}

func TestPublishRecordingStatusFansOutViaRedis(t *testing.T) {
	pub := &fakeRoomPublisher{}
	hub := NewHub(nil, pub, nil)

	status := RecordingStatus{
		Action:       ActionStart,
		HostIdentity: "user1",
		HostName:     "User One",
		Timestamp:    1700000000000,
		RecordingID:  "EG_1",
	}
	hub.PublishRecordingStatus("room1", status)

	if len(pub.rooms) != 1 || pub.rooms[0] != "room1" {
		t.Fatalf("published rooms = %v, want [room1]", pub.rooms)
	}
	if pub.events[0] != EventRecordingStatus {
		t.Errorf("event = %q, want %q", pub.events[0], EventRecordingStatus)
	}
	var got RecordingStatus
	if err := json.Unmarshal(pub.payloads[0], &got); err != nil {
		t.Fatal(err)
	}
	if got != status {
		t.Errorf("payload = %+v, want %+v", got, status)
	}
}

func TestPublishRecordingStatusWithoutRedis(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	// Must not panic with no Redis bridge and no connected clients.
	hub.PublishRecordingStatus("room1", RecordingStatus{Action: ActionStop})
}

func TestRoomCount(t *testing.T) {
	hub := NewHub(nil, nil, nil)
	if n := hub.RoomCount("room1"); n != 0 {
		t.Errorf("RoomCount = %d, want 0", n)
	}

	c := &Client{ID: "c1", RoomName: "room1", send: make(chan WSMessage, 1)}
	hub.Register(c)
	if n := hub.RoomCount("room1"); n != 1 {
		t.Errorf("RoomCount = %d, want 1", n)
	}

	// A registered client receives local broadcasts.
	hub.PublishRecordingStatus("room1", RecordingStatus{Action: ActionStart})
	select {
	case msg := <-c.send:
		if msg.Event != EventRecordingStatus {
			t.Errorf("event = %q", msg.Event)
		}
	default:
		t.Error("registered client received no broadcast")
	}

	hub.Unregister(c)
	if n := hub.RoomCount("room1"); n != 0 {
		t.Errorf("RoomCount = %d after unregister, want 0", n)
	}
}
