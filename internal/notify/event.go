// Package notify broadcasts recording-status events to meeting participants.
// Delivery is best-effort: failures are logged, never escalated, and no
// correctness depends on an event arriving.
package notify

// Recording status actions.
const (
	ActionStart = "start"
	ActionStop  = "stop"
)

// EventRecordingStatus is the event name for recording start/stop broadcasts.
const EventRecordingStatus = "recording_status"

// RecordingStatus is the payload broadcast to a room when recording
// starts or stops.
type RecordingStatus struct {
	Action        string `json:"action"`
	HostIdentity  string `json:"hostIdentity"`
	HostName      string `json:"hostName"`
	Timestamp     int64  `json:"timestamp"`
	RecordingID   string `json:"recordingId"`
	RecordingName string `json:"recordingName,omitempty"`
}

// Publisher delivers a recording-status event to a room's participants.
type Publisher interface {
	PublishRecordingStatus(roomName string, status RecordingStatus)
}
