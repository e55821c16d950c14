package storage

import (
	"fmt"
	"strings"
)

// EgressOutputPath is the managed egress output template. The egress
// subsystem substitutes {room_name} and {time} itself.
const EgressOutputPath = FolderRecordings + "/{room_name}-{time}.mp4"

// UploadKey builds the deterministic object key for a coordinator-driven upload:
// {userId}_{roomName}_{timestampMs}_{recordingId}[_{quality}][__{name}].{ext}.
// Quality and name are optional; name is separated by a double underscore so
// it can be told apart from the quality segment when parsing.
func UploadKey(userID, roomName string, timestampMs int64, recordingID, quality, name, ext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s_%s_%d_%s", sanitizeSegment(userID), sanitizeSegment(roomName), timestampMs, sanitizeSegment(recordingID))
	if quality != "" {
		b.WriteString("_" + sanitizeSegment(quality))
	}
	if name != "" {
		b.WriteString("__" + sanitizeSegment(name))
	}
	if ext == "" {
		ext = "mp4"
	}
	b.WriteString("." + strings.TrimPrefix(strings.ToLower(ext), "."))
	return b.String()
}

// sanitizeSegment strips characters that would corrupt the key grammar.
func sanitizeSegment(s string) string {
	s = strings.TrimSpace(s)
	replacer := strings.NewReplacer("_", "-", "/", "-", "\\", "-", " ", "-")
	return replacer.Replace(s)
}
