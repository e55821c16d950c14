package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

// Legacy naming grammar for coordinator-driven uploads:
// {userId}_{roomName}_{timestampMs}_{recordingId}[_{quality}][__{recordingName}].{ext}
var legacyKeyPattern = regexp.MustCompile(
	`(?i)^(.+?)_(.+?)_(\d+)_(.+?)(?:_(low|medium|high))?(?:__(.+?))?\.(webm|mp4)$`,
)

// LegacyRecording is the parse result of a raw storage key.
type LegacyRecording struct {
	UserID        string
	RoomName      string
	TimestampMs   int64
	RecordingID   string
	Quality       string
	RecordingName string
	Format        string
}

// ParseLegacyKey parses a storage object key against the legacy naming
// grammar. Keys that do not match are not recordings and yield nil; they
// must be excluded, never defaulted.
func ParseLegacyKey(key string) *LegacyRecording {
	m := legacyKeyPattern.FindStringSubmatch(key)
	if m == nil {
		return nil
	}
	ts, err := strconv.ParseInt(m[3], 10, 64)
	if err != nil {
		return nil
	}
	format := strings.ToLower(m[7])
	if format == "" {
		format = "mp4"
	}
	return &LegacyRecording{
		UserID:        m[1],
		RoomName:      m[2],
		TimestampMs:   ts,
		RecordingID:   m[4],
		Quality:       m[5],
		RecordingName: m[6],
		Format:        format,
	}
}
