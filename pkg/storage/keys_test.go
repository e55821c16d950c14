package storage_test

import (
	"testing"

	"github.com/CybraneX-team/IEDUP-LMS/internal/catalog"
	"github.com/CybraneX-team/IEDUP-LMS/pkg/storage"
)

func TestUploadKey(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			name: "minimal",
			got:  storage.UploadKey("user1", "room1", 1700000000000, "rec1", "", "", "mp4"),
			want: "user1_room1_1700000000000_rec1.mp4",
		},
		{
			name: "with quality and name",
			got:  storage.UploadKey("user1", "room1", 1700000000000, "rec1", "high", "standup", "webm"),
			want: "user1_room1_1700000000000_rec1_high__standup.webm",
		},
		{
			name: "segments sanitized",
			got:  storage.UploadKey("user_1", "my room/x", 1700000000000, "rec1", "", "daily sync", "mp4"),
			want: "user-1_my-room-x_1700000000000_rec1__daily-sync.mp4",
		},
		{
			name: "extension normalized",
			got:  storage.UploadKey("user1", "room1", 1700000000000, "rec1", "", "", ".MP4"),
			want: "user1_room1_1700000000000_rec1.mp4",
		},
		{
			name: "empty extension defaults to mp4",
			got:  storage.UploadKey("user1", "room1", 1700000000000, "rec1", "", "", ""),
			want: "user1_room1_1700000000000_rec1.mp4",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("UploadKey() = %q, want %q", tt.got, tt.want)
			}
		})
	}
}

// Every generated key must parse back under the catalog's legacy grammar.
func TestUploadKeyRoundTrip(t *testing.T) {
	key := storage.UploadKey("user1", "room1", 1700000000000, "rec1", "medium", "weekly sync", "webm")
	parsed := catalog.ParseLegacyKey(key)
	if parsed == nil {
		t.Fatalf("generated key %q does not match the legacy grammar", key)
	}
	if parsed.UserID != "user1" || parsed.RoomName != "room1" {
		t.Errorf("parsed identity = %q/%q", parsed.UserID, parsed.RoomName)
	}
	if parsed.TimestampMs != 1700000000000 {
		t.Errorf("parsed timestamp = %d", parsed.TimestampMs)
	}
	if parsed.RecordingID != "rec1" || parsed.Quality != "medium" {
		t.Errorf("parsed = %+v", parsed)
	}
	if parsed.RecordingName != "weekly-sync" {
		t.Errorf("parsed name = %q, want sanitized form", parsed.RecordingName)
	}
	if parsed.Format != "webm" {
		t.Errorf("parsed format = %q", parsed.Format)
	}
}

func TestContentTypeForKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"a.mp4", "video/mp4"},
		{"a.webm", "video/webm"},
		{"a.MKV", "video/x-matroska"},
		{"a.bin", "application/octet-stream"},
		{"noext", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := storage.ContentTypeForKey(tt.key); got != tt.want {
			t.Errorf("ContentTypeForKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
