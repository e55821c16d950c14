package catalog

import "testing"

func TestParseLegacyKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want *LegacyRecording
	}{
		{
			name: "basic key",
			key:  "user1_room1_1700000000000_rec1.mp4",
			want: &LegacyRecording{
				UserID: "user1", RoomName: "room1", TimestampMs: 1700000000000,
				RecordingID: "rec1", Format: "mp4",
			},
		},
		{
			name: "with quality",
			key:  "user1_room1_1700000000000_rec1_high.webm",
			want: &LegacyRecording{
				UserID: "user1", RoomName: "room1", TimestampMs: 1700000000000,
				RecordingID: "rec1", Quality: "high", Format: "webm",
			},
		},
		{
			name: "with quality and name",
			key:  "user1_room1_1700000000000_rec1_low__standup.mp4",
			want: &LegacyRecording{
				UserID: "user1", RoomName: "room1", TimestampMs: 1700000000000,
				RecordingID: "rec1", Quality: "low", RecordingName: "standup", Format: "mp4",
			},
		},
		{
			name: "with name only",
			key:  "user1_room1_1700000000000_rec1__weekly-sync.mp4",
			want: &LegacyRecording{
				UserID: "user1", RoomName: "room1", TimestampMs: 1700000000000,
				RecordingID: "rec1", RecordingName: "weekly-sync", Format: "mp4",
			},
		},
		{
			name: "uppercase extension",
			key:  "user1_room1_1700000000000_rec1.MP4",
			want: &LegacyRecording{
				UserID: "user1", RoomName: "room1", TimestampMs: 1700000000000,
				RecordingID: "rec1", Format: "mp4",
			},
		},
		{name: "missing timestamp segment", key: "user1_room1_rec1.mp4", want: nil},
		{name: "unsupported extension", key: "user1_room1_1700000000000_rec1.avi", want: nil},
		{name: "egress output path", key: "recordings/room1-2024-01-01.mp4", want: nil},
		{name: "empty", key: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLegacyKey(tt.key)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("ParseLegacyKey(%q) = %+v, want nil", tt.key, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseLegacyKey(%q) = nil, want %+v", tt.key, tt.want)
			}
			if *got != *tt.want {
				t.Errorf("ParseLegacyKey(%q) = %+v, want %+v", tt.key, got, tt.want)
			}
		})
	}
}
