package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/livekit/protocol/livekit"
)

type fakeEgressLister struct {
	items []*livekit.EgressInfo
	err   error
	req   *livekit.ListEgressRequest
}

func (f *fakeEgressLister) List(_ context.Context, req *livekit.ListEgressRequest) ([]*livekit.EgressInfo, error) {
	f.req = req
	return f.items, f.err
}

type fakeObjectLister struct {
	objects []ObjectInfo
	err     error
}

func (f *fakeObjectLister) ListRecordingObjects(context.Context, int32) ([]ObjectInfo, error) {
	return f.objects, f.err
}

func (f *fakeObjectLister) ObjectURL(key string) string {
	return "https://bucket.example.com/" + key
}

func completedEgress(id, room, filename string, startedAtNs, endedAtNs, size int64) *livekit.EgressInfo {
	return &livekit.EgressInfo{
		EgressId: id,
		RoomName: room,
		Status:   livekit.EgressStatus_EGRESS_COMPLETE,
		FileResults: []*livekit.FileInfo{{
			Filename:  filename,
			StartedAt: startedAtNs,
			EndedAt:   endedAtNs,
			Size:      size,
			Location:  "https://bucket.example.com/" + filename,
		}},
	}
}

func TestResolveMergesSortsAndSummarizes(t *testing.T) {
	startNs := int64(1_700_000_100_000_000_000)
	eg := &fakeEgressLister{items: []*livekit.EgressInfo{
		completedEgress("EG_1", "room1", "recordings/room1-a.mp4", startNs, startNs+60_000_000_000, 2048),
	}}
	obj := &fakeObjectLister{objects: []ObjectInfo{
		{Key: "user1_room1_1700000000000_rec1.mp4", SizeBytes: 500 * 1024},
		{Key: "not-a-recording.txt", SizeBytes: 99},
	}}

	r := NewResolver(eg, obj, nil)
	got, err := r.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(got.Recordings) != 2 {
		t.Fatalf("got %d recordings, want 2", len(got.Recordings))
	}

	// Newest first: the egress recording started later than the legacy one.
	first, second := got.Recordings[0], got.Recordings[1]
	if first.Key != "recordings/room1-a.mp4" {
		t.Errorf("first entry key = %q, want egress recording", first.Key)
	}
	if first.StartedAtMs != 1_700_000_100_000 {
		t.Errorf("first StartedAtMs = %d, want 1700000100000", first.StartedAtMs)
	}
	if first.DurationSeconds != 60 {
		t.Errorf("first DurationSeconds = %d, want 60", first.DurationSeconds)
	}
	if second.Key != "user1_room1_1700000000000_rec1.mp4" {
		t.Errorf("second entry key = %q, want legacy recording", second.Key)
	}
	if second.DurationSeconds != 30 {
		t.Errorf("legacy DurationSeconds = %d, want estimated 30", second.DurationSeconds)
	}
	if second.URL != "https://bucket.example.com/user1_room1_1700000000000_rec1.mp4" {
		t.Errorf("legacy URL = %q", second.URL)
	}

	want := Summary{Total: 2, TotalSizeBytes: 2048 + 500*1024, TotalDurationSeconds: 90}
	if got.Summary != want {
		t.Errorf("Summary = %+v, want %+v", got.Summary, want)
	}
}

func TestResolveDeduplicatesByKey(t *testing.T) {
	startNs := int64(1_700_000_100_000_000_000)
	eg := &fakeEgressLister{items: []*livekit.EgressInfo{
		completedEgress("EG_1", "room1", "user1_room1_1700000000000_rec1.mp4", startNs, startNs+30_000_000_000, 1024),
	}}
	obj := &fakeObjectLister{objects: []ObjectInfo{
		{Key: "user1_room1_1700000000000_rec1.mp4", SizeBytes: 1024},
	}}

	r := NewResolver(eg, obj, nil)
	got, err := r.Resolve(context.Background(), "room1")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(got.Recordings) != 1 {
		t.Fatalf("got %d recordings, want 1 after dedup", len(got.Recordings))
	}
	if got.Recordings[0].ID != "EG_1-0" {
		t.Errorf("surviving entry = %q, want the egress-sourced one", got.Recordings[0].ID)
	}
	if eg.req.RoomName != "room1" {
		t.Errorf("room filter not forwarded, got %q", eg.req.RoomName)
	}
}

func TestResolveSkipsNonCompleteEgress(t *testing.T) {
	info := completedEgress("EG_1", "room1", "recordings/a.mp4", 1, 2, 10)
	info.Status = livekit.EgressStatus_EGRESS_ACTIVE
	eg := &fakeEgressLister{items: []*livekit.EgressInfo{info}}

	r := NewResolver(eg, &fakeObjectLister{}, nil)
	got, err := r.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(got.Recordings) != 0 {
		t.Errorf("got %d recordings, want 0 for active egress", len(got.Recordings))
	}
}

func TestResolveEgressFailurePropagates(t *testing.T) {
	eg := &fakeEgressLister{err: errors.New("egress unreachable")}
	r := NewResolver(eg, &fakeObjectLister{}, nil)
	if _, err := r.Resolve(context.Background(), ""); err == nil {
		t.Fatal("Resolve() = nil error, want egress failure to propagate")
	}
}

func TestResolveStorageFailureDegrades(t *testing.T) {
	startNs := int64(1_700_000_100_000_000_000)
	eg := &fakeEgressLister{items: []*livekit.EgressInfo{
		completedEgress("EG_1", "room1", "recordings/a.mp4", startNs, startNs+10_000_000_000, 512),
	}}
	obj := &fakeObjectLister{err: errors.New("bucket listing failed")}

	r := NewResolver(eg, obj, nil)
	got, err := r.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve() error = %v, want storage failure to degrade", err)
	}
	if len(got.Recordings) != 1 {
		t.Errorf("got %d recordings, want 1 egress-only", len(got.Recordings))
	}
}
