package catalog

import (
	"context"
	"fmt"
	"math"
	"path"
	"sort"
	"strings"

	"github.com/livekit/protocol/livekit"
	"go.uber.org/zap"
)

const (
	// legacyListLimit bounds the single storage listing page. The resolver
	// does not enumerate unbounded history in one pass.
	legacyListLimit = 1000
)

// EgressLister is the egress-subsystem surface the resolver needs.
type EgressLister interface {
	List(ctx context.Context, req *livekit.ListEgressRequest) ([]*livekit.EgressInfo, error)
}

// ObjectInfo is one raw storage object.
type ObjectInfo struct {
	Key       string
	SizeBytes int64
}

// ObjectLister is the storage surface the resolver needs.
type ObjectLister interface {
	ListRecordingObjects(ctx context.Context, maxKeys int32) ([]ObjectInfo, error)
	ObjectURL(key string) string
}

// Resolver recomputes the merged catalog on every call. It owns no
// persistent state, at the cost of re-querying both sources each time.
type Resolver struct {
	egress  EgressLister
	objects ObjectLister // optional: nil disables the legacy source
	logger  *zap.Logger
}

// NewResolver creates a catalog resolver. objects may be nil when storage
// listing is unavailable; the legacy source then resolves empty.
func NewResolver(egress EgressLister, objects ObjectLister, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{egress: egress, objects: objects, logger: logger}
}

// Resolve produces the merged recording list, newest first, plus aggregates.
// The egress source is authoritative: its failure fails the whole operation.
// The legacy storage listing is outage-tolerant: its failure degrades to an
// empty legacy set.
func (r *Resolver) Resolve(ctx context.Context, roomName string) (ListResponse, error) {
	req := &livekit.ListEgressRequest{}
	if roomName != "" {
		req.RoomName = roomName
	}
	egresses, err := r.egress.List(ctx, req)
	if err != nil {
		return ListResponse{}, fmt.Errorf("list egress: %w", err)
	}

	entries := egressEntries(egresses)

	egressKeys := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		egressKeys[e.Key] = struct{}{}
	}

	if r.objects != nil {
		objects, err := r.objects.ListRecordingObjects(ctx, legacyListLimit)
		if err != nil {
			// Secondary source: degrade to egress-only rather than failing.
			r.logger.Warn("legacy storage listing failed", zap.Error(err))
		} else {
			entries = append(entries, r.legacyEntries(objects, egressKeys)...)
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].StartedAtMs > entries[j].StartedAtMs
	})

	var summary Summary
	summary.Total = len(entries)
	for _, e := range entries {
		summary.TotalSizeBytes += e.SizeBytes
		summary.TotalDurationSeconds += e.DurationSeconds
	}
	return ListResponse{Recordings: entries, Summary: summary}, nil
}

// egressEntries flattens completed egress file results into catalog entries.
func egressEntries(egresses []*livekit.EgressInfo) []Entry {
	entries := make([]Entry, 0, len(egresses))
	for _, eg := range egresses {
		if eg.Status != livekit.EgressStatus_EGRESS_COMPLETE {
			continue
		}
		files := eg.FileResults
		if len(files) == 0 {
			if f := eg.GetFile(); f != nil {
				files = []*livekit.FileInfo{f}
			}
		}
		for i, f := range files {
			startedAtMs := toMillis(f.StartedAt)
			endedAtMs := int64(0)
			if f.EndedAt > 0 {
				endedAtMs = toMillis(f.EndedAt)
			}
			var durationSeconds int64
			if endedAtMs > startedAtMs {
				durationSeconds = int64(math.Round(float64(endedAtMs-startedAtMs) / 1000))
			} else {
				durationSeconds = toSeconds(f.Duration)
			}
			filename := f.Filename
			if filename == "" {
				filename = fmt.Sprintf("recording-%s-%d.mp4", eg.EgressId, i)
			}
			format := fileExtension(filename)
			entries = append(entries, Entry{
				ID:              fmt.Sprintf("%s-%d", eg.EgressId, i),
				RoomName:        eg.RoomName,
				Name:            strings.TrimSuffix(filename, path.Ext(filename)),
				StartedAtMs:     startedAtMs,
				DurationSeconds: durationSeconds,
				SizeBytes:       f.Size,
				URL:             f.Location,
				Filename:        filename,
				Key:             filename,
				Format:          format,
				ContentType:     contentTypeForFormat(format),
				Status:          eg.Status.String(),
			})
		}
	}
	return entries
}

// legacyEntries parses raw storage objects not already represented by an
// egress recording. Keys that fail the naming grammar are dropped.
func (r *Resolver) legacyEntries(objects []ObjectInfo, egressKeys map[string]struct{}) []Entry {
	entries := make([]Entry, 0, len(objects))
	for _, obj := range objects {
		if obj.Key == "" {
			continue
		}
		if _, dup := egressKeys[obj.Key]; dup {
			continue
		}
		parsed := ParseLegacyKey(obj.Key)
		if parsed == nil {
			continue
		}
		name := parsed.RecordingName
		if name == "" {
			name = parsed.RoomName
		}
		entries = append(entries, Entry{
			ID:              "legacy-" + parsed.RecordingID,
			RoomName:        parsed.RoomName,
			Name:            name,
			StartedAtMs:     parsed.TimestampMs,
			DurationSeconds: estimateDurationSeconds(obj.SizeBytes),
			SizeBytes:       obj.SizeBytes,
			URL:             r.objects.ObjectURL(obj.Key),
			Filename:        obj.Key,
			Key:             obj.Key,
			Format:          parsed.Format,
			ContentType:     contentTypeForFormat(parsed.Format),
			Status:          livekit.EgressStatus_EGRESS_COMPLETE.String(),
		})
	}
	return entries
}

func fileExtension(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if ext == "" {
		return "mp4"
	}
	return ext
}

func contentTypeForFormat(format string) string {
	if format == "mp4" {
		return "video/mp4"
	}
	return "video/" + format
}
