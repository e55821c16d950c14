// Package catalog resolves the unified list of completed recordings from two
// sources: the managed egress subsystem (authoritative) and raw storage
// listing (legacy uploads). The merge is keyed by storage key; a key already
// represented by an egress recording never reappears as a legacy entry.
package catalog

// Entry is the unified, client-facing recording shape.
type Entry struct {
	ID              string `json:"id"`
	RoomName        string `json:"roomName"`
	Name            string `json:"name"`
	StartedAtMs     int64  `json:"startedAtMs"`
	DurationSeconds int64  `json:"durationSeconds"`
	SizeBytes       int64  `json:"sizeBytes"`
	URL             string `json:"url"`
	Filename        string `json:"filename"`
	Key             string `json:"key"`
	Format          string `json:"format"`
	ContentType     string `json:"contentType"`
	Status          string `json:"status"`
}

// Summary aggregates the resolved catalog.
type Summary struct {
	Total                int   `json:"total"`
	TotalSizeBytes       int64 `json:"totalSizeBytes"`
	TotalDurationSeconds int64 `json:"totalDurationSeconds"`
}

// ListResponse is the catalog endpoint body.
type ListResponse struct {
	Recordings []Entry `json:"recordings"`
	Summary    Summary `json:"summary"`
}
