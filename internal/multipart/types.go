// Package multipart implements the server side of the upload coordinator:
// it allocates multipart transactions with the object store, pre-issues
// presigned part URLs, and finalizes or aborts transactions. The bulk bytes
// never pass through this service; clients PUT parts directly to storage.
package multipart

import (
	"fmt"
	"sort"
	"time"

	"github.com/CybraneX-team/IEDUP-LMS/internal/recerr"
	"github.com/CybraneX-team/IEDUP-LMS/pkg/storage"
)

// InitiateRequest asks for a new multipart transaction.
type InitiateRequest struct {
	RecordingID    string `json:"recordingId"`
	UserID         string `json:"userId"`
	RoomName       string `json:"roomName"`
	TimestampMs    int64  `json:"timestampMs"`
	RecordingName  string `json:"recordingName"`
	EstimatedParts int    `json:"estimatedParts"`
	Quality        string `json:"quality"`
	ContentType    string `json:"contentType"`
}

// PresignedPart is one pre-issued part URL with its validity window.
// Parts are keyed by part number, not array position, so an estimated part
// count that diverges from the actual count cannot shift URLs off by one.
type PresignedPart struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UploadConfig tells the client how to drive the part uploads.
type UploadConfig struct {
	PartSizeBytes  int64  `json:"partSizeBytes"`
	MaxRetries     int    `json:"maxRetries"`
	RetryBackoffMs int    `json:"retryBackoffMs"`
	ContentType    string `json:"contentType"`
}

// InitiateResponse returns the allocated transaction.
type InitiateResponse struct {
	UploadID          string                  `json:"uploadId"`
	Key               string                  `json:"key"`
	PresignedPartURLs map[int32]PresignedPart `json:"presignedPartUrls"`
	MaxParts          int                     `json:"maxParts"`
	Config            UploadConfig            `json:"config"`
}

// CompleteRequest finalizes a transaction with the recorded part tags.
type CompleteRequest struct {
	UploadID string                  `json:"uploadId"`
	Key      string                  `json:"key"`
	Parts    []storage.CompletedPart `json:"parts"`
	Metadata map[string]string       `json:"metadata,omitempty"`
}

// CompleteResponse reports the finalized object.
type CompleteResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// AbortRequest cancels a transaction.
type AbortRequest struct {
	UploadID string `json:"uploadId"`
	Key      string `json:"key"`
}

// ValidatePartList checks that parts form a contiguous ascending run
// 1..N with no duplicates and non-empty tags. Completion may only be
// submitted once this holds.
func ValidatePartList(parts []storage.CompletedPart) error {
	if len(parts) == 0 {
		return fmt.Errorf("%w: no parts submitted", recerr.ErrUploadStateInvalid)
	}
	sorted := make([]storage.CompletedPart, len(parts))
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PartNumber < sorted[j].PartNumber })

	for i, p := range sorted {
		want := int32(i + 1)
		switch {
		case p.PartNumber == want && p.ETag == "":
			return fmt.Errorf("%w: part %d has no eTag", recerr.ErrUploadStateInvalid, p.PartNumber)
		case p.PartNumber < want:
			return fmt.Errorf("%w: duplicate part number %d", recerr.ErrUploadStateInvalid, p.PartNumber)
		case p.PartNumber > want:
			return fmt.Errorf("%w: missing part %d", recerr.ErrUploadStateInvalid, want)
		}
	}
	return nil
}
