// Package capture records a live audio/video source into time-sliced chunks
// and assembles them into one finalized blob at session end. Upload is
// deferred until capture fully ends; capture and upload are sequential
// phases, never concurrent.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CybraneX-team/IEDUP-LMS/internal/recerr"
)

// State is the capture session lifecycle state.
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateFinalizing
	StateUploading
	StateCompleted
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateFinalizing:
		return "finalizing"
	case StateUploading:
		return "uploading"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Source is a live capture device. ReadChunk blocks until the next chunk of
// encoded media is available or the context is cancelled. Close must release
// all underlying device resources (video/audio tracks) and is always called
// on session end, success or failure.
type Source interface {
	ReadChunk(ctx context.Context) ([]byte, error)
	Close() error
}

// SupportsFunc reports whether the capture device can natively encode a
// given container MIME type. Nil means "supports everything".
type SupportsFunc func(mimeType string) bool

// Blob is the finalized capture output handed to the upload phase.
type Blob struct {
	RecordingID string
	RoomName    string
	UserID      string
	MimeType    string
	StartedAtMs int64
	Data        []byte
}

// Session owns one capture run. Chunks are owned exclusively by the session
// until finalized and are released on every exit path.
type Session struct {
	ID        string
	RoomName  string
	UserID    string
	Container Container

	source    Source
	interval  time.Duration
	converter *Converter
	logger    *zap.Logger

	mu        sync.Mutex
	state     State
	chunks    [][]byte
	startedAt time.Time
}

// NewSession creates an idle capture session. converter may be nil, in which
// case a blob flagged for conversion is uploaded in its recorded container.
func NewSession(roomName, userID string, source Source, supports SupportsFunc, interval time.Duration, converter *Converter, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Session{
		ID:        uuid.New().String(),
		RoomName:  roomName,
		UserID:    userID,
		Container: NegotiateContainer(supports),
		source:    source,
		interval:  interval,
		converter: converter,
		logger:    logger,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run captures chunks until ctx is cancelled, then finalizes and returns the
// assembled blob. The source is always closed before Run returns. A session
// is single-use; Run on a non-idle session fails.
func (s *Session) Run(ctx context.Context) (*Blob, error) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return nil, fmt.Errorf("capture session is %s, expected idle", s.state)
	}
	s.state = StateCapturing
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("capture started",
		zap.String("recording_id", s.ID),
		zap.String("room", s.RoomName),
		zap.String("mime_type", s.Container.MimeType),
		zap.Bool("needs_conversion", s.Container.NeedsConversion),
	)

	defer func() {
		if err := s.source.Close(); err != nil {
			s.logger.Warn("capture source close failed", zap.Error(err))
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.drain(ctx)
			return s.finalize()
		case <-ticker.C:
			chunk, err := s.source.ReadChunk(ctx)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return s.finalize()
				}
				s.fail()
				return nil, fmt.Errorf("read chunk: %w", err)
			}
			if len(chunk) > 0 {
				s.mu.Lock()
				s.chunks = append(s.chunks, chunk)
				s.mu.Unlock()
			}
		}
	}
}

// drain collects whatever the source buffered between the last tick and
// session end, so the tail of the recording is not dropped. Sources return
// buffered data even under a cancelled context, then report the cancel.
func (s *Session) drain(ctx context.Context) {
	for {
		chunk, err := s.source.ReadChunk(ctx)
		if len(chunk) > 0 {
			s.mu.Lock()
			s.chunks = append(s.chunks, chunk)
			s.mu.Unlock()
		}
		if err != nil || len(chunk) == 0 {
			return
		}
	}
}

// finalize concatenates all chunks into one blob and releases the chunk
// buffer. Zero captured bytes fails the session with EmptyCapture.
func (s *Session) finalize() (*Blob, error) {
	s.mu.Lock()
	s.state = StateFinalizing
	chunks := s.chunks
	s.chunks = nil
	s.mu.Unlock()

	var total int
	for _, c := range chunks {
		total += len(c)
	}
	if total == 0 {
		s.fail()
		return nil, recerr.ErrEmptyCapture
	}

	var buf bytes.Buffer
	buf.Grow(total)
	for _, c := range chunks {
		buf.Write(c)
	}

	blob := &Blob{
		RecordingID: s.ID,
		RoomName:    s.RoomName,
		UserID:      s.UserID,
		MimeType:    s.Container.MimeType,
		StartedAtMs: s.startedAt.UnixMilli(),
		Data:        buf.Bytes(),
	}
	s.logger.Info("capture finalized",
		zap.String("recording_id", s.ID),
		zap.Int("chunks", len(chunks)),
		zap.Int("bytes", total),
	)
	return blob, nil
}

// Prepare converts a blob to the preferred container when the negotiated one
// was a fallback. Conversion failure keeps the original bytes; the recording
// is never lost over a failed re-encode.
func (s *Session) Prepare(ctx context.Context, blob *Blob) *Blob {
	if !s.Container.NeedsConversion || s.converter == nil {
		return blob
	}
	converted, err := s.converter.ToMP4(ctx, blob.Data, extensionForMime(blob.MimeType))
	if err != nil {
		s.logger.Warn("container conversion failed, uploading original", zap.Error(err), zap.String("recording_id", s.ID))
		return blob
	}
	out := *blob
	out.MimeType = MimeMP4
	out.Data = converted
	return &out
}

// MarkUploading records the handoff to the upload coordinator.
func (s *Session) MarkUploading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateUploading
}

// MarkCompleted records a successful upload.
func (s *Session) MarkCompleted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateCompleted
}

// MarkFailed records an irrecoverable failure and releases any buffered chunks.
func (s *Session) MarkFailed() { s.fail() }

func (s *Session) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateFailed
	s.chunks = nil
}
