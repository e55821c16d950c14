package capture

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/CybraneX-team/IEDUP-LMS/internal/recerr"
)

// scriptedSource emits a fixed sequence of chunks, then cancels the session
// context to end capture.
type scriptedSource struct {
	chunks [][]byte
	cancel context.CancelFunc

	mu     sync.Mutex
	next   int
	closed bool
}

func (s *scriptedSource) ReadChunk(context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next >= len(s.chunks) {
		s.cancel()
		return nil, context.Canceled
	}
	chunk := s.chunks[s.next]
	s.next++
	return chunk, nil
}

func (s *scriptedSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *scriptedSource) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func TestNegotiateContainer(t *testing.T) {
	if c := NegotiateContainer(nil); c.MimeType != MimeMP4 || c.NeedsConversion {
		t.Errorf("nil supports = %+v, want native MP4", c)
	}
	all := func(string) bool { return true }
	if c := NegotiateContainer(all); c.MimeType != MimeMP4 || c.NeedsConversion {
		t.Errorf("full support = %+v, want native MP4", c)
	}
	webmOnly := func(m string) bool { return m == MimeWebM }
	if c := NegotiateContainer(webmOnly); c.MimeType != MimeWebM || !c.NeedsConversion {
		t.Errorf("webm-only support = %+v, want WebM flagged for conversion", c)
	}
}

func TestSessionAssemblesChunks(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	source := &scriptedSource{
		chunks: [][]byte{[]byte("aaa"), []byte("bbb"), []byte("ccc")},
		cancel: cancel,
	}
	sess := NewSession("room1", "user1", source, nil, time.Millisecond, nil, nil)

	blob, err := sess.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !bytes.Equal(blob.Data, []byte("aaabbbccc")) {
		t.Errorf("blob = %q, want chunks concatenated in order", blob.Data)
	}
	if blob.RoomName != "room1" || blob.UserID != "user1" {
		t.Errorf("blob identity = %q/%q", blob.RoomName, blob.UserID)
	}
	if blob.MimeType != MimeMP4 {
		t.Errorf("blob mime = %q, want negotiated MP4", blob.MimeType)
	}
	if blob.RecordingID == "" {
		t.Error("blob has no recording id")
	}
	if !source.isClosed() {
		t.Error("capture source was not released")
	}
	if sess.State() != StateFinalizing {
		t.Errorf("state = %v, want finalizing before upload handoff", sess.State())
	}
}

// bufferedSource hands out queued chunks regardless of context state, the
// way a draining stream returns accumulated bytes after the session stops.
type bufferedSource struct {
	chunks [][]byte
	closed bool
}

func (b *bufferedSource) ReadChunk(context.Context) ([]byte, error) {
	if len(b.chunks) == 0 {
		return nil, context.Canceled
	}
	chunk := b.chunks[0]
	b.chunks = b.chunks[1:]
	return chunk, nil
}

func (b *bufferedSource) Close() error {
	b.closed = true
	return nil
}

func TestSessionDrainsTailOnStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	source := &bufferedSource{chunks: [][]byte{[]byte("tail-1"), []byte("tail-2")}}
	sess := NewSession("room1", "user1", source, nil, time.Second, nil, nil)

	blob, err := sess.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !bytes.Equal(blob.Data, []byte("tail-1tail-2")) {
		t.Errorf("blob = %q, want bytes buffered after the last tick", blob.Data)
	}
	if !source.closed {
		t.Error("capture source was not released")
	}
}

func TestSessionEmptyCapture(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	source := &scriptedSource{cancel: cancel}
	sess := NewSession("room1", "user1", source, nil, time.Millisecond, nil, nil)

	_, err := sess.Run(ctx)
	if !errors.Is(err, recerr.ErrEmptyCapture) {
		t.Fatalf("Run() error = %v, want ErrEmptyCapture", err)
	}
	if sess.State() != StateFailed {
		t.Errorf("state = %v, want failed", sess.State())
	}
	if !source.isClosed() {
		t.Error("capture source was not released on failure")
	}
}

func TestSessionReadFailureReleasesResources(t *testing.T) {
	source := &failingSource{}
	sess := NewSession("room1", "user1", source, nil, time.Millisecond, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := sess.Run(ctx); err == nil {
		t.Fatal("Run() = nil error, want device failure surfaced")
	}
	if sess.State() != StateFailed {
		t.Errorf("state = %v, want failed", sess.State())
	}
	if !source.closed {
		t.Error("capture source was not released after read failure")
	}
}

type failingSource struct {
	closed bool
}

func (f *failingSource) ReadChunk(context.Context) ([]byte, error) {
	return nil, errors.New("device lost")
}

func (f *failingSource) Close() error {
	f.closed = true
	return nil
}

func TestSessionIsSingleUse(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	source := &scriptedSource{chunks: [][]byte{[]byte("x")}, cancel: cancel}
	sess := NewSession("room1", "user1", source, nil, time.Millisecond, nil, nil)

	if _, err := sess.Run(ctx); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if _, err := sess.Run(context.Background()); err == nil {
		t.Fatal("second Run() = nil error, want rejection")
	}
}

func TestSessionLifecycleMarks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	source := &scriptedSource{chunks: [][]byte{[]byte("x")}, cancel: cancel}
	sess := NewSession("room1", "user1", source, nil, time.Millisecond, nil, nil)

	if _, err := sess.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	sess.MarkUploading()
	if sess.State() != StateUploading {
		t.Errorf("state = %v, want uploading", sess.State())
	}
	sess.MarkCompleted()
	if sess.State() != StateCompleted {
		t.Errorf("state = %v, want completed", sess.State())
	}
}

func TestPrepareWithoutConverterKeepsOriginal(t *testing.T) {
	webmOnly := func(m string) bool { return m == MimeWebM }
	sess := NewSession("room1", "user1", &failingSource{}, webmOnly, time.Millisecond, nil, nil)

	blob := &Blob{MimeType: MimeWebM, Data: []byte("original")}
	got := sess.Prepare(context.Background(), blob)
	if got.MimeType != MimeWebM || !bytes.Equal(got.Data, []byte("original")) {
		t.Errorf("Prepare() = %+v, want original blob untouched", got)
	}
}
