package capture

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"go.uber.org/zap"
)

// pipeReadSize is the size of a single read from the encoder pipe.
const pipeReadSize = 64 * 1024

// streamBuffer drains an encoder pipe continuously on its own goroutine and
// hands the accumulated bytes out on demand. The encoder must never block on
// a full OS pipe waiting for the session's chunk cadence; live capture
// bitrates far exceed what one bounded read per interval could move.
type streamBuffer struct {
	rc     io.ReadCloser
	notify chan struct{}

	mu      sync.Mutex
	buf     []byte
	readErr error
}

func newStreamBuffer(rc io.ReadCloser) *streamBuffer {
	b := &streamBuffer{rc: rc, notify: make(chan struct{}, 1)}
	go b.drainLoop()
	return b
}

func (b *streamBuffer) drainLoop() {
	tmp := make([]byte, pipeReadSize)
	for {
		n, err := b.rc.Read(tmp)
		b.mu.Lock()
		if n > 0 {
			b.buf = append(b.buf, tmp[:n]...)
		}
		if err != nil {
			b.readErr = err
			b.mu.Unlock()
			b.wake()
			return
		}
		b.mu.Unlock()
		b.wake()
	}
}

func (b *streamBuffer) wake() {
	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// next returns everything accumulated since the previous call, blocking
// until at least one byte is available. After the pipe closes it returns
// context.Canceled so the session finalizes normally.
func (b *streamBuffer) next(ctx context.Context) ([]byte, error) {
	for {
		b.mu.Lock()
		if len(b.buf) > 0 {
			chunk := b.buf
			b.buf = nil
			b.mu.Unlock()
			return chunk, nil
		}
		err := b.readErr
		b.mu.Unlock()

		if err != nil {
			if err == io.EOF {
				return nil, context.Canceled
			}
			return nil, fmt.Errorf("read encoder output: %w", err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-b.notify:
		}
	}
}

func (b *streamBuffer) close() error {
	return b.rc.Close()
}

// FFmpegSource captures encoded media from an ffmpeg process writing to
// stdout. The input spec is passed through to ffmpeg (a device, an RTMP URL,
// or a file for testing).
type FFmpegSource struct {
	cmd    *exec.Cmd
	stream *streamBuffer
	logger *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// NewFFmpegSource starts ffmpeg reading from input and emitting the given
// container format on stdout. The returned source is live immediately and
// its pipe is drained continuously from this point on.
func NewFFmpegSource(ctx context.Context, ffmpegPath, input, format string, logger *zap.Logger) (*FFmpegSource, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if format == "" {
		format = "webm"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-i", input,
		"-f", format,
		"pipe:1",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}
	logger.Info("ffmpeg capture started", zap.String("input", input), zap.String("format", format))
	return &FFmpegSource{cmd: cmd, stream: newStreamBuffer(stdout), logger: logger}, nil
}

// ReadChunk returns all encoder output accumulated since the previous call.
// The background drain keeps running between calls, so the chunk cadence
// never backpressures the encoder.
func (f *FFmpegSource) ReadChunk(ctx context.Context) ([]byte, error) {
	return f.stream.next(ctx)
}

// Close stops the encoder and releases the pipe.
func (f *FFmpegSource) Close() error {
	f.closeOnce.Do(func() {
		f.stream.close()
		if f.cmd.Process != nil {
			_ = f.cmd.Process.Kill()
		}
		f.closeErr = f.cmd.Wait()
		if f.closeErr != nil {
			f.logger.Debug("ffmpeg exited", zap.Error(f.closeErr))
			f.closeErr = nil
		}
	})
	return f.closeErr
}
