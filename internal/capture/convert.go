package capture

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"
)

// Converter re-encodes a finalized blob into the upload-preferred MP4
// container using an external ffmpeg binary.
type Converter struct {
	ffmpegPath string
	workDir    string
	logger     *zap.Logger
}

// NewConverter creates a converter. ffmpegPath defaults to "ffmpeg" on PATH;
// workDir defaults to the OS temp directory.
func NewConverter(ffmpegPath, workDir string, logger *zap.Logger) *Converter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if workDir == "" {
		workDir = os.TempDir()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{ffmpegPath: ffmpegPath, workDir: workDir, logger: logger}
}

// ToMP4 re-encodes data (in the container named by srcExt) into MP4 with
// H.264 video and AAC audio. Input and output go through temp files because
// MP4 muxing needs a seekable output.
func (c *Converter) ToMP4(ctx context.Context, data []byte, srcExt string) ([]byte, error) {
	in, err := os.CreateTemp(c.workDir, "capture-*."+srcExt)
	if err != nil {
		return nil, fmt.Errorf("create temp input: %w", err)
	}
	inPath := in.Name()
	defer os.Remove(inPath)

	if _, err := in.Write(data); err != nil {
		in.Close()
		return nil, fmt.Errorf("write temp input: %w", err)
	}
	if err := in.Close(); err != nil {
		return nil, fmt.Errorf("close temp input: %w", err)
	}

	outPath := filepath.Join(c.workDir, filepath.Base(inPath)+".mp4")
	defer os.Remove(outPath)

	cmd := exec.CommandContext(ctx, c.ffmpegPath,
		"-y",
		"-i", inPath,
		"-c:v", "libx264",
		"-preset", "fast",
		"-c:a", "aac",
		"-movflags", "+faststart",
		outPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		c.logger.Debug("ffmpeg output", zap.ByteString("output", out))
		return nil, fmt.Errorf("ffmpeg: %w", err)
	}

	converted, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("read converted output: %w", err)
	}
	return converted, nil
}
