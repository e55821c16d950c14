package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/CybraneX-team/IEDUP-LMS/config"
	"github.com/CybraneX-team/IEDUP-LMS/internal/capture"
	"github.com/CybraneX-team/IEDUP-LMS/internal/multipart"
	"github.com/CybraneX-team/IEDUP-LMS/internal/recerr"
	"github.com/CybraneX-team/IEDUP-LMS/internal/uploader"
)

func main() {
	var (
		server   = flag.String("server", "http://localhost:8080", "coordinator base URL")
		token    = flag.String("token", os.Getenv("ACCESS_TOKEN"), "bearer token for coordinator calls")
		room     = flag.String("room", "", "room name (required)")
		user     = flag.String("user", "", "user id (required)")
		input    = flag.String("input", "", "ffmpeg input spec: device, URL, or file (required)")
		name     = flag.String("name", "", "recording display name")
		quality  = flag.String("quality", "", "quality tag: low, medium or high")
		duration = flag.Duration("duration", 0, "stop capture after this long (0 = until interrupted)")
	)
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if *room == "" || *user == "" || *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	if err := run(cfg, logger, *server, *token, *room, *user, *input, *name, *quality, *duration); err != nil {
		logger.Fatal("capture failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger, server, token, room, user, input, name, quality string, duration time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	// ffmpeg cannot mux MP4 to a pipe (the container needs seekable output),
	// so capture runs in WebM and the blob is converted before upload.
	supports := func(mimeType string) bool { return mimeType == capture.MimeWebM }

	container := capture.NegotiateContainer(supports)
	source, err := capture.NewFFmpegSource(ctx, cfg.Capture.FFmpegPath, input, extFor(container.MimeType), logger)
	if err != nil {
		return fmt.Errorf("start capture source: %w", err)
	}

	converter := capture.NewConverter(cfg.Capture.FFmpegPath, cfg.Capture.OutputDir, logger)
	session := capture.NewSession(room, user, source, supports, time.Duration(cfg.Capture.ChunkIntervalSec)*time.Second, converter, logger)

	blob, err := session.Run(ctx)
	if err != nil {
		if errors.Is(err, recerr.ErrEmptyCapture) {
			return fmt.Errorf("nothing was captured: %w", err)
		}
		return err
	}

	// Conversion and upload outlive the capture deadline.
	uploadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	blob = session.Prepare(uploadCtx, blob)
	session.MarkUploading()

	client := uploader.NewClient(server, token, logger)
	result, err := client.UploadBlob(uploadCtx, multipart.InitiateRequest{
		RecordingID:   blob.RecordingID,
		UserID:        blob.UserID,
		RoomName:      blob.RoomName,
		TimestampMs:   blob.StartedAtMs,
		RecordingName: name,
		Quality:       quality,
		ContentType:   blob.MimeType,
	}, blob.Data)
	if err != nil {
		session.MarkFailed()
		return fmt.Errorf("upload recording: %w", err)
	}
	session.MarkCompleted()

	logger.Info("recording uploaded", zap.String("key", result.Key), zap.String("url", result.URL))
	fmt.Println(result.URL)
	return nil
}

func extFor(mimeType string) string {
	if mimeType == capture.MimeWebM {
		return "webm"
	}
	return "mp4"
}
