// Package janitor cleans up multipart upload state that outlived its client:
// it drains the abort retry queue and periodically sweeps the bucket for
// stale in-progress uploads whose presigned URLs have long expired.
package janitor

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/CybraneX-team/IEDUP-LMS/pkg/queue"
	"github.com/CybraneX-team/IEDUP-LMS/pkg/storage"
)

const (
	dequeueTimeout = 5 * time.Second
	// staleFactor times the presign window must pass before an open upload
	// is considered abandoned.
	staleFactor = 2
)

// Store is the storage surface the janitor needs.
type Store interface {
	AbortMultipart(ctx context.Context, key, uploadID string) error
	ListOpenUploads(ctx context.Context) ([]storage.OpenUpload, error)
	PresignExpire() time.Duration
}

// Jobs is the retry-queue surface the janitor drains.
type Jobs interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// Worker runs the cleanup loops.
type Worker struct {
	store         Store
	jobs          Jobs
	sweepInterval time.Duration
	logger        *zap.Logger
}

// NewWorker creates a janitor. jobs may be nil when Redis is disabled; the
// sweep still runs.
func NewWorker(store Store, jobs Jobs, sweepInterval time.Duration, logger *zap.Logger) *Worker {
	if sweepInterval <= 0 {
		sweepInterval = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{store: store, jobs: jobs, sweepInterval: sweepInterval, logger: logger}
}

// Run blocks until ctx is cancelled, draining abort jobs and sweeping stale
// uploads.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("janitor started", zap.Duration("sweep_interval", w.sweepInterval))

	if w.jobs != nil {
		go w.drainJobs(ctx)
	}

	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("janitor stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Worker) drainJobs(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		job, err := w.jobs.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Warn("dequeue failed", zap.Error(err))
			time.Sleep(dequeueTimeout)
			continue
		}
		if job == nil {
			continue
		}
		w.handleJob(ctx, job)
	}
}

func (w *Worker) handleJob(ctx context.Context, job *queue.Job) {
	if job.Type != queue.JobTypeAbortUpload {
		w.logger.Warn("unknown job type", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		return
	}
	var payload queue.AbortUploadPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		w.logger.Warn("invalid abort payload", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	err := w.store.AbortMultipart(ctx, payload.Key, payload.UploadID)
	if err == nil || storage.IsNotFound(err) {
		w.logger.Info("abort job done", zap.String("job_id", job.ID), zap.String("upload_id", payload.UploadID))
		return
	}
	w.logger.Warn("abort job failed", zap.String("job_id", job.ID), zap.Error(err))
	if rErr := w.jobs.Retry(ctx, job); rErr != nil {
		w.logger.Error("retry enqueue failed", zap.String("job_id", job.ID), zap.Error(rErr))
	}
}

// sweep aborts in-progress uploads older than the stale cutoff. Their
// presigned part URLs have expired, so no client can still finish them.
func (w *Worker) sweep(ctx context.Context) {
	uploads, err := w.store.ListOpenUploads(ctx)
	if err != nil {
		w.logger.Warn("list open uploads failed", zap.Error(err))
		return
	}
	cutoff := time.Now().Add(-staleFactor * w.store.PresignExpire())
	for _, u := range uploads {
		if u.Initiated.IsZero() || u.Initiated.After(cutoff) {
			continue
		}
		if err := w.store.AbortMultipart(ctx, u.Key, u.UploadID); err != nil && !storage.IsNotFound(err) {
			w.logger.Warn("sweep abort failed", zap.Error(err), zap.String("upload_id", u.UploadID), zap.String("key", u.Key))
			continue
		}
		w.logger.Info("swept stale upload", zap.String("upload_id", u.UploadID), zap.String("key", u.Key), zap.Time("initiated", u.Initiated))
	}
}
