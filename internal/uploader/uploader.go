// Package uploader drives the client side of a multipart recording upload:
// it asks the coordinator for a transaction, PUTs each part directly to the
// presigned storage URLs with retries, and finalizes or aborts the
// transaction through the coordinator.
package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/CybraneX-team/IEDUP-LMS/internal/multipart"
	"github.com/CybraneX-team/IEDUP-LMS/internal/recerr"
	"github.com/CybraneX-team/IEDUP-LMS/pkg/storage"
)

// Client uploads a finalized recording blob through the coordinator API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates an upload client for the given coordinator base URL.
// token is the bearer token presented on coordinator calls.
func NewClient(baseURL, token string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 5 * time.Minute},
		logger:  logger,
	}
}

// PartCount returns how many parts a blob of size bytes splits into with the
// given part size. All parts are partSize bytes except a smaller final part.
func PartCount(size, partSize int64) int {
	if size <= 0 || partSize <= 0 {
		return 0
	}
	return int((size + partSize - 1) / partSize)
}

// UploadBlob runs the full multipart flow for one in-memory blob: initiate,
// upload all parts with retries, complete. On part exhaustion the transaction
// is aborted and ErrPartUploadExhausted is returned.
func (c *Client) UploadBlob(ctx context.Context, req multipart.InitiateRequest, data []byte) (*multipart.CompleteResponse, error) {
	if len(data) == 0 {
		return nil, recerr.ErrEmptyCapture
	}

	// Part size is negotiated by the coordinator; estimate with the storage
	// minimum so the estimate is never below the actual count.
	req.EstimatedParts = PartCount(int64(len(data)), storage.MinPartSize)
	init, err := c.Initiate(ctx, req)
	if err != nil {
		return nil, err
	}

	partSize := init.Config.PartSizeBytes
	if partSize < storage.MinPartSize {
		partSize = storage.MinPartSize
	}
	total := PartCount(int64(len(data)), partSize)

	parts := make([]storage.CompletedPart, 0, total)
	for n := 1; n <= total; n++ {
		start := int64(n-1) * partSize
		end := start + partSize
		if end > int64(len(data)) {
			end = int64(len(data))
		}
		presigned, ok := init.PresignedPartURLs[int32(n)]
		if !ok {
			c.abort(ctx, init)
			return nil, fmt.Errorf("%w: no presigned URL for part %d", recerr.ErrUploadStateInvalid, n)
		}
		eTag, err := c.uploadPart(ctx, presigned.URL, data[start:end], init.Config)
		if err != nil {
			c.abort(ctx, init)
			return nil, err
		}
		parts = append(parts, storage.CompletedPart{PartNumber: int32(n), ETag: eTag})
	}

	return c.Complete(ctx, multipart.CompleteRequest{
		UploadID: init.UploadID,
		Key:      init.Key,
		Parts:    parts,
	})
}

// uploadPart PUTs one part to its presigned URL, retrying with linear backoff.
// Returns the quote-stripped ETag.
func (c *Client) uploadPart(ctx context.Context, url string, body []byte, cfg multipart.UploadConfig) (string, error) {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	backoff := time.Duration(cfg.RetryBackoffMs) * time.Millisecond
	if backoff <= 0 {
		backoff = time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		eTag, err := c.putOnce(ctx, url, body)
		if err == nil {
			return eTag, nil
		}
		lastErr = err
		c.logger.Warn("part upload attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
		)
		if attempt == maxRetries {
			break
		}
		// Linear backoff: attempt * base delay.
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Duration(attempt) * backoff):
		}
	}
	return "", fmt.Errorf("%w: %v", recerr.ErrPartUploadExhausted, lastErr)
}

func (c *Client) putOnce(ctx context.Context, url string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.ContentLength = int64(len(body))

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("part upload returned status %d", resp.StatusCode)
	}
	eTag := strings.Trim(resp.Header.Get("ETag"), `"`)
	if eTag == "" {
		return "", fmt.Errorf("part upload returned no ETag")
	}
	return eTag, nil
}

// Initiate asks the coordinator for a new multipart transaction.
func (c *Client) Initiate(ctx context.Context, req multipart.InitiateRequest) (*multipart.InitiateResponse, error) {
	var out multipart.InitiateResponse
	if err := c.post(ctx, "/recordings/multipart/initiate", req, &out); err != nil {
		return nil, fmt.Errorf("initiate upload: %w", err)
	}
	return &out, nil
}

// Complete submits the part tags and finalizes the transaction.
func (c *Client) Complete(ctx context.Context, req multipart.CompleteRequest) (*multipart.CompleteResponse, error) {
	var out multipart.CompleteResponse
	if err := c.post(ctx, "/recordings/multipart/complete", req, &out); err != nil {
		return nil, fmt.Errorf("complete upload: %w", err)
	}
	return &out, nil
}

// Abort cancels the transaction. Best-effort; errors are returned for logging.
func (c *Client) Abort(ctx context.Context, uploadID, key string) error {
	if err := c.post(ctx, "/recordings/multipart/abort", multipart.AbortRequest{UploadID: uploadID, Key: key}, nil); err != nil {
		return fmt.Errorf("abort upload: %w", err)
	}
	return nil
}

func (c *Client) abort(ctx context.Context, init *multipart.InitiateResponse) {
	if err := c.Abort(ctx, init.UploadID, init.Key); err != nil {
		c.logger.Warn("abort after failed upload", zap.Error(err), zap.String("upload_id", init.UploadID))
	}
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var envelope struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error != "" {
			return fmt.Errorf("coordinator returned %d: %s", resp.StatusCode, envelope.Error)
		}
		return fmt.Errorf("coordinator returned %d", resp.StatusCode)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
