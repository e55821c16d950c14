package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

const (
	// MinPartSize is the storage backend's minimum multipart part size (5MB),
	// for all parts except the last.
	MinPartSize = 5 * 1024 * 1024
	// FolderRecordings is the S3 prefix for managed egress output.
	FolderRecordings = "recordings"
)

// ContentTypeByExtension maps recording file extensions to MIME types.
var ContentTypeByExtension = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".ogg":  "video/ogg",
}

// S3Config holds S3 client configuration.
type S3Config struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	SessionToken         string
	Bucket               string
	PresignExpireMinutes int
}

// CompletedPart is one finished part of a multipart upload.
type CompletedPart struct {
	PartNumber int32  `json:"partNumber"`
	ETag       string `json:"eTag"`
}

// ObjectInfo describes one listed object.
type ObjectInfo struct {
	Key          string
	SizeBytes    int64
	LastModified time.Time
}

// OpenUpload describes one in-progress multipart upload (for the janitor sweep).
type OpenUpload struct {
	Key       string
	UploadID  string
	Initiated time.Time
}

// ObjectMeta holds the metadata the streaming proxy needs.
type ObjectMeta struct {
	SizeBytes   int64
	ContentType string
}

// S3 provides recording object-store operations: multipart upload lifecycle,
// presigned part URLs, listing, and ranged reads.
type S3 struct {
	client  *s3.Client
	presign *s3.PresignClient
	upload  *manager.Uploader
	cfg     S3Config
	logger  *zap.Logger
}

// NewS3 creates an S3 client using credentials from config or the default chain.
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	accessKey := cfg.AccessKeyID
	secretKey := cfg.SecretAccessKey
	if accessKey == "" || secretKey == "" {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, cfg.SessionToken,
		)))
	} else {
		logger.Warn("S3 client using default credential chain (AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY not set)")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = MinPartSize
	})
	return &S3{
		client:  client,
		presign: s3.NewPresignClient(client),
		upload:  uploader,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// Bucket returns the recordings bucket name.
func (s *S3) Bucket() string { return s.cfg.Bucket }

// PresignExpire returns the configured presign validity window.
func (s *S3) PresignExpire() time.Duration {
	if s.cfg.PresignExpireMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.cfg.PresignExpireMinutes) * time.Minute
}

// PublicObjectURL returns the public URL for an object (no signing).
func (s *S3) PublicObjectURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}

// ContentTypeForKey returns the MIME type for a recording key's extension.
func ContentTypeForKey(key string) string {
	ext := strings.ToLower(path.Ext(key))
	if ct, ok := ContentTypeByExtension[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// CreateMultipart starts a multipart upload transaction and returns the upload ID.
func (s *S3) CreateMultipart(ctx context.Context, key, contentType string) (string, error) {
	out, err := s.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("create multipart upload: %w", err)
	}
	return aws.ToString(out.UploadId), nil
}

// PresignUploadPart returns a pre-signed PUT URL for one part of an open
// multipart upload. The URL is valid for the given window only.
func (s *S3) PresignUploadPart(ctx context.Context, key, uploadID string, partNumber int32, expires time.Duration) (string, error) {
	req, err := s.presign.PresignUploadPart(ctx, &s3.UploadPartInput{
		Bucket:     aws.String(s.cfg.Bucket),
		Key:        aws.String(key),
		UploadId:   aws.String(uploadID),
		PartNumber: aws.Int32(partNumber),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return "", fmt.Errorf("presign upload part %d: %w", partNumber, err)
	}
	return req.URL, nil
}

// CompleteMultipart finalizes a multipart upload. Parts are sorted ascending
// by part number before submission; the backend requires strict ascending order.
func (s *S3) CompleteMultipart(ctx context.Context, key, uploadID string, parts []CompletedPart) error {
	sorted := make([]CompletedPart, len(parts))
	copy(sorted, parts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PartNumber < sorted[j].PartNumber })

	completed := make([]types.CompletedPart, 0, len(sorted))
	for _, p := range sorted {
		completed = append(completed, types.CompletedPart{
			PartNumber: aws.Int32(p.PartNumber),
			ETag:       aws.String(p.ETag),
		})
	}
	_, err := s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(s.cfg.Bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		return fmt.Errorf("complete multipart upload: %w", err)
	}
	return nil
}

// AbortMultipart cancels an open multipart upload and discards its parts.
func (s *S3) AbortMultipart(ctx context.Context, key, uploadID string) error {
	_, err := s.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(s.cfg.Bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	if err != nil {
		return fmt.Errorf("abort multipart upload: %w", err)
	}
	return nil
}

// ListParts returns every part the backend has stored for an open multipart
// upload, following pagination. Completion uses this to reconcile the client's
// submitted list against what was actually uploaded; the backend itself
// accepts any subset of parts.
func (s *S3) ListParts(ctx context.Context, key, uploadID string) ([]CompletedPart, error) {
	var parts []CompletedPart
	var marker *string
	for {
		out, err := s.client.ListParts(ctx, &s3.ListPartsInput{
			Bucket:           aws.String(s.cfg.Bucket),
			Key:              aws.String(key),
			UploadId:         aws.String(uploadID),
			PartNumberMarker: marker,
		})
		if err != nil {
			return nil, fmt.Errorf("list parts: %w", err)
		}
		for _, p := range out.Parts {
			parts = append(parts, CompletedPart{
				PartNumber: aws.ToInt32(p.PartNumber),
				ETag:       aws.ToString(p.ETag),
			})
		}
		if !aws.ToBool(out.IsTruncated) {
			return parts, nil
		}
		marker = out.NextPartNumberMarker
	}
}

// ListOpenUploads returns in-progress multipart uploads in the bucket.
func (s *S3) ListOpenUploads(ctx context.Context) ([]OpenUpload, error) {
	out, err := s.client.ListMultipartUploads(ctx, &s3.ListMultipartUploadsInput{
		Bucket: aws.String(s.cfg.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("list multipart uploads: %w", err)
	}
	uploads := make([]OpenUpload, 0, len(out.Uploads))
	for _, u := range out.Uploads {
		uploads = append(uploads, OpenUpload{
			Key:       aws.ToString(u.Key),
			UploadID:  aws.ToString(u.UploadId),
			Initiated: aws.ToTime(u.Initiated),
		})
	}
	return uploads, nil
}

// ListObjects returns up to maxKeys objects from the bucket (one page).
func (s *S3) ListObjects(ctx context.Context, maxKeys int32) ([]ObjectInfo, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.cfg.Bucket),
		MaxKeys: aws.Int32(maxKeys),
	})
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	objects := make([]ObjectInfo, 0, len(out.Contents))
	for _, obj := range out.Contents {
		objects = append(objects, ObjectInfo{
			Key:          aws.ToString(obj.Key),
			SizeBytes:    aws.ToInt64(obj.Size),
			LastModified: aws.ToTime(obj.LastModified),
		})
	}
	return objects, nil
}

// Head returns object size and content type.
func (s *S3) Head(ctx context.Context, key string) (ObjectMeta, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return ObjectMeta{}, err
	}
	return ObjectMeta{
		SizeBytes:   aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
	}, nil
}

// GetObject returns the object body for streaming. byteRange, when non-empty,
// is an HTTP range value like "bytes=0-99". Caller must close the body.
func (s *S3) GetObject(ctx context.Context, key, byteRange string) (io.ReadCloser, ObjectMeta, error) {
	in := &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}
	if byteRange != "" {
		in.Range = aws.String(byteRange)
	}
	out, err := s.client.GetObject(ctx, in)
	if err != nil {
		return nil, ObjectMeta{}, err
	}
	return out.Body, ObjectMeta{
		SizeBytes:   aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
	}, nil
}

// Upload streams a reader to the bucket in one call (legacy single-shot path
// for blobs smaller than one multipart part). Returns the object URL.
func (s *S3) Upload(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	_, err := s.upload.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	return s.PublicObjectURL(key), nil
}

// DeleteObject removes an object from the bucket.
func (s *S3) DeleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// IsNotFound reports whether err is a missing-object error from the backend.
func IsNotFound(err error) bool {
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return true
	}
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NoSuchKey" || code == "NotFound" || code == "NoSuchUpload"
	}
	return false
}
