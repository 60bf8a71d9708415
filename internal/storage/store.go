// Package storage persists the pipeline's two kinds of objects to
// S3-compatible storage: uploaded place images and per-job result
// documents. Both namespaces carry bucket lifecycle rules so entries
// expire without application involvement.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"

	"mapannai/internal/config"
	"mapannai/internal/models"
)

// ErrNotFound is returned when a job record does not exist yet. For the
// poller this is the expected steady state while a job executes.
var ErrNotFound = errors.New("storage: object not found")

// Store is a client for the recommendation bucket.
type Store struct {
	client        *minio.Client
	bucket        string
	region        string
	publicBaseURL string

	imagePrefix     string
	jobPrefix       string
	imageExpiryDays int
	jobExpiryDays   int

	logger *slog.Logger
}

// NewStore connects to the configured S3-compatible endpoint.
func NewStore(cfg config.Config, logger *slog.Logger) (*Store, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("bucket name not configured")
	}

	client, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &Store{
		client:          client,
		bucket:          cfg.S3Bucket,
		region:          cfg.S3Region,
		publicBaseURL:   cfg.S3PublicBaseURL,
		imagePrefix:     cfg.ImagePrefix,
		jobPrefix:       cfg.JobResultPrefix,
		imageExpiryDays: cfg.ImageExpiryDays,
		jobExpiryDays:   cfg.JobExpiryDays,
		logger:          logger,
	}, nil
}

// EnsureBucket creates the bucket if needed and installs the lifecycle
// rules expiring images and job results.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}

	lc := lifecycle.NewConfiguration()
	lc.Rules = []lifecycle.Rule{
		{
			ID:         "expire-images",
			Status:     "Enabled",
			RuleFilter: lifecycle.Filter{Prefix: s.imagePrefix},
			Expiration: lifecycle.Expiration{Days: lifecycle.ExpirationDays(s.imageExpiryDays)},
		},
		{
			ID:         "expire-job-results",
			Status:     "Enabled",
			RuleFilter: lifecycle.Filter{Prefix: s.jobPrefix},
			Expiration: lifecycle.Expiration{Days: lifecycle.ExpirationDays(s.jobExpiryDays)},
		},
	}
	if err := s.client.SetBucketLifecycle(ctx, s.bucket, lc); err != nil {
		// Lifecycle support varies across S3 implementations; expiry is
		// a retention concern, not a correctness one.
		s.logger.Warn("set bucket lifecycle failed", "bucket", s.bucket, "error", err)
	}
	return nil
}

// UploadImage streams an image under the image prefix and returns its
// public URL.
func (s *Store) UploadImage(ctx context.Context, objectKey string, r io.Reader, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, objectKey, r, -1, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload image %s: %w", objectKey, err)
	}
	return s.publicURL(objectKey), nil
}

// PutJobRecord writes the terminal state document for one job. The key
// is derived from the job id, so one job is only ever written once.
func (s *Store) PutJobRecord(ctx context.Context, rec models.JobRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal job record: %w", err)
	}

	key := JobKey(s.jobPrefix, rec.JobID)
	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("store job record %s: %w", key, err)
	}

	s.logger.Info("job record stored", "job_id", rec.JobID, "status", rec.Status, "key", key)
	return nil
}

// GetJobRecord reads a job's terminal state document. Absence is
// reported as ErrNotFound, never as a generic failure.
func (s *Store) GetJobRecord(ctx context.Context, jobID string) (*models.JobRecord, error) {
	key := JobKey(s.jobPrefix, jobID)

	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get job record %s: %w", key, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read job record %s: %w", key, err)
	}

	var rec models.JobRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode job record %s: %w", key, err)
	}
	rec.Raw = json.RawMessage(data)
	return &rec, nil
}

func (s *Store) publicURL(objectKey string) string {
	if s.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s", s.publicBaseURL, objectKey)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, objectKey)
}
