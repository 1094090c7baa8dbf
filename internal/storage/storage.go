package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/therealutkarshpriyadarshi/ytclipper/internal/config"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/logging"
	"github.com/therealutkarshpriyadarshi/ytclipper/internal/metrics"
	"github.com/therealutkarshpriyadarshi/ytclipper/pkg/models"
)

// Storage publishes clips to S3-compatible object storage
type Storage struct {
	client     *minio.Client
	bucketName string
	urlExpiry  time.Duration
	logger     *logging.Logger
}

// New creates a new storage client and ensures the bucket exists
func New(ctx context.Context, cfg config.StorageConfig, logger *logging.Logger) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	// Ensure bucket exists
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	if logger == nil {
		logger = logging.Nop()
	}
	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}

	return &Storage{
		client:     client,
		bucketName: cfg.BucketName,
		urlExpiry:  expiry,
		logger:     logger,
	}, nil
}

// ObjectKey returns the object name a clip is published under
func ObjectKey(clip *models.ClipArtifact) string {
	video := clip.VideoID
	if video == "" {
		video = "unknown"
	}
	return fmt.Sprintf("clips/%s/%s%s", video, clip.ID, filepath.Ext(clip.Path))
}

// PublishClip uploads the clip file and returns a presigned download URL
func (s *Storage) PublishClip(ctx context.Context, clip *models.ClipArtifact) (string, error) {
	key := ObjectKey(clip)

	start := time.Now()
	err := s.UploadFile(ctx, key, clip.Path)
	s.observe("upload", key, clip.Size, start, err)
	if err != nil {
		return "", err
	}

	return s.GetURL(ctx, key)
}

// RemoveClip deletes a published clip
func (s *Storage) RemoveClip(ctx context.Context, clip *models.ClipArtifact) error {
	key := ObjectKey(clip)

	start := time.Now()
	err := s.Delete(ctx, key)
	s.observe("delete", key, 0, start, err)
	return err
}

// UploadFile uploads a file from local filesystem
func (s *Storage) UploadFile(ctx context.Context, objectName, filePath string) error {
	contentType := getContentType(filePath)

	_, err := s.client.FPutObject(ctx, s.bucketName, objectName, filePath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}

	return nil
}

// Delete deletes an object from storage
func (s *Storage) Delete(ctx context.Context, objectName string) error {
	err := s.client.RemoveObject(ctx, s.bucketName, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}

	return nil
}

// GetURL returns a presigned URL for an object
func (s *Storage) GetURL(ctx context.Context, objectName string) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, s.bucketName, objectName, s.urlExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate URL: %w", err)
	}

	return url.String(), nil
}

func (s *Storage) observe(op, key string, size int64, start time.Time, err error) {
	d := time.Since(start)
	metrics.RecordStorageOperation(op, metrics.Status(err), d.Seconds())
	s.logger.LogStorageOperation(op, s.bucketName, key, size, d, err)
}

// getContentType returns the content type based on file extension
func getContentType(filePath string) string {
	ext := filepath.Ext(filePath)
	switch ext {
	case ".mp4":
		return "video/mp4"
	case ".mkv":
		return "video/x-matroska"
	case ".webm":
		return "video/webm"
	default:
		return "application/octet-stream"
	}
}
