// Package storage archives audit capture artifacts (full-page screenshots
// and raw HTML) in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/webpulse/webpulse/internal/config"
	"github.com/webpulse/webpulse/internal/domain"
)

const (
	screenshotPrefix = "screenshots"
	pagePrefix       = "pages"

	presignExpiry = 15 * time.Minute
)

// ArtifactStore persists capture artifacts keyed by report ID.
type ArtifactStore struct {
	client *minio.Client
	bucket string
}

// NewArtifactStore creates a store from the storage configuration.
func NewArtifactStore(cfg config.StorageConfig) (*ArtifactStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	return &ArtifactStore{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *ArtifactStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("checking bucket existence: %w", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("creating bucket: %w", err)
		}
	}

	return nil
}

// ScreenshotKey returns the object key for a report's screenshot. Captures
// are JPEG; the browser collector trades lossless output for size.
func ScreenshotKey(reportID uuid.UUID) string {
	return fmt.Sprintf("%s/%s.jpg", screenshotPrefix, reportID)
}

// HTMLKey returns the object key for a report's raw HTML.
func HTMLKey(reportID uuid.UUID) string {
	return fmt.Sprintf("%s/%s.html", pagePrefix, reportID)
}

// SaveArtifacts uploads whichever artifacts the capture produced and returns
// references to the stored objects. Empty slices are skipped; saving nothing
// returns nil refs without error.
func (s *ArtifactStore) SaveArtifacts(ctx context.Context, reportID uuid.UUID, screenshot, html []byte) (*domain.ArtifactRefs, error) {
	refs := &domain.ArtifactRefs{}

	if len(screenshot) > 0 {
		key := ScreenshotKey(reportID)
		if err := s.put(ctx, key, screenshot, "image/jpeg"); err != nil {
			return nil, fmt.Errorf("uploading screenshot: %w", err)
		}
		refs.ScreenshotKey = key
	}

	if len(html) > 0 {
		key := HTMLKey(reportID)
		if err := s.put(ctx, key, html, "text/html; charset=utf-8"); err != nil {
			return nil, fmt.Errorf("uploading html: %w", err)
		}
		refs.HTMLKey = key
	}

	if refs.ScreenshotKey == "" && refs.HTMLKey == "" {
		return nil, nil
	}
	return refs, nil
}

func (s *ArtifactStore) put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// PresignedURL returns a short-lived download URL for an artifact.
func (s *ArtifactStore) PresignedURL(ctx context.Context, key string) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, s.bucket, key, presignExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("generating presigned URL: %w", err)
	}
	return url.String(), nil
}
