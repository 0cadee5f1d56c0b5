package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"cloud.google.com/go/storage"
)

const gcsPublicHost = "https://storage.googleapis.com/"

// GCSService stores receipts in a Google Cloud Storage bucket.
type GCSService struct {
	client *storage.Client
	bucket string
}

// NewGCSService creates a GCSService using Application Default Credentials.
func NewGCSService(ctx context.Context) (*GCSService, error) {
	bucket := os.Getenv("RECEIPTS_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("RECEIPTS_BUCKET environment variable is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	slog.Info("gcs service initialized successfully", "bucket", bucket)
	return &GCSService{client: client, bucket: bucket}, nil
}

// UploadReceipt stores a receipt under folder and returns its public URL.
func (s *GCSService) UploadReceipt(ctx context.Context, folder, name string, content []byte, contentType string) (string, error) {
	object := ObjectName(folder, name, now())
	slog.Info("uploading receipt", "bucket", s.bucket, "object", object, "size_bytes", len(content))

	w := s.client.Bucket(s.bucket).Object(object).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := w.Write(content); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to write object %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		slog.Error("failed to upload receipt", "bucket", s.bucket, "object", object, "error", err)
		return "", fmt.Errorf("failed to upload object %s: %w", object, err)
	}

	return gcsPublicHost + s.bucket + "/" + object, nil
}

// DownloadReceipt fetches a receipt previously returned by UploadReceipt.
func (s *GCSService) DownloadReceipt(ctx context.Context, ref string) ([]byte, error) {
	bucket, object, err := parseGCSRef(ref)
	if err != nil {
		return nil, err
	}

	r, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open object %s/%s: %w", bucket, object, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s/%s: %w", bucket, object, err)
	}
	return data, nil
}

// Close releases the underlying client.
func (s *GCSService) Close() error {
	return s.client.Close()
}

func parseGCSRef(ref string) (string, string, error) {
	rest, ok := strings.CutPrefix(ref, gcsPublicHost)
	if !ok {
		rest, ok = strings.CutPrefix(ref, "gs://")
	}
	if !ok {
		return "", "", fmt.Errorf("not a cloud storage reference: %q", ref)
	}
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("not a cloud storage reference: %q", ref)
	}
	return bucket, object, nil
}
