package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// BlobService stores receipts in an Azure Blob Storage container.
type BlobService struct {
	serviceURL string
	container  string
	client     *azblob.Client
}

// NewBlobService creates a new BlobService instance.
func NewBlobService() (*BlobService, error) {
	blobURL := os.Getenv("BLOB_SERVICE_URL")
	if blobURL == "" {
		return nil, fmt.Errorf("BLOB_SERVICE_URL environment variable is required")
	}
	container := envOr("RECEIPTS_CONTAINER", "receipts")

	slog.Info("initializing blob service", "blob_url", blobURL, "container", container)
	var client *azblob.Client

	// Check if running locally with Azurite (http endpoint)
	if isLocal(blobURL) {
		slog.Info("using shared key credentials for blob service")
		name, key := sharedKey()
		cred, err := azblob.NewSharedKeyCredential(name, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = azblob.NewClientWithSharedKeyCredential(blobURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob client with shared key: %w", err)
		}
	} else {
		// Production: Managed Identity
		cred, err := newDefaultAzureCredential()
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
		client, err = azblob.NewClient(blobURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create blob client: %w", err)
		}
	}

	slog.Info("blob service initialized successfully")
	return &BlobService{
		serviceURL: strings.TrimSuffix(blobURL, "/"),
		container:  container,
		client:     client,
	}, nil
}

// UploadReceipt stores a receipt under folder and returns its URL.
func (s *BlobService) UploadReceipt(ctx context.Context, folder, name string, content []byte, contentType string) (string, error) {
	blobName := ObjectName(folder, name, now())
	slog.Info("uploading receipt", "container", s.container, "blob_name", blobName, "size_bytes", len(content))

	// Create container if not exists (mostly for dev)
	_, err := s.client.CreateContainer(ctx, s.container, nil)
	if err != nil && !strings.Contains(err.Error(), "ContainerAlreadyExists") {
		slog.Warn("failed to create container (may already exist)", "container", s.container, "error", err)
	}

	opts := &azblob.UploadBufferOptions{}
	if contentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &contentType}
	}
	if _, err := s.client.UploadBuffer(ctx, s.container, blobName, content, opts); err != nil {
		slog.Error("failed to upload receipt", "container", s.container, "blob_name", blobName, "error", err)
		return "", fmt.Errorf("failed to upload blob %s/%s: %w", s.container, blobName, err)
	}

	ref := fmt.Sprintf("%s/%s/%s", s.serviceURL, s.container, blobName)
	slog.Info("successfully uploaded receipt", "ref", ref)
	return ref, nil
}

// DownloadReceipt fetches a receipt previously returned by UploadReceipt.
func (s *BlobService) DownloadReceipt(ctx context.Context, ref string) ([]byte, error) {
	container, blobName, ok := strings.Cut(strings.TrimPrefix(strings.TrimPrefix(ref, s.serviceURL), "/"), "/")
	if !ok || blobName == "" {
		return nil, fmt.Errorf("receipt reference %q does not point into %s", ref, s.serviceURL)
	}

	resp, err := s.client.DownloadStream(ctx, container, blobName, nil)
	if err != nil {
		slog.Error("failed to download receipt", "container", container, "blob_name", blobName, "error", err)
		return nil, fmt.Errorf("failed to download blob %s/%s: %w", container, blobName, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob content: %w", err)
	}
	slog.Info("successfully downloaded receipt", "container", container, "blob_name", blobName, "size_bytes", len(data))
	return data, nil
}
