package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/moonventures/cardpurchases/internal/models"
)

// QueueService publishes purchase confirmations to Azure Queue Storage.
type QueueService struct {
	serviceClient *azqueue.ServiceClient
	queueName     string
}

// NewQueueService creates a new QueueService instance.
func NewQueueService() (*QueueService, error) {
	queueURL := os.Getenv("QUEUE_SERVICE_URL")
	if queueURL == "" {
		return nil, fmt.Errorf("QUEUE_SERVICE_URL environment variable is required")
	}
	queueName := envOr("CONFIRMATION_QUEUE", "purchase-confirmations")

	slog.Info("initializing queue service", "queue_url", queueURL, "queue", queueName)
	var client *azqueue.ServiceClient

	if isLocal(queueURL) {
		slog.Info("using shared key credentials for queue service")
		name, key := sharedKey()
		cred, err := azqueue.NewSharedKeyCredential(name, key)
		if err != nil {
			return nil, fmt.Errorf("failed to create shared key credential: %w", err)
		}
		client, err = azqueue.NewServiceClientWithSharedKeyCredential(queueURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create queue service client with shared key: %w", err)
		}
	} else {
		// Production: Managed Identity
		cred, err := newDefaultAzureCredential()
		if err != nil {
			return nil, fmt.Errorf("failed to create default azure credential: %w", err)
		}
		client, err = azqueue.NewServiceClient(queueURL, cred, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create queue service client: %w", err)
		}
	}

	slog.Info("queue service initialized successfully")
	return &QueueService{serviceClient: client, queueName: queueName}, nil
}

// EnqueueConfirmation publishes a confirmation for the ProcessQueue trigger.
func (s *QueueService) EnqueueConfirmation(ctx context.Context, msg models.Confirmation) error {
	queueClient := s.serviceClient.NewQueueClient(s.queueName)

	// Create queue if not exists (mostly for dev)
	_, err := queueClient.Create(ctx, nil)
	if err != nil && !strings.Contains(err.Error(), "QueueAlreadyExists") {
		slog.Warn("failed to create queue (may already exist)", "queue", s.queueName, "error", err)
	}

	encoded, err := EncodeQueueMessage(msg)
	if err != nil {
		return err
	}

	if _, err := queueClient.EnqueueMessage(ctx, encoded, nil); err != nil {
		slog.Error("failed to enqueue confirmation", "queue", s.queueName, "purchase_id", msg.PurchaseID, "error", err)
		return fmt.Errorf("failed to enqueue message to %s: %w", s.queueName, err)
	}

	slog.Info("enqueued purchase confirmation", "queue", s.queueName, "purchase_id", msg.PurchaseID)
	return nil
}

// EncodeQueueMessage serializes msg as base64 JSON, the encoding the
// Functions host expects on queue triggers.
func EncodeQueueMessage(msg any) (string, error) {
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}
	return base64.StdEncoding.EncodeToString(msgBytes), nil
}
