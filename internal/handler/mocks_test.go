package handler

import (
	"context"
	"testing"
	"time"

	"github.com/moonventures/cardpurchases/internal/config"
	"github.com/moonventures/cardpurchases/internal/creditlimit"
	"github.com/moonventures/cardpurchases/internal/models"
	"github.com/moonventures/cardpurchases/internal/recorder"
	"github.com/moonventures/cardpurchases/internal/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// MockRecorder is a mock implementation of PurchaseRecorder
type MockRecorder struct {
	RecordFunc func(ctx context.Context, form recorder.Form) (*recorder.Result, error)
}

func (m *MockRecorder) Record(ctx context.Context, form recorder.Form) (*recorder.Result, error) {
	if m.RecordFunc != nil {
		return m.RecordFunc(ctx, form)
	}
	return &recorder.Result{}, nil
}

// MockPurchaseReader is a mock implementation of PurchaseReader
type MockPurchaseReader struct {
	ListRowsFunc func(ctx context.Context) ([]models.PurchaseRow, error)
}

func (m *MockPurchaseReader) ListRows(ctx context.Context) ([]models.PurchaseRow, error) {
	if m.ListRowsFunc != nil {
		return m.ListRowsFunc(ctx)
	}
	return nil, nil
}

// MockReceiptDownloader is a mock implementation of ReceiptDownloader
type MockReceiptDownloader struct {
	DownloadReceiptFunc func(ctx context.Context, ref string) ([]byte, error)
}

func (m *MockReceiptDownloader) DownloadReceipt(ctx context.Context, ref string) ([]byte, error) {
	if m.DownloadReceiptFunc != nil {
		return m.DownloadReceiptFunc(ctx, ref)
	}
	return nil, nil
}

// MockEmailClient is a mock implementation of EmailClient
type MockEmailClient struct {
	SendConfirmationEmailFunc func(ctx context.Context, msg models.Confirmation, receipt *services.Attachment) error
	SendReminderEmailFunc     func(ctx context.Context, holder models.Cardholder, dues []creditlimit.Due) error
}

func (m *MockEmailClient) SendConfirmationEmail(ctx context.Context, msg models.Confirmation, receipt *services.Attachment) error {
	if m.SendConfirmationEmailFunc != nil {
		return m.SendConfirmationEmailFunc(ctx, msg, receipt)
	}
	return nil
}

func (m *MockEmailClient) SendReminderEmail(ctx context.Context, holder models.Cardholder, dues []creditlimit.Due) error {
	if m.SendReminderEmailFunc != nil {
		return m.SendReminderEmailFunc(ctx, holder, dues)
	}
	return nil
}

// MockRateClient is a mock implementation of RateClient
type MockRateClient struct {
	RateFunc func(ctx context.Context, currency string) (decimal.Decimal, error)
}

func (m *MockRateClient) Rate(ctx context.Context, currency string) (decimal.Decimal, error) {
	if m.RateFunc != nil {
		return m.RateFunc(ctx, currency)
	}
	return decimal.NewFromInt(1), nil
}

const testConfig = `
companies:
  - name: Moon Ventures
cards:
  - name: Inter Moon Ventures
    company: Moon Ventures
cardholders:
  - id: ana
    name: Ana Souza
    company: Moon Ventures
    email: ana@moon.com
    credit_limit: 1000
  - id: bruno
    name: Bruno Lima
    company: Moon Ventures
    credit_limit: 500
    due_day: 20
`

// newTestDeps returns Dependencies with empty mocks and a fixed clock at
// 2026-03-10 14:00 in the configured timezone.
func newTestDeps(t *testing.T) *Dependencies {
	t.Helper()
	cfg, err := config.Parse([]byte(testConfig))
	require.NoError(t, err)
	return &Dependencies{
		Config:    cfg,
		Recorder:  &MockRecorder{},
		Purchases: &MockPurchaseReader{},
		Receipts:  &MockReceiptDownloader{},
		Email:     &MockEmailClient{},
		Rates:     &MockRateClient{},
		Now: func() time.Time {
			return time.Date(2026, 3, 10, 14, 0, 0, 0, cfg.Location())
		},
	}
}
