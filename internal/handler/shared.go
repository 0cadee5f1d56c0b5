package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/moonventures/cardpurchases/internal/config"
	"github.com/moonventures/cardpurchases/internal/creditlimit"
	"github.com/moonventures/cardpurchases/internal/models"
	"github.com/moonventures/cardpurchases/internal/recorder"
	"github.com/moonventures/cardpurchases/internal/services"
	"github.com/shopspring/decimal"
)

// PurchaseRecorder records submitted purchase forms.
type PurchaseRecorder interface {
	Record(ctx context.Context, form recorder.Form) (*recorder.Result, error)
}

// PurchaseReader reads back the recorded purchase rows.
type PurchaseReader interface {
	ListRows(ctx context.Context) ([]models.PurchaseRow, error)
}

// ReceiptDownloader fetches stored receipts.
type ReceiptDownloader interface {
	DownloadReceipt(ctx context.Context, ref string) ([]byte, error)
}

// EmailClient sends the purchase notifications.
type EmailClient interface {
	SendConfirmationEmail(ctx context.Context, msg models.Confirmation, receipt *services.Attachment) error
	SendReminderEmail(ctx context.Context, holder models.Cardholder, dues []creditlimit.Due) error
}

// RateClient returns current exchange rates against BRL.
type RateClient interface {
	Rate(ctx context.Context, currency string) (decimal.Decimal, error)
}

// Dependencies holds the services required by the handlers. Email may be
// nil when no email service is configured.
type Dependencies struct {
	Config    *config.Config
	Recorder  PurchaseRecorder
	Purchases PurchaseReader
	Receipts  ReceiptDownloader
	Email     EmailClient
	Rates     RateClient
	Now       func() time.Time
}

// now returns the current instant in the configured timezone.
func (d *Dependencies) now() time.Time {
	t := time.Now()
	if d.Now != nil {
		t = d.Now()
	}
	return t.In(d.Config.Location())
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// WriteError writes an error response.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// WriteErrors writes a list of validation errors.
func WriteErrors(w http.ResponseWriter, status int, messages []string) {
	WriteJSON(w, status, map[string][]string{"errors": messages})
}
