package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/moonventures/cardpurchases/internal/models"
	"github.com/moonventures/cardpurchases/internal/services"
)

// invokeRequest represents the payload from Azure Functions Custom Handler.
type invokeRequest struct {
	Data     map[string]any `json:"Data"`
	Metadata map[string]any `json:"Metadata"`
}

// queueItem extracts the raw queue message from an invoke payload. The host
// passes JSON messages either as a string or already decoded.
func (req invokeRequest) queueItem() ([]byte, error) {
	v, ok := req.Data["queueItem"]
	if !ok {
		v, ok = req.Data["queueitem"]
	}
	if !ok {
		return nil, fmt.Errorf("missing queueItem in Data")
	}
	if s, ok := v.(string); ok {
		return []byte(s), nil
	}
	return json.Marshal(v)
}

// ProcessQueue handles the queue trigger that emails purchase confirmations.
func (d *Dependencies) ProcessQueue(w http.ResponseWriter, r *http.Request) {
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		slog.Error("failed to read queue request body", "error", err)
		WriteError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}

	var invokeReq invokeRequest
	if err := json.Unmarshal(bodyBytes, &invokeReq); err != nil {
		slog.Error("failed to unmarshal queue request", "error", err)
		WriteError(w, http.StatusBadRequest, "Failed to unmarshal request")
		return
	}

	item, err := invokeReq.queueItem()
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var msg models.Confirmation
	if err := json.Unmarshal(item, &msg); err != nil {
		slog.Error("failed to unmarshal confirmation", "error", err)
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid queueItem JSON: %v", err))
		return
	}
	if len(msg.To) == 0 {
		slog.Warn("confirmation without recipients", "purchase_id", msg.PurchaseID)
		WriteError(w, http.StatusBadRequest, "Missing recipients")
		return
	}

	if d.Email == nil {
		slog.Warn("email service not configured; dropping confirmation", "purchase_id", msg.PurchaseID)
		w.WriteHeader(http.StatusOK)
		return
	}

	var attachment *services.Attachment
	if msg.HasReceipt() && d.Receipts != nil {
		content, err := d.Receipts.DownloadReceipt(r.Context(), msg.ReceiptRef)
		if err != nil {
			// The confirmation still goes out, without the file.
			slog.Warn("failed to download receipt for confirmation", "purchase_id", msg.PurchaseID, "ref", msg.ReceiptRef, "error", err)
		} else {
			name := services.FileName(msg.ReceiptRef)
			attachment = &services.Attachment{
				Name:        name,
				ContentType: mime.TypeByExtension(filepath.Ext(name)),
				Content:     content,
			}
		}
	}

	if err := d.Email.SendConfirmationEmail(r.Context(), msg, attachment); err != nil {
		slog.Error("failed to send confirmation email", "purchase_id", msg.PurchaseID, "error", err)
		WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to send email: %v", err))
		return
	}

	slog.Info("confirmation email sent", "purchase_id", msg.PurchaseID, "with_receipt", attachment != nil)
	w.WriteHeader(http.StatusOK)
}
