// Package recorder turns a submitted purchase form into persisted
// installment rows.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moonventures/cardpurchases/internal/amount"
	"github.com/moonventures/cardpurchases/internal/config"
	"github.com/moonventures/cardpurchases/internal/creditlimit"
	"github.com/moonventures/cardpurchases/internal/metrics"
	"github.com/moonventures/cardpurchases/internal/models"
	"github.com/shopspring/decimal"
)

// PurchaseStore appends and reads back purchase rows.
type PurchaseStore interface {
	AppendRows(ctx context.Context, rows []models.PurchaseRow) error
	ListRows(ctx context.Context) ([]models.PurchaseRow, error)
}

// ReceiptUploader stores a receipt and returns a reference to it.
type ReceiptUploader interface {
	UploadReceipt(ctx context.Context, folder, name string, content []byte, contentType string) (string, error)
}

// Notifier publishes purchase confirmations.
type Notifier interface {
	EnqueueConfirmation(ctx context.Context, msg models.Confirmation) error
}

// CurrencyConverter converts foreign amounts to BRL.
type CurrencyConverter interface {
	Convert(ctx context.Context, currency string, original decimal.Decimal) *models.Conversion
}

// Dependencies are the collaborators of a Recorder. Local, Notifier and
// Converter are optional; without a Converter amounts are recorded as entered.
type Dependencies struct {
	Remote    PurchaseStore
	Local     PurchaseStore
	Receipts  ReceiptUploader
	Notifier  Notifier
	Converter CurrencyConverter
}

// Result describes a recorded purchase.
type Result struct {
	Purchase     models.Purchase      `json:"purchase"`
	Rows         []models.PurchaseRow `json:"rows"`
	LimitSummary models.LimitSummary  `json:"limit"`
	Warnings     []string             `json:"warnings,omitempty"`
}

// Recorder validates purchases and writes them to the stores.
type Recorder struct {
	cfg *config.Config
	Dependencies
	locker *creditlimit.Locker
	now    func() time.Time
	newID  func() string
}

// New creates a Recorder.
func New(cfg *config.Config, deps Dependencies) *Recorder {
	return &Recorder{
		cfg:          cfg,
		Dependencies: deps,
		locker:       creditlimit.NewLocker(),
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

func (r *Recorder) reject(reason string, errs []string, cause error) error {
	metrics.PurchasesRejected.WithLabelValues(reason).Inc()
	slog.Info("purchase rejected", "reason", reason, "errors", errs)
	return &ValidationError{Errors: errs, Err: cause}
}

// Record validates f, checks the cardholder's limit, stores the receipt and
// appends one row per installment. Validation problems are returned as a
// *ValidationError and nothing is written. The limit check and the remote
// append run under a per-cardholder lock.
func (r *Recorder) Record(ctx context.Context, f Form) (*Result, error) {
	now := r.now().In(r.cfg.Location())

	n, errs := r.normalize(ctx, f, now)
	if len(errs) > 0 {
		return nil, r.reject("validation", errs, nil)
	}

	var warnings []string
	if n.conversion != nil && n.conversion.Warning {
		warnings = append(warnings, fmt.Sprintf(
			"Cotação de %s indisponível; valor registrado sem conversão.", n.conversion.Currency))
	}

	unlock := r.locker.Lock(n.holder.ID)
	defer unlock()

	history, err := r.Remote.ListRows(ctx)
	if err != nil {
		metrics.IntegrationFailures.WithLabelValues("remote").Inc()
		return nil, fmt.Errorf("%w: %v", ErrHistoryRead, err)
	}

	if _, err := creditlimit.Check(history, n.holder, now, n.total); err != nil {
		var limitErr *creditlimit.InsufficientLimitError
		if errors.As(err, &limitErr) {
			msg := fmt.Sprintf("Limite insuficiente: disponível %s, necessário %s.",
				amount.Format(limitErr.Available), amount.Format(limitErr.Required))
			return nil, r.reject("limit", []string{msg}, err)
		}
		return nil, err
	}

	receiptRef := models.NoReceipt
	if f.Receipt != nil && len(f.Receipt.Content) > 0 {
		receiptRef, err = r.Receipts.UploadReceipt(ctx, n.company.Folder, f.Receipt.Name, f.Receipt.Content, f.Receipt.ContentType)
		if err != nil {
			metrics.IntegrationFailures.WithLabelValues("receipts").Inc()
			slog.Error("receipt upload failed", "cardholder", n.holder.ID, "error", err)
			return nil, fmt.Errorf("%w: %v", ErrReceiptUpload, err)
		}
	}

	purchase := models.Purchase{
		ID:               r.newID(),
		PostingDate:      now,
		PurchaseDate:     n.purchaseDate,
		Card:             n.card.Name,
		Company:          n.company.Name,
		CardholderID:     n.holder.ID,
		Supplier:         strings.TrimSpace(f.Supplier),
		Total:            n.total,
		Installment:      f.Installment,
		InstallmentCount: n.count,
		Buyer:            n.buyer,
		Description:      strings.TrimSpace(f.Description),
		ReceiptRef:       receiptRef,
		Conversion:       n.conversion,
	}

	schedule, err := n.schedule()
	if err != nil {
		return nil, err
	}
	rows := Rows(purchase, schedule)
	for _, row := range rows {
		if err := row.Validate(); err != nil {
			return nil, fmt.Errorf("purchase %s produced an invalid row: %w", purchase.ID, err)
		}
	}

	if err := r.Remote.AppendRows(ctx, rows); err != nil {
		metrics.IntegrationFailures.WithLabelValues("remote").Inc()
		slog.Error("remote append failed", "purchase_id", purchase.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrRemoteWrite, err)
	}
	metrics.PurchasesRecorded.Inc()
	slog.Info("purchase recorded",
		"purchase_id", purchase.ID,
		"cardholder", purchase.CardholderID,
		"total", purchase.Total.StringFixed(2),
		"installments", purchase.InstallmentCount,
	)

	if r.Local != nil {
		if err := r.Local.AppendRows(ctx, rows); err != nil {
			metrics.IntegrationFailures.WithLabelValues("local").Inc()
			slog.Warn("local copy not updated", "purchase_id", purchase.ID, "error", err)
			warnings = append(warnings, "Cópia local não atualizada.")
		}
	}

	if n.email != "" && r.Notifier != nil {
		msg := Confirmation(purchase, n.email, warnings)
		if err := r.Notifier.EnqueueConfirmation(ctx, msg); err != nil {
			metrics.IntegrationFailures.WithLabelValues("queue").Inc()
			slog.Warn("confirmation not queued", "purchase_id", purchase.ID, "error", err)
			warnings = append(warnings, "E-mail de confirmação não enviado.")
		}
	}

	return &Result{
		Purchase:     purchase,
		Rows:         rows,
		LimitSummary: creditlimit.Summary(append(history, rows...), n.holder, now),
		Warnings:     warnings,
	}, nil
}

// Rows builds the persisted rows of p, one per installment. All rows share
// the purchase fields and differ only in their position label.
func Rows(p models.Purchase, schedule []models.Installment) []models.PurchaseRow {
	rows := make([]models.PurchaseRow, len(schedule))
	for i, inst := range schedule {
		row := models.PurchaseRow{
			PostingDate:      p.PostingDate.Format(models.DateLayout),
			Card:             p.Card,
			Company:          p.Company,
			Supplier:         p.Supplier,
			Total:            p.Total,
			Installment:      p.Installment,
			InstallmentCount: p.InstallmentCount,
			InstallmentValue: inst.Amount.Round(2),
			Buyer:            p.Buyer,
			Position:         inst.Label,
			Description:      p.Description,
			ReceiptRef:       p.ReceiptRef,
			PurchaseDate:     p.PurchaseDate.Format(models.DateLayout),
			CardholderID:     p.CardholderID,
			PurchaseID:       p.ID,
		}
		if c := p.Conversion; c != nil {
			row.Currency = c.Currency
			row.OriginalAmount = c.Original
			row.ExchangeRate = c.Rate
		}
		rows[i] = row
	}
	return rows
}

// Confirmation builds the confirmation message of p for the given address.
func Confirmation(p models.Purchase, to string, warnings []string) models.Confirmation {
	installmentFlag := "Não"
	if p.Installment {
		installmentFlag = "Sim"
	}
	per := p.Total.Div(decimal.NewFromInt(int64(max(p.InstallmentCount, 1))))

	fields := []models.Field{
		{Label: "Data", Value: p.PostingDate.Format(models.DateLayout)},
		{Label: "Cartão", Value: p.Card},
		{Label: "Fornecedor", Value: p.Supplier},
		{Label: "Valor Total", Value: amount.Format(p.Total)},
		{Label: "Parcelado", Value: installmentFlag},
		{Label: "Parcelas", Value: strconv.Itoa(p.InstallmentCount)},
		{Label: "Valor da Parcela", Value: amount.Format(per)},
		{Label: "Comprador", Value: p.Buyer},
		{Label: "Descrição", Value: p.Description},
	}
	if c := p.Conversion; c != nil {
		fields = append(fields,
			models.Field{Label: "Moeda", Value: c.Currency},
			models.Field{Label: "Valor Original", Value: amount.FormatPlain(c.Original)},
			models.Field{Label: "Cotação", Value: c.Rate.StringFixed(4)},
		)
	}

	return models.Confirmation{
		To:         []string{to},
		PurchaseID: p.ID,
		Supplier:   p.Supplier,
		Fields:     fields,
		ReceiptRef: p.ReceiptRef,
		Warnings:   warnings,
	}
}
