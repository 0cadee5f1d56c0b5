package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// NoReceipt is stored in place of a receipt reference when none was uploaded.
const NoReceipt = "None"

// DateLayout is the calendar date format used in every persisted row.
const DateLayout = "2006-01-02"

// Conversion records a foreign-currency amount converted to local currency.
type Conversion struct {
	Currency string          `json:"currency"`
	Original decimal.Decimal `json:"original_amount"`
	Rate     decimal.Decimal `json:"rate"`
	Local    decimal.Decimal `json:"local_amount"`
	Warning  bool            `json:"warning,omitempty"` // rate unavailable, Local == Original
}

// Purchase is a single submitted card purchase before it is split into rows.
type Purchase struct {
	ID               string          `json:"id"`
	PostingDate      time.Time       `json:"posting_date"`
	PurchaseDate     time.Time       `json:"purchase_date"`
	Card             string          `json:"card"`
	Company          string          `json:"company"`
	CardholderID     string          `json:"cardholder_id"`
	Supplier         string          `json:"supplier"`
	Total            decimal.Decimal `json:"total"`
	Installment      bool            `json:"installment"`
	InstallmentCount int             `json:"installment_count"`
	Buyer            string          `json:"buyer"`
	Description      string          `json:"description"`
	ReceiptRef       string          `json:"receipt_ref"`
	Conversion       *Conversion     `json:"conversion,omitempty"`
}

// Installment is one scheduled charge of a purchase.
type Installment struct {
	Position int             `json:"position"`
	Count    int             `json:"count"`
	Label    string          `json:"label"`
	Amount   decimal.Decimal `json:"amount"`
	DueDate  time.Time       `json:"due_date,omitempty"`
}

// PurchaseRow is one persisted spreadsheet row. A purchase with N installments
// is stored as N rows that differ only in Position.
type PurchaseRow struct {
	PostingDate      string          `json:"date"`
	Card             string          `json:"card"`
	Company          string          `json:"company"`
	Supplier         string          `json:"supplier"`
	Total            decimal.Decimal `json:"total"`
	Installment      bool            `json:"installment"`
	InstallmentCount int             `json:"installment_count"`
	InstallmentValue decimal.Decimal `json:"installment_value"`
	Buyer            string          `json:"buyer"`
	Position         string          `json:"position"`
	Description      string          `json:"description"`
	ReceiptRef       string          `json:"receipt_ref"`
	PurchaseDate     string          `json:"purchase_date"`
	Currency         string          `json:"currency,omitempty"`
	OriginalAmount   decimal.Decimal `json:"original_amount,omitzero"`
	ExchangeRate     decimal.Decimal `json:"exchange_rate,omitzero"`
	CardholderID     string          `json:"cardholder_id"`
	PurchaseID       string          `json:"purchase_id"`
}

// HasConversion reports whether the row carries the optional currency fields.
func (r PurchaseRow) HasConversion() bool {
	return r.Currency != ""
}

// BillingDate returns the date the installment schedule is anchored to, in
// loc: the purchase date, or the posting date for rows written before the
// purchase date was tracked.
func (r PurchaseRow) BillingDate(loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(r.PurchaseDate)
	if s == "" {
		s = strings.TrimSpace(r.PostingDate)
	}
	if s == "" {
		return time.Time{}, fmt.Errorf("missing purchase date")
	}
	return time.ParseInLocation(DateLayout, s, loc)
}

// Validate checks the invariants every row must hold before it is persisted.
func (r PurchaseRow) Validate() error {
	if r.Total.IsNegative() {
		return fmt.Errorf("negative total amount %s", r.Total)
	}
	if r.InstallmentCount < 1 || r.InstallmentCount > 12 {
		return fmt.Errorf("installment count %d out of range 1..12", r.InstallmentCount)
	}
	if !r.Installment && r.InstallmentCount != 1 {
		return fmt.Errorf("installment count %d on a single payment", r.InstallmentCount)
	}
	k, n, ok := strings.Cut(r.Position, "/")
	if !ok {
		return fmt.Errorf("invalid position %q", r.Position)
	}
	pos, err1 := strconv.Atoi(k)
	count, err2 := strconv.Atoi(n)
	if err1 != nil || err2 != nil || count != r.InstallmentCount || pos < 1 || pos > count {
		return fmt.Errorf("invalid position %q for %d installments", r.Position, r.InstallmentCount)
	}
	if r.ReceiptRef == "" {
		return fmt.Errorf("missing receipt reference")
	}
	if _, err := time.Parse(DateLayout, r.PostingDate); err != nil {
		return fmt.Errorf("invalid date %q", r.PostingDate)
	}
	if r.HasConversion() && !r.ExchangeRate.IsPositive() {
		return fmt.Errorf("currency %s without exchange rate", r.Currency)
	}
	return nil
}
