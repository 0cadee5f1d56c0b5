package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/moonventures/cardpurchases/internal/amount"
	"github.com/moonventures/cardpurchases/internal/installment"
	"github.com/moonventures/cardpurchases/internal/models"
	"github.com/shopspring/decimal"
)

type previewResponse struct {
	Total          decimal.Decimal      `json:"total"`
	TotalFormatted string               `json:"total_formatted"`
	PerInstallment string               `json:"per_installment_formatted"`
	Installments   []models.Installment `json:"installments"`
}

// HandleInstallmentPreview shows how an amount would be split, before the
// purchase is submitted.
func (d *Dependencies) HandleInstallmentPreview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	total, err := amount.ParseStrict(q.Get("amount"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid amount: "+q.Get("amount"))
		return
	}

	n := 1
	if v := strings.TrimSpace(q.Get("installments")); v != "" {
		n, err = strconv.Atoi(v)
		if err != nil || n < 1 || n > d.Config.MaxInstallments {
			WriteError(w, http.StatusBadRequest, "Invalid installment count: "+v)
			return
		}
	}

	purchased := d.now()
	if v := q.Get("date"); v != "" {
		purchased, err = time.ParseInLocation(models.DateLayout, v, d.Config.Location())
		if err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid date: "+v)
			return
		}
	}

	dueDay := d.Config.DefaultDueDay
	if id := q.Get("cardholder"); id != "" {
		holder, ok := d.Config.Cardholder(id)
		if !ok {
			WriteError(w, http.StatusNotFound, "Unknown cardholder: "+id)
			return
		}
		dueDay = holder.DueDay
	}

	schedule, err := installment.Schedule(total.Round(2), n, purchased, dueDay)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	for i := range schedule {
		schedule[i].Amount = schedule[i].Amount.Round(2)
	}

	WriteJSON(w, http.StatusOK, previewResponse{
		Total:          total.Round(2),
		TotalFormatted: amount.Format(total),
		PerInstallment: amount.Format(schedule[0].Amount),
		Installments:   schedule,
	})
}
