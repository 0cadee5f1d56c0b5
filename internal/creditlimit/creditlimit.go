// Package creditlimit derives a cardholder's utilized credit limit from the
// recorded purchase rows.
package creditlimit

import (
	"fmt"
	"sort"
	"time"

	"github.com/moonventures/cardpurchases/internal/installment"
	"github.com/moonventures/cardpurchases/internal/models"
	"github.com/shopspring/decimal"
)

// InsufficientLimitError reports a purchase larger than the available limit.
type InsufficientLimitError struct {
	Available decimal.Decimal
	Required  decimal.Decimal
}

func (e *InsufficientLimitError) Error() string {
	return fmt.Sprintf("insufficient limit: available %s, required %s",
		e.Available.StringFixed(2), e.Required.StringFixed(2))
}

// Due is a recorded installment together with its computed due date.
type Due struct {
	Row     models.PurchaseRow
	Label   string
	DueDate time.Time
}

// dueDates resolves the due date of every row of holder, with dates read in
// loc. Rows whose label or date cannot be read are skipped.
func dueDates(rows []models.PurchaseRow, holder models.Cardholder, loc *time.Location) []Due {
	var out []Due
	for _, r := range rows {
		if r.CardholderID != holder.ID {
			continue
		}
		k, _, err := installment.ParseLabel(r.Position)
		if err != nil {
			continue
		}
		purchased, err := r.BillingDate(loc)
		if err != nil {
			continue
		}
		out = append(out, Due{
			Row:     r,
			Label:   r.Position,
			DueDate: installment.DueDate(purchased, holder.DueDay, k),
		})
	}
	return out
}

// Utilized sums the installment amounts of holder that are due strictly after
// at. Installments already due are treated as paid.
func Utilized(rows []models.PurchaseRow, holder models.Cardholder, at time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, d := range dueDates(rows, holder, at.Location()) {
		if d.DueDate.After(at) {
			total = total.Add(d.Row.InstallmentValue)
		}
	}
	return total
}

// Summary returns the limit position of holder at the given instant.
func Summary(rows []models.PurchaseRow, holder models.Cardholder, at time.Time) models.LimitSummary {
	return models.NewLimitSummary(holder, Utilized(rows, holder, at))
}

// Check accepts a purchase of impact when it fits in the available limit
// (impact <= available) and returns an *InsufficientLimitError otherwise.
func Check(rows []models.PurchaseRow, holder models.Cardholder, at time.Time, impact decimal.Decimal) (models.LimitSummary, error) {
	s := Summary(rows, holder, at)
	if impact.GreaterThan(s.Available) {
		return s, &InsufficientLimitError{Available: s.Available, Required: impact}
	}
	return s, nil
}

// Upcoming returns holder's installments due in [from, to), earliest first.
func Upcoming(rows []models.PurchaseRow, holder models.Cardholder, from, to time.Time) []Due {
	var out []Due
	for _, d := range dueDates(rows, holder, from.Location()) {
		if !d.DueDate.Before(from) && d.DueDate.Before(to) {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out
}
