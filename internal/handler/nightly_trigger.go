package handler

import (
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/moonventures/cardpurchases/internal/creditlimit"
)

const defaultReminderDays = 3

func reminderDays() int {
	if v := os.Getenv("REMINDER_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
		slog.Warn("invalid REMINDER_DAYS, using default", "value", v, "default", defaultReminderDays)
	}
	return defaultReminderDays
}

// HandleNightlyTrigger emails each cardholder the installments falling due
// REMINDER_DAYS days from today.
func (d *Dependencies) HandleNightlyTrigger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slog.Info("Starting nightly trigger processing")

	if d.Email == nil {
		slog.Warn("email service not configured; skipping installment reminders")
		w.WriteHeader(http.StatusOK)
		return
	}

	rows, err := d.Purchases.ListRows(ctx)
	if err != nil {
		slog.Error("Failed to fetch purchases", "error", err)
		http.Error(w, "Failed to fetch purchases", http.StatusInternalServerError)
		return
	}

	days := reminderDays()
	now := d.now()
	y, m, day := now.Date()
	from := time.Date(y, m, day+days, 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 0, 1)

	slog.Info("Checking installments for upcoming due date", "target_date", from.Format("2006-01-02"), "days", days)

	var sent int
	for _, holder := range d.Config.Cardholders {
		dues := creditlimit.Upcoming(rows, holder, from, to)
		if len(dues) == 0 {
			continue
		}
		if holder.Email == "" {
			slog.Warn("Cardholder has installments due but no email", "cardholder", holder.ID, "installments", len(dues))
			continue
		}

		if err := d.Email.SendReminderEmail(ctx, holder, dues); err != nil {
			slog.Error("Failed to send installment reminder",
				"cardholder", holder.ID,
				"email", holder.Email,
				"error", err)
			// Continue to next cardholder even if email fails
			continue
		}
		sent++
		slog.Info("Installment reminder sent", "cardholder", holder.ID, "installments", len(dues))
	}

	slog.Info("Nightly trigger processing complete", "reminders_sent", sent)
	w.WriteHeader(http.StatusOK)
}
