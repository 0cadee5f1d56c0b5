package handler

import (
	"log/slog"
	"net/http"

	"github.com/moonventures/cardpurchases/internal/creditlimit"
	"github.com/moonventures/cardpurchases/internal/models"
)

// cardholderView is a cardholder together with its current limit usage.
type cardholderView struct {
	models.Cardholder
	Limit models.LimitSummary `json:"limit"`
}

// HandleCardholders lists the configured cardholders with their limits.
func (d *Dependencies) HandleCardholders(w http.ResponseWriter, r *http.Request) {
	rows, err := d.Purchases.ListRows(r.Context())
	if err != nil {
		slog.Error("failed to list purchases for limits", "error", err)
		WriteError(w, http.StatusBadGateway, "Failed to read purchases: "+err.Error())
		return
	}

	now := d.now()
	views := make([]cardholderView, 0, len(d.Config.Cardholders))
	for _, c := range d.Config.Cardholders {
		views = append(views, cardholderView{
			Cardholder: c,
			Limit:      creditlimit.Summary(rows, c, now),
		})
	}
	WriteJSON(w, http.StatusOK, views)
}

// HandleCardholderLimit returns the limit summary of one cardholder.
func (d *Dependencies) HandleCardholderLimit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	holder, ok := d.Config.Cardholder(id)
	if !ok {
		WriteError(w, http.StatusNotFound, "Unknown cardholder: "+id)
		return
	}

	rows, err := d.Purchases.ListRows(r.Context())
	if err != nil {
		slog.Error("failed to list purchases for limit", "cardholder", id, "error", err)
		WriteError(w, http.StatusBadGateway, "Failed to read purchases: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, creditlimit.Summary(rows, holder, d.now()))
}
