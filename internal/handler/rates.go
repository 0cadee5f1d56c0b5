package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/moonventures/cardpurchases/internal/amount"
	"github.com/shopspring/decimal"
)

// HandleRate returns the cached exchange rate of a currency against BRL.
func (d *Dependencies) HandleRate(w http.ResponseWriter, r *http.Request) {
	currency := strings.ToUpper(r.PathValue("currency"))
	if len(currency) != 3 {
		WriteError(w, http.StatusBadRequest, "Invalid currency: "+currency)
		return
	}

	rate := decimal.NewFromInt(1)
	if currency != amount.LocalCurrency {
		var err error
		rate, err = d.Rates.Rate(r.Context(), currency)
		if err != nil {
			slog.Warn("exchange rate unavailable", "currency", currency, "error", err)
			WriteError(w, http.StatusBadGateway, "Exchange rate unavailable for "+currency)
			return
		}
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"currency": currency,
		"rate":     rate,
	})
}
