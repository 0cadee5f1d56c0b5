package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/moonventures/cardpurchases/internal/recorder"
	"github.com/moonventures/cardpurchases/internal/report"
	"github.com/moonventures/cardpurchases/internal/sheetrows"
)

// maxUploadBytes bounds the multipart form, receipt included.
const maxUploadBytes = 10 << 20

// parseFlag reads the installment radio value.
func parseFlag(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "sim", "s", "true", "1", "on", "yes":
		return true
	}
	return false
}

// readForm builds a recorder.Form from a multipart or urlencoded request.
func readForm(r *http.Request) (recorder.Form, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return recorder.Form{}, fmt.Errorf("invalid multipart form: %w", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return recorder.Form{}, fmt.Errorf("invalid form: %w", err)
	}

	form := recorder.Form{
		Card:         r.FormValue("card"),
		Supplier:     r.FormValue("supplier"),
		Amount:       r.FormValue("amount"),
		Currency:     r.FormValue("currency"),
		Installment:  parseFlag(r.FormValue("installment")),
		CardholderID: r.FormValue("cardholder"),
		Buyer:        r.FormValue("buyer"),
		Description:  r.FormValue("description"),
		Email:        r.FormValue("email"),
		PurchaseDate: r.FormValue("purchase_date"),
	}
	form.Installments = 1
	if v := strings.TrimSpace(r.FormValue("installments")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			n = 0
		}
		form.Installments = n
	}

	if r.MultipartForm != nil {
		file, header, err := r.FormFile("receipt")
		switch {
		case errors.Is(err, http.ErrMissingFile):
		case err != nil:
			return recorder.Form{}, fmt.Errorf("failed to read receipt: %w", err)
		default:
			defer file.Close()
			content, err := io.ReadAll(file)
			if err != nil {
				return recorder.Form{}, fmt.Errorf("failed to read receipt: %w", err)
			}
			form.Receipt = &recorder.Receipt{
				Name:        header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Content:     content,
			}
		}
	}
	return form, nil
}

// HandleCreatePurchase records a purchase submitted from the input form.
func (d *Dependencies) HandleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	form, err := readForm(r)
	if err != nil {
		slog.Warn("failed to parse purchase form", "error", err)
		WriteError(w, http.StatusBadRequest, "File too large or invalid form")
		return
	}

	result, err := d.Recorder.Record(r.Context(), form)
	if err != nil {
		var vErr *recorder.ValidationError
		switch {
		case errors.As(err, &vErr):
			WriteErrors(w, http.StatusUnprocessableEntity, vErr.Errors)
		case errors.Is(err, recorder.ErrReceiptUpload),
			errors.Is(err, recorder.ErrRemoteWrite),
			errors.Is(err, recorder.ErrHistoryRead):
			WriteError(w, http.StatusBadGateway, err.Error())
		default:
			slog.Error("failed to record purchase", "error", err)
			WriteError(w, http.StatusInternalServerError, "Failed to record purchase")
		}
		return
	}

	WriteJSON(w, http.StatusCreated, result)
}

// HandleListPurchases serves the reporting view, as JSON or as CSV when
// format=csv.
func (d *Dependencies) HandleListPurchases(w http.ResponseWriter, r *http.Request) {
	rows, err := d.Purchases.ListRows(r.Context())
	if err != nil {
		slog.Error("failed to list purchases", "error", err)
		WriteError(w, http.StatusBadGateway, "Failed to read purchases: "+err.Error())
		return
	}

	q := r.URL.Query()
	rep := report.Build(rows, report.Filter{
		Card:    q.Get("card"),
		Buyer:   q.Get("buyer"),
		Company: q.Get("company"),
	}, d.Config)

	if q.Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="compras.csv"`)
		if err := sheetrows.WriteCSV(w, rep.Rows); err != nil {
			slog.Error("failed to write CSV", "error", err)
		}
		return
	}

	slog.Info("served purchase report", "rows", len(rep.Rows), "cards", len(rep.Totals))
	WriteJSON(w, http.StatusOK, rep)
}
