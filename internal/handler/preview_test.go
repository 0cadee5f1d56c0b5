package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleInstallmentPreview(t *testing.T) {
	deps := newTestDeps(t)

	req := httptest.NewRequest(http.MethodGet, "/api/installments/preview?amount=1.000,00&installments=3&date=2026-03-05", nil)
	w := httptest.NewRecorder()
	deps.HandleInstallmentPreview(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		TotalFormatted string `json:"total_formatted"`
		PerInstallment string `json:"per_installment_formatted"`
		Installments   []struct {
			Label   string    `json:"label"`
			Amount  string    `json:"amount"`
			DueDate time.Time `json:"due_date"`
		} `json:"installments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "R$ 1.000,00", resp.TotalFormatted)
	assert.Equal(t, "R$ 333,33", resp.PerInstallment)
	require.Len(t, resp.Installments, 3)
	assert.Equal(t, "1/3", resp.Installments[0].Label)
	assert.Equal(t, "333.33", resp.Installments[0].Amount)
	// bought on the due day: first charge rolls to the next month
	assert.Equal(t, "2026-04-05", resp.Installments[0].DueDate.Format("2006-01-02"))
	assert.Equal(t, "2026-06-05", resp.Installments[2].DueDate.Format("2006-01-02"))
}

func TestHandleInstallmentPreview_CardholderDueDay(t *testing.T) {
	deps := newTestDeps(t)

	req := httptest.NewRequest(http.MethodGet, "/api/installments/preview?amount=100&cardholder=bruno", nil)
	w := httptest.NewRecorder()
	deps.HandleInstallmentPreview(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"label":"1/1"`)
	assert.Contains(t, w.Body.String(), "2026-03-20")
}

func TestHandleInstallmentPreview_BadInput(t *testing.T) {
	deps := newTestDeps(t)

	for _, q := range []string{
		"amount=abc",
		"amount=10&installments=13",
		"amount=10&installments=0",
		"amount=10&date=05/03/2026",
	} {
		w := httptest.NewRecorder()
		deps.HandleInstallmentPreview(w, httptest.NewRequest(http.MethodGet, "/api/installments/preview?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}

	w := httptest.NewRecorder()
	deps.HandleInstallmentPreview(w, httptest.NewRequest(http.MethodGet, "/api/installments/preview?amount=10&cardholder=zeca", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
