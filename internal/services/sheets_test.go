package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/moonventures/cardpurchases/internal/models"
	"github.com/moonventures/cardpurchases/internal/sheetrows"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

// fakeSheet serves the subset of the Sheets values API the service uses.
type fakeSheet struct {
	mu     sync.Mutex
	values [][]any
	opts   []string
}

func (f *fakeSheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet:
		json.NewEncoder(w).Encode(map[string]any{"range": "Compras", "values": f.values})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		var body struct {
			Values [][]any `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.opts = append(f.opts, r.URL.Query().Get("valueInputOption"))
		f.values = append(f.values, body.Values...)
		json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sheet-1"})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestSheetsService(t *testing.T, fake http.Handler) *SheetsService {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	t.Setenv("SHEET_ID", "sheet-1")
	t.Setenv("SHEET_RANGE", "Compras")
	svc, err := NewSheetsService(context.Background(),
		option.WithEndpoint(server.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)
	return svc
}

func sampleRows() []models.PurchaseRow {
	return []models.PurchaseRow{
		{
			PostingDate: "2026-03-09", Card: "Visa Moon", Company: "Moon", Supplier: "Dell",
			Total: decimal.RequireFromString("1000"), Installment: true, InstallmentCount: 2,
			InstallmentValue: decimal.RequireFromString("500"), Buyer: "Ana", Position: "1/2",
			ReceiptRef: "https://r/1.pdf", PurchaseDate: "2026-03-09", CardholderID: "ana", PurchaseID: "p1",
		},
		{
			PostingDate: "2026-03-09", Card: "Visa Moon", Company: "Moon", Supplier: "Dell",
			Total: decimal.RequireFromString("1000"), Installment: true, InstallmentCount: 2,
			InstallmentValue: decimal.RequireFromString("500"), Buyer: "Ana", Position: "2/2",
			ReceiptRef: "https://r/1.pdf", PurchaseDate: "2026-03-09", CardholderID: "ana", PurchaseID: "p1",
		},
	}
}

func TestSheetsService_AppendRows_WritesHeaderOnce(t *testing.T) {
	fake := &fakeSheet{}
	svc := newTestSheetsService(t, fake)
	ctx := context.Background()

	require.NoError(t, svc.AppendRows(ctx, sampleRows()))
	require.NoError(t, svc.AppendRows(ctx, sampleRows()[:1]))

	require.Len(t, fake.values, 4)
	assert.Equal(t, sheetrows.ColDate, fake.values[0][0])
	assert.Equal(t, "2026-03-09", fake.values[1][0])
	assert.Equal(t, []string{"RAW", "RAW"}, fake.opts)

	rows, err := svc.ListRows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2/2", rows[1].Position)
	assert.True(t, rows[0].InstallmentValue.Equal(decimal.RequireFromString("500")))
}

func TestSheetsService_ListRows_Empty(t *testing.T) {
	svc := newTestSheetsService(t, &fakeSheet{})

	rows, err := svc.ListRows(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSheetsService_AppendRows_Error(t *testing.T) {
	svc := newTestSheetsService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	assert.Error(t, svc.AppendRows(context.Background(), sampleRows()))
}
