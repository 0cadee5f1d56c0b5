package services

import (
	"encoding/json"
	"testing"

	"github.com/moonventures/cardpurchases/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityKeys(t *testing.T) {
	rows := sampleRows()
	assert.Equal(t, "ana", partitionKey(rows[0]))
	assert.Equal(t, "p1_01", rowKey(rows[0]))
	assert.Equal(t, "p1_02", rowKey(rows[1]))
	assert.Equal(t, "unassigned", partitionKey(models.PurchaseRow{}))
}

func TestFromEntity_Conversion(t *testing.T) {
	row := sampleRows()[0]
	row.Currency = "USD"
	row.OriginalAmount = decimal.RequireFromString("200")
	row.ExchangeRate = decimal.RequireFromString("5")

	raw, err := json.Marshal(toEntity(row, "2026-03-09T10:00:00Z"))
	require.NoError(t, err)
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(raw, &parsed))

	got := fromEntity(parsed)
	assert.Equal(t, row.Position, got.Position)
	assert.Equal(t, 2, got.InstallmentCount)
	assert.True(t, got.Installment)
	assert.True(t, got.Total.Equal(row.Total))
	assert.Equal(t, "USD", got.Currency)
	assert.True(t, got.ExchangeRate.Equal(row.ExchangeRate))
}

func TestFromEntity_NumericAmounts(t *testing.T) {
	got := fromEntity(map[string]any{"Total": 12.5, "InstallmentCount": "3"})
	assert.True(t, got.Total.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, 3, got.InstallmentCount)
}
