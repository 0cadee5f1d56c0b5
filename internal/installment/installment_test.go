package installment

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSplit_Single(t *testing.T) {
	got, err := Split(decimal.RequireFromString("399.80"), 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "1/1", got[0].Label)
	assert.Equal(t, 1, got[0].Count)
	assert.True(t, got[0].Amount.Equal(decimal.RequireFromString("399.80")))
}

func TestSplit_Many(t *testing.T) {
	total := decimal.NewFromInt(100)
	for n := 2; n <= MaxCount; n++ {
		got, err := Split(total, n)
		require.NoError(t, err)
		require.Len(t, got, n)

		sum := decimal.Zero
		for k, inst := range got {
			assert.Equal(t, Label(k+1, n), inst.Label)
			assert.Equal(t, k+1, inst.Position)
			sum = sum.Add(inst.Amount)
		}
		assert.True(t, sum.Sub(total).Abs().LessThan(decimal.RequireFromString("0.000001")),
			"n=%d: sum %s drifts from %s", n, sum, total)

		rounded := got[0].Amount.Round(2).Mul(decimal.NewFromInt(int64(n)))
		assert.True(t, rounded.Sub(total).Abs().LessThanOrEqual(decimal.RequireFromString("0.06")))
	}
}

func TestSplit_InvalidCount(t *testing.T) {
	_, err := Split(decimal.NewFromInt(10), 0)
	assert.ErrorIs(t, err, ErrInvalidCount)
	_, err = Split(decimal.NewFromInt(10), 13)
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "1/1", Label(1, 1))
	assert.Equal(t, "3/4", Label(3, 4))

	k, n, err := ParseLabel(" 2/6 ")
	require.NoError(t, err)
	assert.Equal(t, 2, k)
	assert.Equal(t, 6, n)

	for _, bad := range []string{"", "2", "a/b", "0/3", "4/3", "1/0"} {
		_, _, err := ParseLabel(bad)
		assert.ErrorIs(t, err, ErrInvalidLabel, "label %q", bad)
	}
}

func TestFirstDueDate(t *testing.T) {
	assert.Equal(t, date(2025, 3, 5), FirstDueDate(date(2025, 3, 3), 5))
	assert.Equal(t, date(2025, 4, 5), FirstDueDate(date(2025, 3, 5), 5))
	assert.Equal(t, date(2025, 4, 5), FirstDueDate(date(2025, 3, 20), 5))
	assert.Equal(t, date(2026, 1, 5), FirstDueDate(date(2025, 12, 31), 5))

	// time of day on the due day itself still rolls forward
	afternoon := time.Date(2025, 3, 5, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, date(2025, 4, 5), FirstDueDate(afternoon, 5))
}

func TestFirstDueDate_ClampsToMonthEnd(t *testing.T) {
	assert.Equal(t, date(2025, 2, 28), FirstDueDate(date(2025, 2, 10), 31))
	assert.Equal(t, date(2025, 3, 31), FirstDueDate(date(2025, 2, 28), 31))
}

func TestDueDate_Monotonic(t *testing.T) {
	purchase := date(2025, 11, 20)
	prev := DueDate(purchase, 5, 1)
	assert.Equal(t, date(2025, 12, 5), prev)
	for k := 2; k <= MaxCount; k++ {
		next := DueDate(purchase, 5, k)
		assert.Equal(t, prev.AddDate(0, 1, 0), next, "installment %d", k)
		prev = next
	}
}

func TestDueDate_EndOfMonthDueDay(t *testing.T) {
	purchase := date(2025, 1, 10)
	assert.Equal(t, date(2025, 1, 31), DueDate(purchase, 31, 1))
	assert.Equal(t, date(2025, 2, 28), DueDate(purchase, 31, 2))
	assert.Equal(t, date(2025, 3, 31), DueDate(purchase, 31, 3))
}

func TestSchedule(t *testing.T) {
	got, err := Schedule(decimal.NewFromInt(300), 3, date(2025, 3, 3), 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, date(2025, 3, 5), got[0].DueDate)
	assert.Equal(t, date(2025, 4, 5), got[1].DueDate)
	assert.Equal(t, date(2025, 5, 5), got[2].DueDate)
	assert.True(t, got[2].Amount.Equal(decimal.NewFromInt(100)))
}
