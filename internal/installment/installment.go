// Package installment splits purchase totals into monthly installments and
// computes their billing due dates.
package installment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/moonventures/cardpurchases/internal/models"
	"github.com/shopspring/decimal"
)

// MaxCount is the largest installment count a card accepts.
const MaxCount = 12

// DefaultDueDay is the billing day used when a cardholder has none configured.
const DefaultDueDay = 5

var (
	// ErrInvalidCount is returned for counts outside 1..MaxCount.
	ErrInvalidCount = errors.New("installment count must be between 1 and 12")
	// ErrInvalidLabel is returned by ParseLabel for anything but "k/N".
	ErrInvalidLabel = errors.New("invalid installment label")
)

// Label returns the position label of installment k of n.
func Label(k, n int) string {
	if n == 1 {
		return "1/1"
	}
	return fmt.Sprintf("%d/%d", k, n)
}

// ParseLabel parses a "k/N" position label.
func ParseLabel(s string) (k, n int, err error) {
	a, b, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidLabel, s)
	}
	k, err1 := strconv.Atoi(strings.TrimSpace(a))
	n, err2 := strconv.Atoi(strings.TrimSpace(b))
	if err1 != nil || err2 != nil || n < 1 || k < 1 || k > n {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidLabel, s)
	}
	return k, n, nil
}

// Split divides total into n installments of total/n each. The remainder of
// the division is not redistributed.
func Split(total decimal.Decimal, n int) ([]models.Installment, error) {
	if n < 1 || n > MaxCount {
		return nil, ErrInvalidCount
	}
	per := total.Div(decimal.NewFromInt(int64(n)))
	out := make([]models.Installment, n)
	for i := range out {
		out[i] = models.Installment{
			Position: i + 1,
			Count:    n,
			Label:    Label(i+1, n),
			Amount:   per,
		}
	}
	return out, nil
}

// Schedule is Split with the due date of every installment filled in.
func Schedule(total decimal.Decimal, n int, purchase time.Time, dueDay int) ([]models.Installment, error) {
	out, err := Split(total, n)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].DueDate = DueDate(purchase, dueDay, out[i].Position)
	}
	return out, nil
}

// FirstDueDate returns the first billing date on dueDay strictly after the
// purchase date.
func FirstDueDate(purchase time.Time, dueDay int) time.Time {
	if dueDay < 1 {
		dueDay = DefaultDueDay
	}
	y, m, _ := purchase.Date()
	day := truncate(purchase)
	first := onDay(y, m, dueDay, purchase.Location())
	if !first.After(day) {
		first = addMonths(first, 1, dueDay)
	}
	return first
}

// DueDate returns the due date of installment k (1-based): the first due
// date advanced by k-1 calendar months.
func DueDate(purchase time.Time, dueDay, k int) time.Time {
	if dueDay < 1 {
		dueDay = DefaultDueDay
	}
	return addMonths(FirstDueDate(purchase, dueDay), k-1, dueDay)
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// onDay returns day of the given month, clamped to the month's last day.
func onDay(y int, m time.Month, day int, loc *time.Location) time.Time {
	last := time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day()
	if day > last {
		day = last
	}
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}

func addMonths(t time.Time, months, dueDay int) time.Time {
	y, m, _ := t.Date()
	return onDay(y, m+time.Month(months), dueDay, t.Location())
}
