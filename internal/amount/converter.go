package amount

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/moonventures/cardpurchases/internal/metrics"
	"github.com/moonventures/cardpurchases/internal/models"
	"github.com/shopspring/decimal"
)

// LocalCurrency is the currency every amount is recorded in.
const LocalCurrency = "BRL"

// DefaultRateTTL bounds how long a fetched rate is reused.
const DefaultRateTTL = time.Hour

// RateSource fetches the bid rate of currency against BRL.
type RateSource interface {
	Bid(ctx context.Context, currency string) (decimal.Decimal, error)
}

type cachedRate struct {
	rate      decimal.Decimal
	fetchedAt time.Time
}

// Converter converts foreign amounts with cached rates from a RateSource.
type Converter struct {
	source RateSource
	ttl    time.Duration
	now    func() time.Time

	mu    sync.Mutex
	rates map[string]cachedRate
}

// NewConverter creates a Converter. A zero ttl means DefaultRateTTL.
func NewConverter(source RateSource, ttl time.Duration) *Converter {
	if ttl <= 0 {
		ttl = DefaultRateTTL
	}
	return &Converter{
		source: source,
		ttl:    ttl,
		now:    time.Now,
		rates:  make(map[string]cachedRate),
	}
}

// Rate returns the current rate for currency, fetching it when the cached
// value is missing or older than the TTL.
func (c *Converter) Rate(ctx context.Context, currency string) (decimal.Decimal, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	c.mu.Lock()
	cached, ok := c.rates[currency]
	c.mu.Unlock()
	if ok && c.now().Sub(cached.fetchedAt) < c.ttl {
		metrics.RateCache.WithLabelValues("hit").Inc()
		return cached.rate, nil
	}
	metrics.RateCache.WithLabelValues("miss").Inc()

	rate, err := c.source.Bid(ctx, currency)
	if err != nil {
		return decimal.Zero, err
	}

	c.mu.Lock()
	c.rates[currency] = cachedRate{rate: rate, fetchedAt: c.now()}
	c.mu.Unlock()
	return rate, nil
}

// Convert converts original from currency to BRL. It returns nil for BRL or
// an empty currency. When the rate cannot be fetched the original amount is
// taken as already being BRL and the Warning flag is set.
func (c *Converter) Convert(ctx context.Context, currency string, original decimal.Decimal) *models.Conversion {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" || currency == LocalCurrency {
		return nil
	}

	rate, err := c.Rate(ctx, currency)
	if err != nil {
		slog.Warn("exchange rate unavailable, keeping original amount", "currency", currency, "error", err)
		metrics.IntegrationFailures.WithLabelValues("quotes").Inc()
		return &models.Conversion{
			Currency: currency,
			Original: original,
			Rate:     decimal.NewFromInt(1),
			Local:    original,
			Warning:  true,
		}
	}

	return &models.Conversion{
		Currency: currency,
		Original: original,
		Rate:     rate,
		Local:    original.Mul(rate).Round(2),
	}
}
