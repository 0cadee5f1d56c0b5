package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const defaultQuoteURL = "https://economia.awesomeapi.com.br/json/last"

// QuoteService fetches currency-to-BRL bid rates from a public quotes API.
type QuoteService struct {
	baseURL    string
	httpClient *http.Client
}

// NewQuoteService creates a QuoteService reading QUOTE_API_URL.
func NewQuoteService() *QuoteService {
	return &QuoteService{
		baseURL:    strings.TrimSuffix(envOr("QUOTE_API_URL", defaultQuoteURL), "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type quote struct {
	Bid string `json:"bid"`
}

// Bid returns how many BRL one unit of currency buys.
func (s *QuoteService) Bid(ctx context.Context, currency string) (decimal.Decimal, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	url := fmt.Sprintf("%s/%s-BRL", s.baseURL, currency)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create quote request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch quote for %s: %w", currency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return decimal.Zero, fmt.Errorf("quote request for %s failed with status %d: %s", currency, resp.StatusCode, string(body))
	}

	var payload map[string]quote
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode quote for %s: %w", currency, err)
	}

	q, ok := payload[currency+"BRL"]
	if !ok {
		return decimal.Zero, fmt.Errorf("quote for %s missing from response", currency)
	}
	bid, err := decimal.NewFromString(q.Bid)
	if err != nil || !bid.IsPositive() {
		return decimal.Zero, fmt.Errorf("invalid bid %q for %s", q.Bid, currency)
	}
	return bid, nil
}
