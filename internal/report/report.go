// Package report filters recorded purchase rows and totals them per card.
package report

import (
	"sort"

	"github.com/moonventures/cardpurchases/internal/config"
	"github.com/moonventures/cardpurchases/internal/models"
	"github.com/shopspring/decimal"
)

// All disables a filter field.
const All = "Todos"

// Filter selects rows by card, buyer and company. Empty fields and All match
// every row.
type Filter struct {
	Card    string `json:"card"`
	Buyer   string `json:"buyer"`
	Company string `json:"company"`
}

func matches(want, got string) bool {
	return want == "" || want == All || want == got
}

// CardTotal is the spending on one card.
type CardTotal struct {
	Card      string          `json:"card"`
	Total     decimal.Decimal `json:"total"`
	Purchases int             `json:"purchases"`
}

// Options lists the distinct values available to each filter.
type Options struct {
	Cards     []string `json:"cards"`
	Buyers    []string `json:"buyers"`
	Companies []string `json:"companies"`
}

// Report is the filtered view of the recorded purchases.
type Report struct {
	Rows    []models.PurchaseRow `json:"rows"`
	Totals  []CardTotal          `json:"totals"`
	Total   decimal.Decimal      `json:"total"`
	Options Options              `json:"options"`
}

// company resolves the company of a row. Older rows carry only the card.
func company(r models.PurchaseRow, cfg *config.Config) string {
	if r.Company != "" {
		return r.Company
	}
	if co, ok := cfg.CompanyForCard(r.Card); ok {
		return co.Name
	}
	return ""
}

// purchaseKey identifies the purchase a row belongs to, so a purchase split
// into N rows is counted once.
type purchaseKey struct {
	id, date, card, supplier, total, buyer string
}

func keyOf(r models.PurchaseRow) purchaseKey {
	if r.PurchaseID != "" {
		return purchaseKey{id: r.PurchaseID}
	}
	return purchaseKey{
		date:     r.PostingDate,
		card:     r.Card,
		supplier: r.Supplier,
		total:    r.Total.String(),
		buyer:    r.Buyer,
	}
}

// Build applies f to rows and computes the per-card totals. Options are
// computed over every row so the filters never hide their own choices.
func Build(rows []models.PurchaseRow, f Filter, cfg *config.Config) Report {
	rep := Report{
		Rows:    []models.PurchaseRow{},
		Totals:  []CardTotal{},
		Options: options(rows, cfg),
	}

	seen := make(map[purchaseKey]bool)
	totals := make(map[string]*CardTotal)
	for _, r := range rows {
		if !matches(f.Card, r.Card) || !matches(f.Buyer, r.Buyer) || !matches(f.Company, company(r, cfg)) {
			continue
		}
		rep.Rows = append(rep.Rows, r)

		k := keyOf(r)
		if seen[k] {
			continue
		}
		seen[k] = true

		ct, ok := totals[r.Card]
		if !ok {
			ct = &CardTotal{Card: r.Card}
			totals[r.Card] = ct
		}
		ct.Total = ct.Total.Add(r.Total)
		ct.Purchases++
		rep.Total = rep.Total.Add(r.Total)
	}

	for _, ct := range totals {
		rep.Totals = append(rep.Totals, *ct)
	}
	sort.Slice(rep.Totals, func(i, j int) bool { return rep.Totals[i].Card < rep.Totals[j].Card })
	return rep
}

func options(rows []models.PurchaseRow, cfg *config.Config) Options {
	cards := make(map[string]bool)
	buyers := make(map[string]bool)
	companies := make(map[string]bool)
	for _, c := range cfg.Companies {
		companies[c.Name] = true
	}
	for _, r := range rows {
		if r.Card != "" {
			cards[r.Card] = true
		}
		if r.Buyer != "" {
			buyers[r.Buyer] = true
		}
		if co := company(r, cfg); co != "" {
			companies[co] = true
		}
	}
	return Options{
		Cards:     sorted(cards),
		Buyers:    sorted(buyers),
		Companies: sorted(companies),
	}
}

func sorted(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
