// Package sheetrows converts purchase rows to and from spreadsheet records.
package sheetrows

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/moonventures/cardpurchases/internal/amount"
	"github.com/moonventures/cardpurchases/internal/models"
	"github.com/shopspring/decimal"
)

// Column names, in persisted order.
const (
	ColDate             = "Data"
	ColCard             = "Cartão"
	ColCompany          = "Empresa"
	ColSupplier         = "Fornecedor"
	ColTotal            = "Valor"
	ColInstallment      = "Parcelado"
	ColInstallmentCount = "Parcelas"
	ColInstallmentValue = "Valor Parcela"
	ColBuyer            = "Comprador"
	ColPosition         = "Parcela"
	ColDescription      = "Descrição"
	ColReceipt          = "Comprovante"
	ColPurchaseDate     = "Data Compra"
	ColCurrency         = "Moeda"
	ColOriginalAmount   = "Valor Original"
	ColExchangeRate     = "Cotação"
	ColCardholder       = "Titular"
	ColPurchaseID       = "ID Compra"
)

// Headers is the header row written to every spreadsheet sink.
var Headers = []string{
	ColDate, ColCard, ColCompany, ColSupplier, ColTotal, ColInstallment,
	ColInstallmentCount, ColInstallmentValue, ColBuyer, ColPosition,
	ColDescription, ColReceipt, ColPurchaseDate, ColCurrency,
	ColOriginalAmount, ColExchangeRate, ColCardholder, ColPurchaseID,
}

const (
	yes = "Sim"
	no  = "Não"
)

func formatRate(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(4), ".", ",", 1)
}

// Encode returns the cells of r in Headers order.
func Encode(r models.PurchaseRow) []string {
	flag := no
	if r.Installment {
		flag = yes
	}
	var currency, original, rate string
	if r.HasConversion() {
		currency = r.Currency
		original = amount.FormatPlain(r.OriginalAmount)
		rate = formatRate(r.ExchangeRate)
	}
	return []string{
		r.PostingDate,
		r.Card,
		r.Company,
		r.Supplier,
		amount.FormatPlain(r.Total),
		flag,
		strconv.Itoa(r.InstallmentCount),
		amount.FormatPlain(r.InstallmentValue),
		r.Buyer,
		r.Position,
		r.Description,
		r.ReceiptRef,
		r.PurchaseDate,
		currency,
		original,
		rate,
		r.CardholderID,
		r.PurchaseID,
	}
}

// EncodeAll encodes rows in order.
func EncodeAll(rows []models.PurchaseRow) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = Encode(r)
	}
	return out
}

// Decode reads purchase rows from records whose first record is the header.
// Columns are matched by name, so reordered or missing optional columns are
// tolerated. Blank rows are skipped. Cells that cannot be parsed keep their
// zero value and are reported in the returned messages; the row is still
// returned so that callers decide what to do with it.
func Decode(records [][]string) ([]models.PurchaseRow, []string) {
	if len(records) == 0 {
		return []models.PurchaseRow{}, nil
	}

	index := parseHeaders(records[0])
	if _, ok := index[ColDate]; !ok {
		return nil, []string{fmt.Sprintf("Header: missing %s column", ColDate)}
	}

	rows := []models.PurchaseRow{}
	var errors []string
	for i, record := range records[1:] {
		rowNum := i + 2
		if isBlank(record) {
			continue
		}
		get := func(col string) string {
			j, ok := index[col]
			if !ok || j >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[j])
		}

		r, problems := mapToRow(get)
		for _, p := range problems {
			errors = append(errors, fmt.Sprintf("Row %d: %s", rowNum, p))
		}
		rows = append(rows, r)
	}
	return rows, errors
}

func parseHeaders(row []string) map[string]int {
	index := make(map[string]int, len(row))
	for i, h := range row {
		index[strings.TrimSpace(h)] = i
	}
	return index
}

func isBlank(record []string) bool {
	for _, c := range record {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func mapToRow(get func(string) string) (models.PurchaseRow, []string) {
	var problems []string

	money := func(col string) decimal.Decimal {
		s := get(col)
		if s == "" {
			return decimal.Zero
		}
		d, err := amount.ParseStrict(s)
		if err != nil {
			problems = append(problems, fmt.Sprintf("invalid %s: %s", col, s))
		}
		return d
	}

	r := models.PurchaseRow{
		PostingDate:      get(ColDate),
		Card:             get(ColCard),
		Company:          get(ColCompany),
		Supplier:         get(ColSupplier),
		Total:            money(ColTotal),
		InstallmentValue: money(ColInstallmentValue),
		Buyer:            get(ColBuyer),
		Position:         get(ColPosition),
		Description:      get(ColDescription),
		ReceiptRef:       get(ColReceipt),
		PurchaseDate:     get(ColPurchaseDate),
		Currency:         strings.ToUpper(get(ColCurrency)),
		CardholderID:     get(ColCardholder),
		PurchaseID:       get(ColPurchaseID),
		InstallmentCount: 1,
	}

	switch strings.ToLower(get(ColInstallment)) {
	case "sim", "true", "yes":
		r.Installment = true
	case "não", "nao", "false", "no", "":
	default:
		problems = append(problems, fmt.Sprintf("invalid %s: %s", ColInstallment, get(ColInstallment)))
	}

	if s := get(ColInstallmentCount); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			problems = append(problems, fmt.Sprintf("invalid %s: %s", ColInstallmentCount, s))
		} else {
			r.InstallmentCount = n
		}
	}

	if r.HasConversion() {
		r.OriginalAmount = money(ColOriginalAmount)
		r.ExchangeRate = money(ColExchangeRate)
	}
	return r, problems
}

// WriteCSV writes rows with a header line as CSV.
func WriteCSV(w io.Writer, rows []models.PurchaseRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := cw.WriteAll(EncodeAll(rows)); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return nil
}
