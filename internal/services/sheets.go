package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/moonventures/cardpurchases/internal/models"
	"github.com/moonventures/cardpurchases/internal/sheetrows"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsService stores purchase rows in a Google Sheets spreadsheet.
type SheetsService struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	sheetRange    string
}

// NewSheetsService creates a SheetsService for SHEET_ID. Extra options are
// passed to the API client; without them Application Default Credentials
// are used.
func NewSheetsService(ctx context.Context, opts ...option.ClientOption) (*SheetsService, error) {
	spreadsheetID := os.Getenv("SHEET_ID")
	if spreadsheetID == "" {
		return nil, fmt.Errorf("SHEET_ID environment variable is required")
	}
	sheetRange := envOr("SHEET_RANGE", "Compras")

	if len(opts) == 0 {
		opts = []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	slog.Info("sheets service initialized successfully", "sheet_id", spreadsheetID, "range", sheetRange)
	return &SheetsService{
		values:        svc.Spreadsheets.Values,
		spreadsheetID: spreadsheetID,
		sheetRange:    sheetRange,
	}, nil
}

func toCells(records [][]string) [][]any {
	cells := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		cells[i] = row
	}
	return cells
}

func fromCells(cells [][]any) [][]string {
	records := make([][]string, len(cells))
	for i, row := range cells {
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = fmt.Sprint(v)
		}
		records[i] = rec
	}
	return records
}

func (s *SheetsService) read(ctx context.Context) ([][]string, error) {
	resp, err := s.values.Get(s.spreadsheetID, s.sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", s.sheetRange, err)
	}
	return fromCells(resp.Values), nil
}

// AppendRows appends rows after the last filled line, writing the header
// first when the sheet is empty.
func (s *SheetsService) AppendRows(ctx context.Context, rows []models.PurchaseRow) error {
	if len(rows) == 0 {
		return nil
	}

	existing, err := s.read(ctx)
	if err != nil {
		return err
	}

	records := sheetrows.EncodeAll(rows)
	if len(existing) == 0 {
		records = append([][]string{sheetrows.Headers}, records...)
	}

	vr := &sheets.ValueRange{Values: toCells(records)}
	_, err = s.values.Append(s.spreadsheetID, s.sheetRange, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		slog.Error("failed to append rows to sheet", "range", s.sheetRange, "error", err)
		return fmt.Errorf("failed to append to sheet %s: %w", s.sheetRange, err)
	}

	slog.Info("appended purchase rows to sheet", "range", s.sheetRange, "rows", len(rows))
	return nil
}

// ListRows returns every decodable purchase row in the sheet.
func (s *SheetsService) ListRows(ctx context.Context) ([]models.PurchaseRow, error) {
	records, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	rows, problems := sheetrows.Decode(records)
	for _, p := range problems {
		slog.Warn("skipping sheet row", "range", s.sheetRange, "problem", p)
	}
	return rows, nil
}
