package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/moonventures/cardpurchases/internal/models"
	"github.com/moonventures/cardpurchases/internal/sheetrows"
	"github.com/xuri/excelize/v2"
)

// WorkbookSheet is the worksheet purchase rows are written to.
const WorkbookSheet = "Compras"

// WorkbookService keeps a local xlsx copy of every recorded purchase row.
type WorkbookService struct {
	path string
	mu   sync.Mutex
}

// NewWorkbookService creates a WorkbookService writing to path, or to
// LOCAL_WORKBOOK when path is empty.
func NewWorkbookService(path string) *WorkbookService {
	if path == "" {
		path = envOr("LOCAL_WORKBOOK", filepath.Join("data", "compras.xlsx"))
	}
	return &WorkbookService{path: path}
}

// Path returns the workbook location.
func (s *WorkbookService) Path() string {
	return s.path
}

// open loads the workbook, creating it with a header row when it does not
// exist yet.
func (s *WorkbookService) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(s.path)
	if err == nil {
		if idx, _ := f.GetSheetIndex(WorkbookSheet); idx < 0 {
			if _, err := f.NewSheet(WorkbookSheet); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to add sheet %s: %w", WorkbookSheet, err)
			}
		}
		return f, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to open workbook %s: %w", s.path, err)
	}

	f = excelize.NewFile()
	if err := f.SetSheetName("Sheet1", WorkbookSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	return f, nil
}

// AppendRows writes rows below the last used row of the workbook.
func (s *WorkbookService) AppendRows(_ context.Context, rows []models.PurchaseRow) error {
	if len(rows) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	existing, err := f.GetRows(WorkbookSheet)
	if err != nil {
		return fmt.Errorf("failed to read sheet %s: %w", WorkbookSheet, err)
	}

	records := sheetrows.EncodeAll(rows)
	if len(existing) == 0 {
		records = append([][]string{sheetrows.Headers}, records...)
	}

	next := len(existing) + 1
	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, next+i)
		if err != nil {
			return err
		}
		values := make([]any, len(rec))
		for j, v := range rec {
			values[j] = v
		}
		if err := f.SetSheetRow(WorkbookSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", next+i, err)
		}
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create workbook directory: %w", err)
		}
	}
	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", s.path, err)
	}

	slog.Info("appended purchase rows to workbook", "path", s.path, "rows", len(rows))
	return nil
}

// ListRows reads every purchase row stored in the workbook. A missing
// workbook holds no rows.
func (s *WorkbookService) ListRows(_ context.Context) ([]models.PurchaseRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	f, err := s.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := f.GetRows(WorkbookSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", WorkbookSheet, err)
	}
	rows, problems := sheetrows.Decode(records)
	for _, p := range problems {
		slog.Warn("skipping workbook row", "path", s.path, "problem", p)
	}
	return rows, nil
}
