package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xuri/excelize/v2"

	"equity-feature-lab/internal/domain"
)

// WorkbookName is the file XLSXWriter creates inside the export directory.
const WorkbookName = "features.xlsx"

// XLSXWriter writes a single workbook with one sheet per instrument.
type XLSXWriter struct {
	opts Options
}

// Write implements Writer.
func (w *XLSXWriter) Write(dir string, tables map[string]*domain.FeatureTable) ([]string, error) {
	if len(tables) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	ids := make([]string, 0, len(tables))
	for id := range tables {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	f := excelize.NewFile()
	defer f.Close()

	for i, id := range ids {
		sheet := sheetName(id)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
				return nil, err
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", id, err)
		}
		if err := w.writeSheet(f, sheet, tables[id]); err != nil {
			return nil, fmt.Errorf("sheet %s: %w", id, err)
		}
	}

	path := filepath.Join(dir, WorkbookName)
	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("save workbook: %w", err)
	}
	return []string{path}, nil
}

func (w *XLSXWriter) writeSheet(f *excelize.File, sheet string, table *domain.FeatureTable) error {
	for col, h := range Header(table) {
		name, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, name, h); err != nil {
			return err
		}
	}
	for r, row := range rows(table, w.opts) {
		for col, c := range row {
			if c.missing() {
				continue
			}
			name, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return err
			}
			var v any = c.text
			if c.number != nil {
				v = *c.number
			}
			if err := f.SetCellValue(sheet, name, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// sheet names are limited to 31 characters
func sheetName(id string) string {
	name := fileName(id)
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}
