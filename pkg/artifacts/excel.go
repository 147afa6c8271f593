package artifacts

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fika/fika-prep/pkg/policy"
	"github.com/fika/fika-prep/pkg/taxonomy"
	"github.com/xuri/excelize/v2"
)

const (
	WorkbookFileName = "themes.xlsx"
	indexSheet       = "index"
)

// WorkbookPath is planner/themes.xlsx.
func (w *Writer) WorkbookPath() string {
	return filepath.Join(w.PlannerDir(), WorkbookFileName)
}

// WriteWorkbook writes an index sheet with per-theme counts followed by one
// sheet per theme listing label and slug.
func (w *Writer) WriteWorkbook(results []policy.ThemeResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", indexSheet); err != nil {
		return fmt.Errorf("failed to rename index sheet: %w", err)
	}
	if err := f.SetSheetRow(indexSheet, "A1", &[]interface{}{"theme", "items"}); err != nil {
		return fmt.Errorf("failed to write index header: %w", err)
	}

	for i, result := range results {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(indexSheet, cell, &[]interface{}{result.Theme, len(result.Items)}); err != nil {
			return fmt.Errorf("failed to write index row for %s: %w", result.Theme, err)
		}

		if err := writeThemeSheet(f, result); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(w.PlannerDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create planner directory: %w", err)
	}
	if err := f.SaveAs(w.WorkbookPath()); err != nil {
		return fmt.Errorf("failed to save %s: %w", w.WorkbookPath(), err)
	}
	return nil
}

func writeThemeSheet(f *excelize.File, result policy.ThemeResult) error {
	if _, err := f.NewSheet(result.Theme); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", result.Theme, err)
	}
	if err := f.SetSheetRow(result.Theme, "A1", &[]interface{}{"label", "slug"}); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", result.Theme, err)
	}

	for i, label := range result.Items {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(result.Theme, cell, &[]interface{}{label, taxonomy.Slug(label)}); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", result.Theme, i+2, err)
		}
	}
	return nil
}
