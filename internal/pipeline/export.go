package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"subsrename/internal"
)

// ExportRenameReport writes one row per renamed node.
func ExportRenameReport(rows []internal.RenameRow, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []string{
		"file", "output", "line_no", "protocol", "server", "port",
		"old_label", "new_label", "flag", "region", "seq",
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.File)
		set(2, row.Output)
		set(3, row.LineNo)
		set(4, row.Protocol)
		set(5, row.Server)
		set(6, derefInt(row.Port))
		set(7, row.OldLabel)
		set(8, row.NewLabel)
		set(9, row.Flag)
		set(10, row.Region)
		set(11, row.Seq)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func derefInt(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}
