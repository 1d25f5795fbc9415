/*
Package workbook is the spreadsheet boundary of the service.

PURPOSE:
  Reads each uploaded source's first sheet into an engine.Table and writes
  the run's result tables back out as one styled multi-sheet workbook. This
  layer has no reconciliation logic; it only moves cells.

SEE ALSO:
  - report.go: Result-to-workbook conversion
*/
package workbook

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/warp/absence-audit/engine"
)

// ReadTable reads the first sheet of an XLSX payload into a Table. The
// first row becomes the header list; remaining rows become untyped cells.
func ReadTable(data []byte, name string) (engine.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return engine.Table{}, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return engine.Table{}, fmt.Errorf("%s: workbook has no sheets", name)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return engine.Table{}, fmt.Errorf("read %s: %w", name, err)
	}

	t := engine.Table{Name: name}
	if len(rows) == 0 {
		return t, nil
	}
	for _, h := range rows[0] {
		t.Headers = append(t.Headers, strings.TrimSpace(h))
	}
	for _, row := range rows[1:] {
		cells := make([]any, len(row))
		for i, c := range row {
			cells[i] = c
		}
		t.Rows = append(t.Rows, cells)
	}
	return t, nil
}

// Sheet is one output sheet: a header row plus value rows.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// Write renders the sheets into a single XLSX workbook with a styled header
// row. Sheet names are truncated to Excel's 31-character limit.
func Write(sheets []Sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	for i, sheet := range sheets {
		name := sheetName(sheet.Name)
		if i == 0 {
			f.SetSheetName(f.GetSheetName(0), name)
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return nil, fmt.Errorf("sheet %s: %w", name, err)
			}
		}

		for col, h := range sheet.Headers {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			f.SetCellValue(name, cell, h)
		}
		if len(sheet.Headers) > 0 {
			first, _ := excelize.CoordinatesToCellName(1, 1)
			last, _ := excelize.CoordinatesToCellName(len(sheet.Headers), 1)
			f.SetCellStyle(name, first, last, headerStyle)
		}

		for r, row := range sheet.Rows {
			for c, v := range row {
				cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
				f.SetCellValue(name, cell, v)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func sheetName(name string) string {
	if len(name) > 31 {
		return name[:31]
	}
	return name
}
