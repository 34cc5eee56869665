package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

const cellSeparator = " | "

// readXLSX returns every non-empty row of every sheet, in sheet order.
func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Format: "xlsx", Err: err}
	}
	defer f.Close()

	var rows [][]string
	for _, sheet := range f.GetSheetList() {
		sheetRows, err := f.GetRows(sheet)
		if err != nil {
			return nil, &ParseError{Format: "xlsx", Err: fmt.Errorf("sheet %q: %w", sheet, err)}
		}
		for _, row := range sheetRows {
			if cells := compactRow(row); len(cells) > 0 {
				rows = append(rows, cells)
			}
		}
	}
	return rows, nil
}

// readXLS handles the legacy BIFF workbook format.
func readXLS(data []byte) (rows [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ParseError{Format: "xls", Err: fmt.Errorf("malformed workbook: %v", r)}
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, &ParseError{Format: "xls", Err: err}
	}

	for s := 0; s < wb.NumSheets(); s++ {
		sheet := wb.GetSheet(s)
		if sheet == nil {
			continue
		}
		for i := 0; i <= int(sheet.MaxRow); i++ {
			row := sheet.Row(i)
			if row == nil {
				continue
			}
			var cells []string
			for c := row.FirstCol(); c < row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			if cells = compactRow(cells); len(cells) > 0 {
				rows = append(rows, cells)
			}
		}
	}
	return rows, nil
}

// readCSV is lenient: ragged rows and stray quotes are accepted, and a parse
// error simply ends the table (the raw text is still analysed).
func readCSV(text string) [][]string {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			break
		}
		if cells := compactRow(rec); len(cells) > 0 {
			rows = append(rows, cells)
		}
	}
	return rows
}

// flattenRows renders a table as one line per row, cells joined by " | ".
func flattenRows(rows [][]string) string {
	var sb strings.Builder
	for _, row := range rows {
		sb.WriteString(strings.Join(row, cellSeparator))
		sb.WriteString("\n")
	}
	return sb.String()
}

func compactRow(row []string) []string {
	out := make([]string, 0, len(row))
	for _, cell := range row {
		if cell = strings.TrimSpace(cell); cell != "" {
			out = append(out, cell)
		}
	}
	return out
}
