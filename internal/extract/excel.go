package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractSheet renders every sheet row as "Header: value" pairs, using the first
// row of the sheet as headers, so spreadsheet rows read like catalog records.
// Rows wider than the header row fall back to bare values.
func extractSheet(content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	var lines []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("get rows for sheet %q: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}
		headers := rows[0]
		if len(rows) == 1 {
			lines = append(lines, strings.Join(headers, " "))
			continue
		}
		for _, row := range rows[1:] {
			if line := sheetRow(headers, row); line != "" {
				lines = append(lines, line)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}

func sheetRow(headers, row []string) string {
	parts := make([]string, 0, len(row))
	for i, cell := range row {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		if i < len(headers) && strings.TrimSpace(headers[i]) != "" {
			parts = append(parts, strings.TrimSpace(headers[i])+": "+cell)
		} else {
			parts = append(parts, cell)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ". ") + "."
}
