package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strconv"
)

var errNoHeaders = errors.New("export: dataset has no headers")

// CSV writes a header line followed by one line per row. Text cells that a
// spreadsheet would evaluate as a formula are prefixed with a quote.
type CSV struct{}

func (CSV) ContentType() string { return "text/csv; charset=utf-8" }

func (CSV) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, errNoHeaders
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	records := make([][]string, 0, len(data.Rows)+1)
	records = append(records, data.Headers)
	for _, row := range data.Rows {
		cells := data.record(row)
		for i, cell := range cells {
			cells[i] = neutralize(cell)
		}
		records = append(records, cells)
	}
	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func neutralize(cell string) string {
	if cell == "" {
		return cell
	}
	if _, err := strconv.ParseFloat(cell, 64); err == nil {
		return cell
	}
	switch cell[0] {
	case '=', '+', '-', '@':
		return "'" + cell
	}
	return cell
}
