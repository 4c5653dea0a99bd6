package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is one ledger table ready for export: a header row and positional
// data rows. Short rows are padded to the header width, long rows rejected.
type Dataset struct {
	Headers []string
	Rows    [][]string
}

// CSVExporter renders Dataset records into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for i, row := range data.Rows {
		record, err := paddedRow(row, len(data.Headers))
		if err != nil {
			return nil, fmt.Errorf("csv row %d: %w", i, err)
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func paddedRow(row []string, width int) ([]string, error) {
	if len(row) > width {
		return nil, fmt.Errorf("row has %d cells, header has %d", len(row), width)
	}
	if len(row) == width {
		return row, nil
	}
	record := make([]string, width)
	copy(record, row)
	return record, nil
}
