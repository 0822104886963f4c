package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// SampleTable is the raw content of an exported Samples sheet.
type SampleTable struct {
	Headers []string
	Rows    [][]string
}

// ReadSamples reads the Samples sheet of an exported workbook back into
// label rows.
func ReadSamples(r io.Reader) (*SampleTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetSamples)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", SheetSamples, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s sheet is empty", SheetSamples)
	}

	table := &SampleTable{Headers: rows[0], Rows: [][]string{}}
	for i, row := range rows[1:] {
		if len(row) != len(table.Headers) {
			return nil, fmt.Errorf("row %d has %d cells, expected %d", i+2, len(row), len(table.Headers))
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
