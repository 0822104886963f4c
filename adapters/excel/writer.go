package excel

import (
	"context"
	"fmt"
	"io"

	"bayesim/domain/sampling"
	"bayesim/domain/stats"
	"bayesim/ports"

	"github.com/xuri/excelize/v2"
)

// Sheet names of an exported workbook.
const (
	SheetSamples   = "Samples"
	SheetMarginals = "Marginals"
	SheetJoints    = "Joints"
	SheetProfiles  = "Profiles"
	SheetInsights  = "Insights"
)

// WorkbookExporter writes a batch and its summary as an .xlsx workbook.
type WorkbookExporter struct{}

var _ ports.BatchExporterPort = (*WorkbookExporter)(nil)

// NewWorkbookExporter creates an exporter.
func NewWorkbookExporter() *WorkbookExporter {
	return &WorkbookExporter{}
}

// Export writes one sheet of raw samples followed by summary sheets.
func (e *WorkbookExporter) Export(ctx context.Context, w io.Writer, batch sampling.Batch, summary stats.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSamples); err != nil {
		return err
	}
	if err := writeSamples(ctx, f, batch); err != nil {
		return err
	}

	sheets := []struct {
		name  string
		write func(*excelize.File, string, stats.Summary) error
	}{
		{SheetMarginals, writeMarginals},
		{SheetJoints, writeJoints},
		{SheetProfiles, writeProfiles},
		{SheetInsights, writeInsights},
	}
	for _, s := range sheets {
		if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", s.name, err)
		}
		if err := s.write(f, s.name, summary); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", s.name, err)
		}
	}

	return f.Write(w)
}

func writeSamples(ctx context.Context, f *excelize.File, batch sampling.Batch) error {
	sw, err := f.NewStreamWriter(SheetSamples)
	if err != nil {
		return err
	}

	var header []interface{}
	if schema := batch.Schema(); schema != nil {
		for _, name := range schema.Names() {
			header = append(header, name)
		}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, row := range batch.Rows() {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		cells := make([]interface{}, len(row))
		for c, label := range row {
			cells[c] = label
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return err
		}
	}
	return sw.Flush()
}

func writeMarginals(f *excelize.File, sheet string, summary stats.Summary) error {
	rows := [][]interface{}{{"Variable", "Label", "Count", "Frequency"}}
	for _, m := range summary.Marginals {
		for i, label := range m.Labels {
			rows = append(rows, []interface{}{m.Variable, label, m.Counts[i], m.Frequencies[i]})
		}
	}
	return setRows(f, sheet, 1, rows)
}

// writeJoints lays the joint tables out one below the other, each as a
// count grid with the row variable down the side.
func writeJoints(f *excelize.File, sheet string, summary stats.Summary) error {
	line := 1
	for _, j := range summary.Joints {
		header := []interface{}{j.RowVariable + " \\ " + j.ColumnVariable}
		for _, c := range j.ColumnLabels {
			header = append(header, c)
		}
		rows := [][]interface{}{header}
		for r, label := range j.RowLabels {
			row := []interface{}{label}
			for _, n := range j.Counts[r] {
				row = append(row, n)
			}
			rows = append(rows, row)
		}
		if err := setRows(f, sheet, line, rows); err != nil {
			return err
		}
		line += len(rows) + 1
	}
	return nil
}

func writeProfiles(f *excelize.File, sheet string, summary stats.Summary) error {
	header := []interface{}{}
	for _, name := range summary.Variables {
		header = append(header, name)
	}
	header = append(header, "Count", "Frequency")

	rows := [][]interface{}{header}
	for _, p := range summary.Profiles {
		row := []interface{}{}
		for _, name := range summary.Variables {
			row = append(row, p.Labels[name])
		}
		rows = append(rows, append(row, p.Count, p.Frequency))
	}
	return setRows(f, sheet, 1, rows)
}

func writeInsights(f *excelize.File, sheet string, summary stats.Summary) error {
	rows := [][]interface{}{{"Variable", "Label", "Rate", "Std Err", "95% Lower", "95% Upper"}}
	for _, r := range summary.Rates {
		rows = append(rows, []interface{}{r.Variable, r.Label, r.Rate, r.StdErr, r.Lower, r.Upper})
	}
	rows = append(rows, []interface{}{})
	rows = append(rows, []interface{}{"Rows", "Columns", "Chi-square", "df", "p-value", "Cramer's V", "Mutual info (bits)"})
	for _, ind := range summary.Independence {
		rows = append(rows, []interface{}{ind.RowVariable, ind.ColumnVariable, ind.ChiSquare, ind.DegreesOfFreedom, ind.PValue, ind.CramersV, ind.MutualInformation})
	}
	return setRows(f, sheet, 1, rows)
}

func setRows(f *excelize.File, sheet string, start int, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, start+i)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
