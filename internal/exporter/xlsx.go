package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/wave-sales-export/internal/types"
)

// xlsxWriter streams rows into a single worksheet and saves the workbook on
// Close. The destination file only appears once Close succeeds.
//
// Quantity and price cells holding a valid decimal are written as numbers so
// they can be summed in Excel. Everything else, zip codes and invoice numbers
// included, is written as text.
type xlsxWriter struct {
	path   string
	file   *excelize.File
	stream *excelize.StreamWriter
	row    int
	closed bool
}

func newXLSXWriter(path, sheet string) (*xlsxWriter, error) {
	f := excelize.NewFile()

	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to open stream writer: %w", err)
	}

	return &xlsxWriter{path: path, file: f, stream: sw}, nil
}

func (w *xlsxWriter) WriteHeader(columns []string) error {
	if err := w.stream.SetColWidth(1, len(columns), 18); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	cells := make([]interface{}, len(columns))
	for i, c := range columns {
		cells[i] = c
	}
	return w.setRow(cells)
}

func (w *xlsxWriter) WriteRow(row types.FlatRow) error {
	cells := make([]interface{}, len(row))
	for i, f := range row {
		cells[i] = cellValue(f.Value)
	}
	return w.setRow(cells)
}

func (w *xlsxWriter) setRow(cells []interface{}) error {
	w.row++
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		return fmt.Errorf("failed to address row %d: %w", w.row, err)
	}
	if err := w.stream.SetRow(cell, cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", w.row, err)
	}
	return nil
}

// cellValue maps a row value to an excelize cell value.
func cellValue(v any) interface{} {
	if n, ok := v.(types.Numeric); ok {
		if d, err := n.Decimal(); err == nil {
			f, _ := d.Float64()
			return f
		}
	}
	return types.FormatValue(v)
}

func (w *xlsxWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	defer w.file.Close()

	if err := w.stream.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
