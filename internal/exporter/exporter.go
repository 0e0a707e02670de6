// =============================================================================
// Wave Sales Export - Exporter
// =============================================================================
//
// The exporter writes flat rows to the destination file.
//
// STEPS:
//   1. Refuse an empty row set (ErrNoData); nothing is created.
//   2. Stable-sort by "Invoice date" when the variant asks for it.
//   3. Write the header from the first row's columns, then every row in that
//      same column order.
//   4. Return the number of data rows written.
//
// FORMATS:
//   The destination extension picks the writer: ".xlsx" writes a workbook via
//   excelize, anything else writes comma-separated UTF-8 text.
//
// A failure part-way through leaves whatever was already written on disk.
// The file handle is always closed.
//
// =============================================================================

package exporter

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/ginjaninja78/wave-sales-export/internal/types"
	"github.com/ginjaninja78/wave-sales-export/internal/variant"
	"github.com/rs/zerolog"
)

// ErrNoData is returned when there are no rows and so no header to derive.
var ErrNoData = errors.New("no data to export")

// ErrColumnMismatch is returned when a row's columns differ from the header.
var ErrColumnMismatch = errors.New("row columns do not match header")

// WriteError means the destination could not be created or written.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// RowWriter is the sink for one export file.
type RowWriter interface {
	WriteHeader(columns []string) error
	WriteRow(row types.FlatRow) error
	Close() error
}

// Options controls one Exporter.
type Options struct {
	// SortByInvoiceDate enables the stable invoice-date sort.
	SortByInvoiceDate bool

	// SheetName is the worksheet name for XLSX output.
	SheetName string
}

// OptionsFor returns the options a variant implies.
func OptionsFor(v variant.Variant) Options {
	return Options{
		SortByInvoiceDate: v.SortsByInvoiceDate(),
		SheetName:         "Sales",
	}
}

// Exporter writes FlatRows to files.
type Exporter struct {
	opts   Options
	logger zerolog.Logger
}

// New creates an Exporter.
func New(opts Options, logger zerolog.Logger) *Exporter {
	if opts.SheetName == "" {
		opts.SheetName = "Sales"
	}
	return &Exporter{
		opts:   opts,
		logger: logger.With().Str("component", "exporter").Logger(),
	}
}

// Export writes rows to destination and returns the data-row count.
// The rows slice itself is never reordered.
func (e *Exporter) Export(rows []types.FlatRow, destination string) (int, error) {
	if len(rows) == 0 {
		return 0, ErrNoData
	}

	header := rows[0].Columns()
	for i, row := range rows {
		if !slices.Equal(row.Columns(), header) {
			return 0, fmt.Errorf("row %d: %w", i+1, ErrColumnMismatch)
		}
	}

	ordered := rows
	if e.opts.SortByInvoiceDate {
		ordered = SortByInvoiceDate(rows)
	}

	w, err := e.openWriter(destination)
	if err != nil {
		return 0, &WriteError{Path: destination, Err: err}
	}

	written, err := writeAll(w, header, ordered)
	closeErr := w.Close()
	if err != nil {
		return written, &WriteError{Path: destination, Err: err}
	}
	if closeErr != nil {
		return written, &WriteError{Path: destination, Err: closeErr}
	}

	e.logger.Debug().
		Str("path", destination).
		Int("rows", written).
		Int("columns", len(header)).
		Msg("export written")

	return written, nil
}

func (e *Exporter) openWriter(destination string) (RowWriter, error) {
	switch strings.ToLower(filepath.Ext(destination)) {
	case ".xlsx":
		return newXLSXWriter(destination, e.opts.SheetName)
	default:
		return newCSVWriter(destination)
	}
}

func writeAll(w RowWriter, header []string, rows []types.FlatRow) (int, error) {
	if err := w.WriteHeader(header); err != nil {
		return 0, err
	}
	written := 0
	for _, row := range rows {
		if err := w.WriteRow(row); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// SortByInvoiceDate returns a copy of rows stable-sorted by the invoice date
// string, ascending. Rows with equal dates keep their relative order.
func SortByInvoiceDate(rows []types.FlatRow) []types.FlatRow {
	sorted := make([]types.FlatRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Text(variant.ColInvoiceDate) < sorted[j].Text(variant.ColInvoiceDate)
	})
	return sorted
}

// RowsWrittenMessage renders the completion line, e.g. "3 rows written to sales.csv".
func RowsWrittenMessage(rows int, file string) string {
	noun := "rows"
	if rows == 1 {
		noun = "row"
	}
	return fmt.Sprintf("%d %s written to %s", rows, noun, file)
}
