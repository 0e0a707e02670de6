package exporter

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/ginjaninja78/wave-sales-export/internal/types"
)

// csvWriter writes comma-separated UTF-8 text.
type csvWriter struct {
	file   *os.File
	writer *csv.Writer
	closed bool
}

func newCSVWriter(path string) (*csvWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return &csvWriter{file: f, writer: csv.NewWriter(f)}, nil
}

func (w *csvWriter) WriteHeader(columns []string) error {
	return w.write(columns)
}

func (w *csvWriter) WriteRow(row types.FlatRow) error {
	return w.write(row.Strings())
}

func (w *csvWriter) write(record []string) error {
	if err := w.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// Close flushes buffered records and closes the file. It is safe to call
// more than once.
func (w *csvWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	w.writer.Flush()
	flushErr := w.writer.Error()
	closeErr := w.file.Close()
	if flushErr != nil {
		return fmt.Errorf("failed to flush: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close file: %w", closeErr)
	}
	return nil
}
