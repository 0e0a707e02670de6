// =============================================================================
// Wave Sales Export - File Manager Utility
// =============================================================================
//
// This module handles the files around an export run:
//   - Resolving the output file name from a template
//   - Creating the output and archive directories
//   - Archiving a previous export before it is overwritten
//   - Writing a plain-text run summary
//
// ARCHIVE STRUCTURE:
//   archive/
//   └── 2024/
//       └── 03/
//           └── 15/
//               └── tax-sales-2024-03-15.csv
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER STRUCTURE
// =============================================================================

// FileManager manages the output and archive directories of one run.
type FileManager struct {
	// OutputDir is where exports and summaries are written.
	OutputDir string

	// ArchiveDir receives copies of exports that are about to be overwritten.
	// Empty disables archiving.
	ArchiveDir string

	// UseTimestampSubdirs files archives under YYYY/MM/DD subdirectories.
	UseTimestampSubdirs bool

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewFileManager creates a FileManager with date subdirectories enabled.
func NewFileManager(outputDir, archiveDir string) *FileManager {
	return &FileManager{
		OutputDir:           outputDir,
		ArchiveDir:          archiveDir,
		UseTimestampSubdirs: true,
		Now:                 time.Now,
	}
}

// EnsureDirectories creates the output directory (and archive directory, if
// configured).
func (fm *FileManager) EnsureDirectories() error {
	dirs := []string{fm.OutputDir}
	if fm.ArchiveDir != "" {
		dirs = append(dirs, fm.ArchiveDir)
	}

	for _, dir := range dirs {
		if err := EnsureDir(dir); err != nil {
			return err
		}
	}

	return nil
}

// OutputPath resolves a file name against the output directory. Relative
// names, including ones with subdirectories, land under OutputDir; absolute
// names are used as given.
func (fm *FileManager) OutputPath(fileName string) string {
	if filepath.IsAbs(fileName) {
		return filepath.Clean(fileName)
	}
	return filepath.Join(fm.OutputDir, fileName)
}

// EnsureDir creates dir and any missing parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// =============================================================================
// ARCHIVE OPERATIONS
// =============================================================================

// ArchiveOutputFile copies an existing export into the archive before it is
// overwritten. It returns the archive path, or "" when nothing was archived
// (archiving disabled or no previous file).
func (fm *FileManager) ArchiveOutputFile(filePath string) (string, error) {
	if fm.ArchiveDir == "" || !FileExists(filePath) {
		return "", nil
	}

	archivePath := fm.getArchivePath(filePath)
	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := copyFile(filePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to copy file to archive: %w", err)
	}

	return archivePath, nil
}

// getArchivePath determines where an archived file should be stored.
func (fm *FileManager) getArchivePath(filePath string) string {
	fileName := filepath.Base(filePath)

	if fm.UseTimestampSubdirs {
		now := fm.now()
		subDir := filepath.Join(
			fm.ArchiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
		)
		return filepath.Join(subDir, fileName)
	}

	return filepath.Join(fm.ArchiveDir, fileName)
}

func (fm *FileManager) now() time.Time {
	if fm.Now == nil {
		return time.Now()
	}
	return fm.Now()
}

// =============================================================================
// FILE NAMING
// =============================================================================

// GenerateOutputFileName expands a file name template.
//
// PLACEHOLDERS:
//   - {date}:      run date, YYYY-MM-DD
//   - {timestamp}: run time, YYYYMMDD_HHMMSS
//   - {uuid}:      a random UUID
//   - any key of params, e.g. {variant}
//
// A ".csv" extension is appended when the result has none.
func GenerateOutputFileName(format string, now time.Time, params map[string]string) string {
	replacements := map[string]string{
		"{date}":      now.Format("2006-01-02"),
		"{timestamp}": now.Format("20060102_150405"),
	}
	if strings.Contains(format, "{uuid}") {
		replacements["{uuid}"] = uuid.New().String()
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if filepath.Ext(result) == "" {
		result += ".csv"
	}

	return result
}

// =============================================================================
// SUMMARY LOG
// =============================================================================

// ExportSummary describes one completed run.
type ExportSummary struct {
	RunID           string
	Variant         string
	BusinessID      string
	StartTime       time.Time
	EndTime         time.Time
	PagesFetched    int
	InvoicesFetched int
	RowsWritten     int
	OutputFile      string
	ArchivedFile    string
	LineTotal       string
	SalesTaxTotal   string
	Warnings        []string
}

// WriteSummaryLog writes the summary as export_summary_<timestamp>.txt in
// outputDir and returns its path.
func WriteSummaryLog(summary ExportSummary, outputDir string) (string, error) {
	timestamp := summary.EndTime.Format("20060102_150405")
	summaryPath := filepath.Join(outputDir, fmt.Sprintf("export_summary_%s.txt", timestamp))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}

	if err := writeSummary(file, summary); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close summary file: %w", err)
	}

	return summaryPath, nil
}

// writeSummary renders the summary to w. bufio.Writer keeps the first write
// error, so Flush reports any failure of the writes before it.
func writeSummary(w io.Writer, summary ExportSummary) error {
	writer := bufio.NewWriter(w)

	fmt.Fprintf(writer, "Wave Sales Export - Run Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Variant:        %s\n"+
		"  Business:       %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Pages Fetched:    %d\n"+
		"  Invoices Fetched: %d\n"+
		"  Rows Written:     %d\n"+
		"  Line Total:       %s\n"+
		"  Sales Tax Total:  %s\n\n"+
		"Files:\n"+
		"  Output:           %s\n",
		summary.RunID,
		summary.Variant,
		summary.BusinessID,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.PagesFetched,
		summary.InvoicesFetched,
		summary.RowsWritten,
		summary.LineTotal,
		summary.SalesTaxTotal,
		summary.OutputFile)

	if summary.ArchivedFile != "" {
		fmt.Fprintf(writer, "  Previous export:  %s\n", summary.ArchivedFile)
	}

	if len(summary.Warnings) > 0 {
		writer.WriteString("\nWarnings:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, warning := range summary.Warnings {
			fmt.Fprintf(writer, "  %s\n", warning)
		}
	}

	writer.WriteString("\n================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}

	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
