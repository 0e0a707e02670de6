// =============================================================================
// Wave Sales Export - Pipeline Module
// =============================================================================
//
// This module runs one export end to end.
//
// PIPELINE:
//   1. Fetch every invoice page (paginator + GraphQL client)
//   2. Inspect the invoices and log non-fatal data issues
//   3. Flatten invoices into one row per line item
//   4. Resolve the output path and archive a previous export
//   5. Write the export file
//   6. Optionally write a run summary
//
// Any failure aborts the run. Nothing is written when the fetch or the
// flattening fails.
//
// =============================================================================

package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/wave-sales-export/internal/client"
	"github.com/ginjaninja78/wave-sales-export/internal/config"
	"github.com/ginjaninja78/wave-sales-export/internal/denormalizer"
	"github.com/ginjaninja78/wave-sales-export/internal/exporter"
	"github.com/ginjaninja78/wave-sales-export/internal/paginator"
	"github.com/ginjaninja78/wave-sales-export/internal/types"
	"github.com/ginjaninja78/wave-sales-export/internal/validation"
	"github.com/ginjaninja78/wave-sales-export/internal/variant"
	"github.com/ginjaninja78/wave-sales-export/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of one export run.
type Result struct {
	// RunID identifies the run in logs and the summary file.
	RunID string

	// Variant is the query variant that was exported.
	Variant variant.Variant

	// OutputFile is the path of the written export.
	OutputFile string

	// ArchivedFile is where the previous export was copied, if any.
	ArchivedFile string

	// SummaryFile is the run summary path, if one was written.
	SummaryFile string

	// Stats contains run statistics.
	Stats Stats

	// Issues are the non-fatal data findings.
	Issues []validation.Issue
}

// Stats contains statistics about one run.
type Stats struct {
	PagesFetched    int
	InvoicesFetched int
	RowsWritten     int

	// LineTotal is the sum of quantity × price over all line items.
	LineTotal decimal.Decimal

	// SalesTaxTotal is the sum of every tax amount on every line item.
	SalesTaxTotal decimal.Decimal

	Elapsed time.Duration
}

// =============================================================================
// PIPELINE STRUCTURE
// =============================================================================

// Options carries the collaborators of a Pipeline that are not configuration.
type Options struct {
	// Out receives the progress and completion lines. Defaults to os.Stdout.
	Out io.Writer

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time

	// HTTPClient overrides the HTTP client built from the config.
	HTTPClient *http.Client
}

// Pipeline runs exports for one configuration.
type Pipeline struct {
	cfg        *config.Config
	out        io.Writer
	now        func() time.Time
	httpClient *http.Client
	logger     zerolog.Logger
}

// New creates a Pipeline. cfg must already be validated.
func New(cfg *config.Config, opts Options, logger zerolog.Logger) *Pipeline {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{
		cfg:        cfg,
		out:        opts.Out,
		now:        opts.Now,
		httpClient: opts.HTTPClient,
		logger:     logger,
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the export. On success the export file has been written and
// the completion line printed.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	startTime := p.now()
	v := p.cfg.ExportVariant()

	result := &Result{
		RunID:   uuid.New().String(),
		Variant: v,
	}
	log := p.logger.With().Str("run_id", result.RunID).Str("variant", v.String()).Logger()
	log.Info().Str("business_id", p.cfg.BusinessID).Int("page_size", p.cfg.PageSize).Msg("starting export")

	// Step 1: Fetch all invoices
	api := client.New(client.Config{
		Endpoint:   p.cfg.APIURL,
		Token:      p.cfg.APIToken,
		Variant:    v,
		Timeout:    p.cfg.RequestTimeout,
		HTTPClient: p.httpClient,
	}, log)

	pager, err := paginator.New(api, paginator.Config{
		BusinessID: p.cfg.BusinessID,
		PageSize:   p.cfg.PageSize,
	}, func(pr paginator.Progress) {
		result.Stats.PagesFetched++
		fmt.Fprintf(p.out, "Fetched %d of %d pages (%d/%d invoices total)\n",
			pr.Page, pr.TotalPages, pr.Fetched, pr.TotalCount)
	}, log)
	if err != nil {
		return nil, err
	}

	invoices, err := pager.FetchAllInvoices(ctx)
	if err != nil {
		return nil, err
	}
	result.Stats.InvoicesFetched = len(invoices)

	// Step 2: Inspect data quality
	result.Issues = validation.NewValidator(v).Inspect(invoices)
	for _, issue := range result.Issues {
		log.Warn().Str("invoice", issue.InvoiceNumber).Str("rule", issue.Rule).Msg(issue.Message)
	}

	// Step 3: Flatten
	rows, err := denormalizer.New(v).Denormalize(invoices)
	if err != nil {
		return nil, fmt.Errorf("failed to flatten invoices: %w", err)
	}
	if len(rows) == 0 {
		return nil, exporter.ErrNoData
	}
	log.Debug().Int("rows", len(rows)).Msg("flattened line items")

	// Step 4: Resolve output and archive the previous file
	fm := utils.NewFileManager(p.cfg.OutputDir, p.cfg.ArchiveDir)
	fm.Now = p.now

	nameFormat := p.cfg.OutputFile
	if nameFormat == "" {
		nameFormat = v.DefaultFileName()
	}
	fileName := utils.GenerateOutputFileName(nameFormat, startTime, map[string]string{"variant": v.String()})
	result.OutputFile = fm.OutputPath(fileName)

	if err := fm.EnsureDirectories(); err != nil {
		return nil, err
	}
	if err := utils.EnsureDir(filepath.Dir(result.OutputFile)); err != nil {
		return nil, err
	}
	archived, err := fm.ArchiveOutputFile(result.OutputFile)
	if err != nil {
		return nil, err
	}
	if archived != "" {
		result.ArchivedFile = archived
		log.Info().Str("archive", archived).Msg("archived previous export")
	}

	// Step 5: Write the export
	written, err := exporter.New(exporter.OptionsFor(v), log).Export(rows, result.OutputFile)
	if err != nil {
		return nil, err
	}
	result.Stats.RowsWritten = written
	fmt.Fprintln(p.out, exporter.RowsWrittenMessage(written, result.OutputFile))

	result.Stats.LineTotal, result.Stats.SalesTaxTotal = sumTotals(invoices)
	endTime := p.now()
	result.Stats.Elapsed = endTime.Sub(startTime)

	// Step 6: Summary
	if p.cfg.WriteSummary {
		summaryPath, err := utils.WriteSummaryLog(p.summary(result, startTime, endTime), p.cfg.OutputDir)
		if err != nil {
			return nil, err
		}
		result.SummaryFile = summaryPath
	}

	log.Info().
		Str("output", result.OutputFile).
		Int("invoices", result.Stats.InvoicesFetched).
		Int("rows", result.Stats.RowsWritten).
		Dur("elapsed", result.Stats.Elapsed).
		Msg("export complete")

	return result, nil
}

// summary converts a Result into the file manager's summary record.
func (p *Pipeline) summary(result *Result, start, end time.Time) utils.ExportSummary {
	warnings := make([]string, 0, len(result.Issues))
	for _, issue := range result.Issues {
		warnings = append(warnings, issue.String())
	}
	return utils.ExportSummary{
		RunID:           result.RunID,
		Variant:         result.Variant.String(),
		BusinessID:      p.cfg.BusinessID,
		StartTime:       start,
		EndTime:         end,
		PagesFetched:    result.Stats.PagesFetched,
		InvoicesFetched: result.Stats.InvoicesFetched,
		RowsWritten:     result.Stats.RowsWritten,
		OutputFile:      result.OutputFile,
		ArchivedFile:    result.ArchivedFile,
		LineTotal:       result.Stats.LineTotal.StringFixed(2),
		SalesTaxTotal:   result.Stats.SalesTaxTotal.StringFixed(2),
		Warnings:        warnings,
	}
}

// sumTotals adds up line amounts and taxes. Unparsable numbers are skipped;
// Inspect has already reported them.
func sumTotals(invoices []types.Invoice) (lines, taxes decimal.Decimal) {
	for i := range invoices {
		for j := range invoices[i].Items {
			item := &invoices[i].Items[j]

			qty, errQ := item.Quantity.Decimal()
			price, errP := item.Price.Decimal()
			if errQ == nil && errP == nil {
				lines = lines.Add(qty.Mul(price))
			}

			for k := range item.Taxes {
				amount, ok := item.Taxes[k].AmountValue()
				if !ok {
					continue
				}
				if d, err := decimal.NewFromString(amount); err == nil {
					taxes = taxes.Add(d)
				}
			}
		}
	}
	return lines, taxes
}
