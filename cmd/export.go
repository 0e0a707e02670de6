// =============================================================================
// Wave Sales Export - Export Command
// =============================================================================
//
// This file defines the 'export' command, which runs one export.
//
// COMMAND USAGE:
//   wave-export export [flags]
//
// FLAGS:
//   --variant      : basic or tax
//   --output       : Output file name template ({date}, {timestamp}, {uuid}, {variant}).
//                    May contain directories; relative paths resolve under --output-dir
//   --output-dir   : Directory for the export
//   --page-size    : Invoices per API request (1-100)
//   --business-id  : Wave business id (overrides WAVE_BUSINESS_ID)
//   --api-url      : GraphQL endpoint
//   --archive-dir  : Copy an existing export here before overwriting it
//   --summary      : Write a run summary next to the export
//
// OUTPUT:
//   stdout  progress per page and the final "<n> rows written to <file>"
//   stderr  logs
//
// =============================================================================

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/wave-sales-export/internal/config"
	"github.com/ginjaninja78/wave-sales-export/internal/pipeline"
)

// =============================================================================
// EXPORT COMMAND DEFINITION
// =============================================================================

// exportCmd represents the 'export' command.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export invoice line items to a CSV file",
	Long: `The export command fetches every invoice page of the configured business,
flattens each invoice into one row per line item and writes the rows to the
output file.

Any API error, malformed response or invoice line with more than one sales
tax (tax variant) aborts the run before anything is written.

Press Ctrl-C to cancel an export in progress.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runExport(ctx, cmd)
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the export command and its flags.
//
// Flag defaults stay empty so an unset flag never overrides config.yaml or
// WAVE_* values. The effective defaults live in config.applyDefaults.
func init() {
	rootCmd.AddCommand(exportCmd)

	flags := exportCmd.Flags()
	flags.String("variant", "", "Query variant: basic or tax (default tax)")
	flags.String("output", "", "Output file name template (default per variant); relative paths resolve under --output-dir")
	flags.String("output-dir", "", "Directory for the export file (default .)")
	flags.Int("page-size", 0, "Invoices per page, 1-100 (default 50)")
	flags.String("business-id", "", "Wave business id")
	flags.String("api-url", "", "Wave GraphQL endpoint")
	flags.String("archive-dir", "", "Archive an existing export here before overwriting it")
	flags.Bool("summary", false, "Write a run summary next to the export")

	// viper key -> flag name
	bindings := map[string]string{
		config.KeyVariant:      "variant",
		config.KeyOutputFile:   "output",
		config.KeyOutputDir:    "output-dir",
		config.KeyPageSize:     "page-size",
		config.KeyBusinessID:   "business-id",
		config.KeyAPIURL:       "api-url",
		config.KeyArchiveDir:   "archive-dir",
		config.KeyWriteSummary: "summary",
	}
	for key, name := range bindings {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runExport loads the configuration and runs the pipeline.
func runExport(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log := newLogger(cfg)
	log.Debug().
		Str("config", cfgFile).
		Str("api_url", cfg.APIURL).
		Str("token", cfg.MaskedToken()).
		Msg("configuration loaded")

	// The pipeline prints progress and the final row count to stdout;
	// logs go to stderr so the two can be redirected separately.
	p := pipeline.New(cfg, pipeline.Options{Out: cmd.OutOrStdout()}, log)
	if _, err := p.Run(ctx); err != nil {
		log.Error().Err(err).Msg("export failed")
		return err
	}
	return nil
}
