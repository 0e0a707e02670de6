// =============================================================================
// Wave Sales Export - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which loads and checks the
// configuration without calling the API.
//
// COMMAND USAGE:
//   wave-export validate
//   wave-export validate --config prod.yaml --env-file prod.env
//
// OUTPUT:
//   Configuration OK
//     API URL:      https://gql.waveapps.com/graphql/public
//     Business ID:  QnVzaW5lc3M6...
//     API token:    ********1234
//     Variant:      tax
//     Page size:    50
//     Output file:  tax-sales-2024-03-05.csv
//
// The token is always masked. Configuration errors are returned through
// cobra and exit with status 1.
//
// =============================================================================

package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/wave-sales-export/pkg/utils"
)

// =============================================================================
// VALIDATE COMMAND DEFINITION
// =============================================================================

// validateCmd represents the 'validate' command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration without exporting",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		// Resolve the output path exactly as an export would, so the
		// printed name matches the file the next run writes.
		exportVariant := cfg.ExportVariant()
		nameFormat := cfg.OutputFile
		if nameFormat == "" {
			nameFormat = exportVariant.DefaultFileName()
		}
		fileName := utils.GenerateOutputFileName(nameFormat, time.Now(), map[string]string{"variant": exportVariant.String()})
		fm := utils.NewFileManager(cfg.OutputDir, cfg.ArchiveDir)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Configuration OK")
		fmt.Fprintf(out, "  API URL:      %s\n", cfg.APIURL)
		fmt.Fprintf(out, "  Business ID:  %s\n", cfg.BusinessID)
		fmt.Fprintf(out, "  API token:    %s\n", cfg.MaskedToken())
		fmt.Fprintf(out, "  Variant:      %s\n", exportVariant)
		fmt.Fprintf(out, "  Page size:    %d\n", cfg.PageSize)
		fmt.Fprintf(out, "  Output file:  %s\n", fm.OutputPath(fileName))
		if cfg.ArchiveDir != "" {
			fmt.Fprintf(out, "  Archive dir:  %s\n", cfg.ArchiveDir)
		}
		return nil
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the validate command. It has no flags of its own; the
// persistent root flags select the config and .env files.
func init() {
	rootCmd.AddCommand(validateCmd)
}
