// =============================================================================
// Wave Sales Export - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every subcommand
// shares the configuration flags declared here.
//
// COBRA CLI STRUCTURE:
//   rootCmd (wave-export)
//   ├── exportCmd   (wave-export export)
//   ├── validateCmd (wave-export validate)
//   └── versionCmd  (wave-export version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --env-file, --verbose, --log-format)
//   2. Binding flags to viper so they override the config file
//   3. Building the logger
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/wave-sales-export/internal/config"
	"github.com/ginjaninja78/wave-sales-export/pkg/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the YAML configuration file.
var cfgFile string

// envFile is loaded into the environment before it is read.
var envFile string

// verbose forces debug logging.
var verbose bool

// v carries environment variables and changed flags into config.Load.
var v = config.NewViper()

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "wave-export",
	Short: "Wave Sales Export - Export Wave invoice line items to CSV",
	Long: `Wave Sales Export downloads every invoice of a Wave business through the
public GraphQL API and writes one row per invoice line item.

Variants:
  basic   product, quantity, price, customer and invoice identity
  tax     adds customer addresses and the sales tax of each line item,
          sorted by invoice date and written to tax-sales-<date>.csv

Credentials come from WAVE_BUSINESS_ID and WAVE_KEY (environment or .env).

Example Usage:
  wave-export export                         # Tax export with defaults
  wave-export export --variant basic         # Writes sales.csv
  wave-export export --output-dir ./reports  # Custom output directory
  wave-export validate                       # Check configuration only`,

	SilenceUsage:  true,
	SilenceErrors: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file",
	)

	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env-file",
		".env",
		"Path to a .env file with WAVE_* variables",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)

	rootCmd.PersistentFlags().String("log-format", "", "Log format: console or json")
	_ = v.BindPFlag(config.KeyLogFormat, rootCmd.PersistentFlags().Lookup("log-format"))
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// loadConfig loads the configuration for cmd. An explicitly named config file
// must exist; the default one is optional.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	required := false
	if f := cmd.Flag("config"); f != nil {
		required = f.Changed
	}

	cfg, err := config.Load(config.LoadOptions{
		Path:     cfgFile,
		Required: required,
		EnvFile:  envFile,
		Viper:    v,
	})
	if err != nil {
		return nil, err
	}

	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newLogger builds the stderr logger for cfg.
func newLogger(cfg *config.Config) zerolog.Logger {
	return logger.New(logger.Config{
		Format: cfg.LogFormat,
		Level:  cfg.LogLevel,
		Out:    os.Stderr,
	})
}
