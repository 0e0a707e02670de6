// =============================================================================
// Wave Sales Export - Version Command
// =============================================================================
//
// This file defines the 'version' command. Besides the release version it
// reports the VCS revision the binary was built from and the export variants
// it knows, so a support request can be matched to the exact query set.
//
// COMMAND USAGE:
//   wave-export version          # full report
//   wave-export version --short  # version number only, for scripts
//
// OUTPUT:
//   Wave Sales Export 0.1.0
//   Revision:   3f2c1ab (modified)
//   Build Date: 2024-03-05
//   Go Version: go1.24.0
//   Variants:   basic -> sales.csv, tax -> tax-sales-{date}.csv
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/wave-sales-export/internal/variant"
)

// =============================================================================
// BUILD INFORMATION
// =============================================================================
// Release builds stamp these with ldflags:
//   go build -ldflags "-X 'github.com/ginjaninja78/wave-sales-export/cmd.Version=1.2.0'
//                      -X 'github.com/ginjaninja78/wave-sales-export/cmd.BuildDate=2024-03-05'"
// Revision falls back to the VCS stamp the Go toolchain embeds.

var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	Revision  = ""
)

// versionShort prints only the version number.
var versionShort bool

// =============================================================================
// VERSION COMMAND DEFINITION
// =============================================================================

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Long:  `Display the version, source revision, build date, Go runtime and supported export variants.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if versionShort {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
			return
		}
		writeVersion(cmd.OutOrStdout(), buildRevision())
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print the version number only")
	rootCmd.AddCommand(versionCmd)
}

// writeVersion renders the full version report.
func writeVersion(w io.Writer, revision string) {
	if revision == "" {
		revision = "unknown"
	}

	variants := make([]string, 0, 2)
	for _, ev := range []variant.Variant{variant.Basic, variant.Tax} {
		variants = append(variants, fmt.Sprintf("%s -> %s", ev, ev.DefaultFileName()))
	}

	fmt.Fprintf(w, "Wave Sales Export %s\n", Version)
	fmt.Fprintf(w, "Revision:   %s\n", revision)
	fmt.Fprintf(w, "Build Date: %s\n", BuildDate)
	fmt.Fprintf(w, "Go Version: %s\n", runtime.Version())
	fmt.Fprintf(w, "Variants:   %s\n", strings.Join(variants, ", "))
}

// buildRevision prefers the ldflags value, then the embedded vcs.revision.
func buildRevision() string {
	if Revision != "" {
		return Revision
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}

	var revision string
	var modified bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if revision != "" && modified {
		revision += " (modified)"
	}
	return revision
}
