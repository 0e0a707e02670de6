// =============================================================================
// Wave Sales Export - Main Entry Point
// =============================================================================
//
// USAGE:
//   wave-export export      - Export invoice line items to CSV
//   wave-export validate    - Check the configuration without exporting
//   wave-export version     - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : API client, pagination, flattening and export
//   - pkg/       : Shared utilities (logging, file management)
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/wave-sales-export/cmd"
)

func main() {
	cmd.Execute()
}
