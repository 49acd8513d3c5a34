// =============================================================================
// Transit Payment Reports - Main Entry Point
// =============================================================================
//
// This is the main entry point for the transit-reports CLI. It delegates
// command execution to the cmd package.
//
// USAGE:
//   transit-reports generate   - Build the trip count and monthly top route reports
//   transit-reports validate   - Check the record files without writing reports
//   transit-reports sample     - Write the sample data set
//   transit-reports version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Loading, report computation and serialization
//   - pkg/           : Console output and file helpers
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/transit-payment-reports/cmd"
)

func main() {
	cmd.Execute()
}
