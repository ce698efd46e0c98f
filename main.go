// =============================================================================
// ECF Block Splitter - Main Entry Point
// =============================================================================
//
// USAGE:
//   ecfsplit convert --source export.txt --target out/   Split an export
//   ecfsplit config init                                 Write config.yaml
//   ecfsplit version                                     Display the version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Classification, template resolution and export
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/ecf-block-splitter/cmd"
)

func main() {
	cmd.Execute()
}
