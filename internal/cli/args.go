package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// requireScriptPath validates that exactly one script path argument is
// provided. Returns a helpful error message with usage and examples if
// missing or too many.
func requireScriptPath(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf(`missing required argument: <script.sql>

Usage: %s

Example:
  %s ./scripts/040_indexes.sql -S staging -U sa -d AppDB_Copy`, cmd.UseLine(), cmd.CommandPath())
	}
	if len(args) > 1 {
		return fmt.Errorf("accepts 1 arg(s), received %d", len(args))
	}
	return nil
}
