package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sozezzo/MSTools/internal/scaffold"
)

var initCmd = &cobra.Command{
	Use:   "init [target_path]",
	Short: "Initialize an mstools working directory",
	Long: `Initialize writes the starter files for an mstools working directory:

- mstools.yaml  commented project configuration (connections, stage overrides)
- .env.example  environment variable template for secrets

The target directory is created if missing and may already contain other
files. Existing files are never overwritten: a re-run fails rather than
clobber an edited configuration.

Examples:
  mstools init              # Initialize in the current directory
  mstools init ./dbops      # Initialize in ./dbops`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	targetPath := "."
	if len(args) == 1 {
		targetPath = args[0]
	}

	logger := newLogger(cmd)

	created, err := scaffold.NewScaffolder(logger).InitProject(targetPath)
	if err != nil {
		return fmt.Errorf("init failed: %w", err)
	}

	absPath, err := filepath.Abs(targetPath)
	if err != nil {
		absPath = targetPath
	}

	fmt.Fprintf(os.Stdout, "Initialized mstools project in %s\n\n", absPath)
	fmt.Fprintln(os.Stdout, "Created files:")
	for _, name := range created {
		fmt.Fprintf(os.Stdout, "  %s\n", name)
	}
	fmt.Fprintln(os.Stdout, `
Next steps:
  1. Edit mstools.yaml with your source and destination servers
  2. Copy .env.example to .env and set SQLSERVER_PASSWORD
  3. Run: mstools clone -d <database_copy>`)

	return nil
}
