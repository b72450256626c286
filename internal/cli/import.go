package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/awsbrowse/internal/source/fixture"
	"github.com/artpar/awsbrowse/internal/source/sqlite"
)

// NewImportCommand creates the import command.
func NewImportCommand(global *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import FIXTURE DATABASE",
		Short: "Load a YAML inventory into a SQLite snapshot",
		Long: `Load a YAML inventory into a SQLite snapshot, replacing what the
snapshot held. Browse the result with --source sqlite.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], args[1])
		},
	}
}

func runImport(cmd *cobra.Command, fixturePath, dbPath string) error {
	inv, err := fixture.ReadFile(fixturePath)
	if err != nil {
		return err
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Import(cmd.Context(), inv)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", fixturePath, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d resources into %s\n", n, dbPath)
	return nil
}
