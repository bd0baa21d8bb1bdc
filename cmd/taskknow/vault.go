package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func vaultCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Sync the store with the Obsidian vault",
	}
	cmd.AddCommand(vaultExportCmd())
	cmd.AddCommand(vaultImportCmd())
	return cmd
}

func vaultExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write all live tasks and documents to the vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()
			if app.vault == nil {
				return fmt.Errorf("no vault directory configured (set vault_dir or TASKKNOW_VAULT_DIR)")
			}

			stats, err := app.vault.Export(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Exported %d tasks and %d documents\n", stats.Tasks, stats.Docs)
			return nil
		},
	}
}

func vaultImportCmd() *cobra.Command {
	var replace bool
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Read vault notes into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.close()
			if app.vault == nil {
				return fmt.Errorf("no vault directory configured (set vault_dir or TASKKNOW_VAULT_DIR)")
			}

			stats, err := app.vault.Import(cmd.Context(), replace)
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d tasks and %d documents (%d skipped, %d trashed)\n",
				stats.Tasks, stats.Docs, stats.Skipped, stats.Trashed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "trash store entities that have no note in the vault")
	return cmd
}
