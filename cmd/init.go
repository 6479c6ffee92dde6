package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/provlab/traceline/internal/config"
	"github.com/provlab/traceline/internal/infrastructure/sqlite"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config file and ledger database",
	Long: `Write the default configuration to .traceline/config.yaml (unless one
exists) and create the ledger database with its schema applied. Safe to
run repeatedly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := cfgFile
		if configPath == "" {
			configPath = ".traceline/config.yaml"
		}
		if err := config.WriteDefaultConfig(configPath); err != nil {
			return err
		}

		if err := cfg.Validate(); err != nil {
			return err
		}
		db, err := sqlite.NewDB(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("creating ledger database: %w", err)
		}
		defer db.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "config: %s\nledger: %s\n", configPath, cfg.DBPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
