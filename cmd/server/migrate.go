package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/intervention-decision-service/internal/config"
	"github.com/iliyamo/intervention-decision-service/internal/database"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the service tables if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, dialect, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Migrate(cmd.Context(), db, dialect); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", dialect)
			return nil
		},
	}
}
