package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/storefront/internal/repository/sqldb"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the SQL schema migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := sqldb.Open(cfg.SQL.Driver, cfg.SQL.DSN)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.RunMigrations(); err != nil {
			return err
		}
		log.Info("migrations applied", zap.String("driver", cfg.SQL.Driver))
		return nil
	},
}
