package main

import (
	"github.com/spf13/cobra"

	"github.com/pinggolf/reorder-engine/internal/repository"
	"github.com/pinggolf/reorder-engine/internal/repository/pgrepo"
	"github.com/pinggolf/reorder-engine/internal/repository/sqliterepo"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations to the sqlite or postgres backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		limiter := repository.NewReadLimiter(0, 1)

		switch resolvedConfig.Backend {
		case "sqlite":
			_, db, err := sqliterepo.Open(resolvedConfig.SQLitePath, limiter)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := sqliterepo.Migrate(db); err != nil {
				return err
			}
			cmd.Printf("migrated sqlite database at %s\n", resolvedConfig.SQLitePath)
			return nil
		case "postgres":
			_, db, err := pgrepo.Open(resolvedConfig.DatabaseURL, limiter)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := pgrepo.Migrate(db); err != nil {
				return err
			}
			cmd.Println("migrated postgres database")
			return nil
		default:
			return cmdErrorf("migrate is only meaningful for backend=sqlite or backend=postgres, got %q", resolvedConfig.Backend)
		}
	},
}
