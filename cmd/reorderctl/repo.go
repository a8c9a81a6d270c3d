package main

import (
	"fmt"

	"github.com/pinggolf/reorder-engine/internal/repository"
	"github.com/pinggolf/reorder-engine/internal/repository/csvrepo"
	"github.com/pinggolf/reorder-engine/internal/repository/pgrepo"
	"github.com/pinggolf/reorder-engine/internal/repository/sqliterepo"
)

// openRepository opens the backend named by resolvedConfig.Backend, applying
// migrations first when requested. Mirrors cmd/server's backend switch; kept
// separate since each binary self-contains its own wiring.
func openRepository(cfg cliConfig) (repository.Repository, func(), error) {
	limiter := repository.NewReadLimiter(0, 1)

	switch cfg.Backend {
	case "csv":
		return csvrepo.New(cfg.CSVDataDir, limiter), func() {}, nil
	case "sqlite":
		repo, db, err := sqliterepo.Open(cfg.SQLitePath, limiter)
		if err != nil {
			return nil, nil, err
		}
		if cfg.RunMigrations {
			if err := sqliterepo.Migrate(db); err != nil {
				db.Close()
				return nil, nil, fmt.Errorf("sqlite migrate: %w", err)
			}
		}
		return repo, func() { db.Close() }, nil
	case "postgres":
		repo, db, err := pgrepo.Open(cfg.DatabaseURL, limiter)
		if err != nil {
			return nil, nil, err
		}
		if cfg.RunMigrations {
			if err := pgrepo.Migrate(db); err != nil {
				db.Close()
				return nil, nil, fmt.Errorf("postgres migrate: %w", err)
			}
		}
		return repo, func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend: %s", cfg.Backend)
	}
}
