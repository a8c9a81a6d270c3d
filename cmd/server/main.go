// Command server runs the reorder engine's read-only HTTP facade: load the
// repository once, build the engine, and serve propose/batch/settings
// routes until signalled to stop. The decision core itself never blocks on
// I/O; only this entrypoint does.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/pinggolf/reorder-engine/internal/api"
	"github.com/pinggolf/reorder-engine/internal/config"
	"github.com/pinggolf/reorder-engine/internal/engine"
	"github.com/pinggolf/reorder-engine/internal/queue"
	"github.com/pinggolf/reorder-engine/internal/repository"
	"github.com/pinggolf/reorder-engine/internal/repository/csvrepo"
	"github.com/pinggolf/reorder-engine/internal/repository/pgrepo"
	"github.com/pinggolf/reorder-engine/internal/repository/sqliterepo"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	runID := uuid.NewString()
	log.Printf("reorder-engine server starting (run_id=%s, backend=%s)", runID, cfg.RepositoryBackend)

	repo, closer, err := openRepository(cfg)
	if err != nil {
		log.Fatalf("failed to open repository: %v", err)
	}
	defer closer()

	ctx, cancelLoad := context.WithTimeout(context.Background(), cfg.BatchTimeout)
	collections, err := engine.Load(ctx, repo)
	cancelLoad()
	if err != nil {
		log.Fatalf("failed to load repository collections: %v", err)
	}
	eng := engine.New(repo, collections)
	log.Printf("loaded %d SKUs, %d transactions, %d sales records", len(collections.SKUs), len(collections.Transactions), len(collections.Sales))

	var natsManager *queue.Manager
	if cfg.NATSEnabled {
		log.Printf("connecting to NATS at %s", cfg.NATSURL)
		natsManager, err = queue.NewManager(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to NATS: %v", err)
		}
		defer natsManager.Close()
	}

	server := api.NewServer(cfg, eng)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.AppPort),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("server listening on port %d (environment: %s)", cfg.AppPort, cfg.AppEnv)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	log.Println("server stopped gracefully")
}

// openRepository builds the repository.Repository named by
// cfg.RepositoryBackend and returns a cleanup func that closes any
// underlying connection (a no-op for the CSV backend).
func openRepository(cfg *config.Config) (repository.Repository, func(), error) {
	limiter := repository.NewReadLimiter(0, 1) // unlimited; the server reads once at startup

	switch cfg.RepositoryBackend {
	case "csv":
		return csvrepo.New(cfg.CSVDataDir, limiter), func() {}, nil
	case "sqlite":
		repo, db, err := sqliterepo.Open(cfg.SQLitePath, limiter)
		if err != nil {
			return nil, nil, err
		}
		if err := sqliterepo.Migrate(db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("sqlite migrate: %w", err)
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
		return nil, nil, fmt.Errorf("unknown REPOSITORY_BACKEND: %s", cfg.RepositoryBackend)
	}
}
